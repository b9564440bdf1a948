package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ErrDuplicateDaySchedule is returned when a class already has a schedule for the target day and year.
var ErrDuplicateDaySchedule = errors.New("day schedule already exists for class, day and academic year")

const uniqueViolation = "23505"

const dayScheduleColumns = `id, class_id, day_of_week, academic_year, is_recurring, effective_from, effective_until, status, created_at, updated_at`

const periodColumns = `id, day_schedule_id, period_number, start_time, end_time, subject_id, teacher_id, location, notes, created_at`

// DayScheduleRepository persists submitted day schedules and their periods.
type DayScheduleRepository struct {
	db *sqlx.DB
}

// NewDayScheduleRepository creates the repository.
func NewDayScheduleRepository(db *sqlx.DB) *DayScheduleRepository {
	return &DayScheduleRepository{db: db}
}

// Save writes a submission and its periods in one transaction. With an empty scheduleID the
// record for the same class/day/academic year is replaced or created; otherwise the given
// record is updated and sql.ErrNoRows is returned when it no longer exists.
func (r *DayScheduleRepository) Save(ctx context.Context, scheduleID string, submission models.TimetableSubmission) (id string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save day schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	recurring := submission.IsRecurring != nil && *submission.IsRecurring
	status := models.DayScheduleStatusActive
	if submission.Status != nil && *submission.Status != "" {
		status = *submission.Status
	}

	if scheduleID == "" {
		const upsert = `
INSERT INTO day_schedules (id, class_id, day_of_week, academic_year, is_recurring, effective_from, effective_until, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (class_id, day_of_week, academic_year) DO UPDATE
SET is_recurring = EXCLUDED.is_recurring,
    effective_from = EXCLUDED.effective_from,
    effective_until = EXCLUDED.effective_until,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at
RETURNING id`
		if err = tx.QueryRowxContext(ctx, upsert,
			uuid.NewString(), submission.ClassID, submission.Day, submission.AcademicYear,
			recurring, submission.EffectiveFrom, submission.EffectiveUntil, status, now,
		).Scan(&id); err != nil {
			return "", fmt.Errorf("upsert day schedule: %w", err)
		}
	} else {
		const update = `
UPDATE day_schedules
SET class_id = $2, day_of_week = $3, academic_year = $4, is_recurring = $5,
    effective_from = $6, effective_until = $7, status = $8, updated_at = $9
WHERE id = $1`
		var result sql.Result
		result, err = tx.ExecContext(ctx, update,
			scheduleID, submission.ClassID, submission.Day, submission.AcademicYear,
			recurring, submission.EffectiveFrom, submission.EffectiveUntil, status, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				err = ErrDuplicateDaySchedule
				return "", err
			}
			return "", fmt.Errorf("update day schedule: %w", err)
		}
		var affected int64
		if affected, err = result.RowsAffected(); err != nil {
			return "", fmt.Errorf("update day schedule rows: %w", err)
		}
		if affected == 0 {
			err = sql.ErrNoRows
			return "", err
		}
		id = scheduleID
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM day_schedule_periods WHERE day_schedule_id = $1`, id); err != nil {
		return "", fmt.Errorf("clear day schedule periods: %w", err)
	}

	const insertPeriod = `INSERT INTO day_schedule_periods (` + periodColumns + `)
VALUES (:id, :day_schedule_id, :period_number, :start_time, :end_time, :subject_id, :teacher_id, :location, :notes, :created_at)`
	for _, period := range submission.Periods {
		record := models.DaySchedulePeriodRecord{
			ID:            uuid.NewString(),
			DayScheduleID: id,
			PeriodNumber:  period.PeriodNumber,
			StartTime:     period.StartTime,
			EndTime:       period.EndTime,
			SubjectID:     period.SubjectID,
			TeacherID:     period.TeacherID,
			Location:      period.Location,
			Notes:         period.Notes,
			CreatedAt:     now,
		}
		if _, err = tx.NamedExecContext(ctx, insertPeriod, &record); err != nil {
			return "", fmt.Errorf("insert day schedule period: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save day schedule: %w", err)
	}
	return id, nil
}

// FindByID loads a stored day schedule header.
func (r *DayScheduleRepository) FindByID(ctx context.Context, id string) (*models.DayScheduleRecord, error) {
	query := `SELECT ` + dayScheduleColumns + ` FROM day_schedules WHERE id = $1`
	var record models.DayScheduleRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListPeriods returns the periods of a stored schedule ordered by period number.
func (r *DayScheduleRepository) ListPeriods(ctx context.Context, scheduleID string) ([]models.DaySchedulePeriodRecord, error) {
	query := `SELECT ` + periodColumns + ` FROM day_schedule_periods WHERE day_schedule_id = $1 ORDER BY period_number ASC`
	var periods []models.DaySchedulePeriodRecord
	if err := r.db.SelectContext(ctx, &periods, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list day schedule periods: %w", err)
	}
	return periods, nil
}

// List returns stored schedules with optional filtering and pagination.
func (r *DayScheduleRepository) List(ctx context.Context, filter models.DayScheduleFilter) ([]models.DayScheduleRecord, int, error) {
	base := "FROM day_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	// day_of_week is text, so order by the weekday position instead of alphabetically.
	query := fmt.Sprintf(`SELECT %s %s ORDER BY academic_year DESC, array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY'], day_of_week) ASC LIMIT %d OFFSET %d`, dayScheduleColumns, base, size, offset)
	var records []models.DayScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list day schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count day schedules: %w", err)
	}
	return records, total, nil
}

// Delete removes a stored schedule; periods cascade. It returns sql.ErrNoRows when nothing was deleted.
func (r *DayScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM day_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete day schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete day schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
