package planner

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Persister stores an accepted submission atomically and returns the stored schedule id.
type Persister interface {
	Persist(ctx context.Context, submission models.TimetableSubmission) (string, error)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, submission models.TimetableSubmission) (string, error)

// Persist calls f.
func (f PersisterFunc) Persist(ctx context.Context, submission models.TimetableSubmission) (string, error) {
	return f(ctx, submission)
}

// Gate checks that a schedule can be stored and builds its payload. Periods without
// both times are unused and left out; every other period needs a teacher and a subject.
func Gate(schedule models.DaySchedule) (models.TimetableSubmission, error) {
	periods := make([]models.Period, 0, len(schedule.Periods))
	for _, period := range schedule.Periods {
		if !period.Populated() {
			continue
		}
		if period.TeacherID == "" || period.SubjectID == "" {
			return models.TimetableSubmission{}, rejected(&ConflictError{
				Rule:         RuleIncompletePeriod,
				Message:      "a teacher and a subject are both required",
				PeriodNumber: period.PeriodNumber,
			})
		}
		if err := checkTimeOrder(period); err != nil {
			return models.TimetableSubmission{}, err
		}
		periods = append(periods, period)
	}

	if len(periods) == 0 {
		return models.TimetableSubmission{}, rejected(&ConflictError{Rule: RuleNoPeriods, Message: "at least one period needs a start and end time"})
	}

	if schedule.EffectiveFrom != nil && schedule.EffectiveUntil != nil && schedule.EffectiveFrom.After(*schedule.EffectiveUntil) {
		return models.TimetableSubmission{}, rejected(&ConflictError{Rule: RuleValidityWindow, Message: "effective from date must not be after effective until date"})
	}

	clone := schedule.Clone()
	return models.TimetableSubmission{
		ClassID:        clone.ClassID,
		Day:            clone.Day,
		AcademicYear:   clone.AcademicYear,
		Periods:        periods,
		IsRecurring:    clone.IsRecurring,
		EffectiveFrom:  clone.EffectiveFrom,
		EffectiveUntil: clone.EffectiveUntil,
		Status:         clone.Status,
	}, nil
}

// Submit gates the schedule and hands the payload to the persister in a single call.
// Nothing is sent when the gate rejects. Typed persister errors pass through untouched;
// anything else is reported as an external failure carrying the persister's message.
func Submit(ctx context.Context, schedule models.DaySchedule, persister Persister) (string, error) {
	submission, err := Gate(schedule)
	if err != nil {
		return "", err
	}
	return persist(ctx, submission, persister)
}

// Submit is the package Submit with every used period re-checked against the
// planner's catalog before anything is persisted.
func (p *Planner) Submit(ctx context.Context, schedule models.DaySchedule, persister Persister) (string, error) {
	submission, err := Gate(schedule)
	if err != nil {
		return "", err
	}
	if err := p.Validate(schedule); err != nil {
		return "", err
	}
	return persist(ctx, submission, persister)
}

func persist(ctx context.Context, submission models.TimetableSubmission, persister Persister) (string, error) {
	id, err := persister.Persist(ctx, submission)
	if err != nil {
		return "", externalError(err)
	}
	return id, nil
}

func externalError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	message := err.Error()
	if message == "" {
		message = appErrors.ErrExternal.Message
	}
	return appErrors.Wrap(err, appErrors.ErrExternal.Code, appErrors.ErrExternal.Status, message)
}
