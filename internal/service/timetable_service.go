package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/planner"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type dayScheduleStore interface {
	Save(ctx context.Context, scheduleID string, submission models.TimetableSubmission) (string, error)
	FindByID(ctx context.Context, id string) (*models.DayScheduleRecord, error)
	ListPeriods(ctx context.Context, scheduleID string) ([]models.DaySchedulePeriodRecord, error)
	List(ctx context.Context, filter models.DayScheduleFilter) ([]models.DayScheduleRecord, int, error)
	Delete(ctx context.Context, id string) error
}

type catalogLoader interface {
	Load(ctx context.Context, classID string) (*planner.Catalog, error)
	Refresh(ctx context.Context, classID string) (*planner.Catalog, error)
	InvalidateAll(ctx context.Context) error
}

// TimetableConfig carries the planner defaults.
type TimetableConfig struct {
	Grid        planner.TimeGrid
	PeriodCount int
	Location    string
	DraftTTL    time.Duration
}

// TimetableService drives the day schedule draft lifecycle: open, edit, submit.
type TimetableService struct {
	schedules dayScheduleStore
	catalogs  catalogLoader
	drafts    draftStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
	now       func() time.Time
}

// NewTimetableService wires the timetable planner. With a nil sharedDrafts repository
// drafts live in process memory.
func NewTimetableService(
	schedules dayScheduleStore,
	catalogs catalogLoader,
	sharedDrafts CacheRepository,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 2 * time.Hour
	}
	if cfg.Grid.PeriodMinutes <= 0 {
		cfg.Grid = planner.DefaultGrid
	}
	if cfg.PeriodCount <= 0 {
		cfg.PeriodCount = planner.DefaultPeriodCount
	}
	if cfg.Location == "" {
		cfg.Location = planner.DefaultLocation
	}

	var drafts draftStore = newMemoryDraftStore(cfg.DraftTTL)
	if sharedDrafts != nil {
		drafts = newRedisDraftStore(sharedDrafts, cfg.DraftTTL)
	}

	return &TimetableService{
		schedules: schedules,
		catalogs:  catalogs,
		drafts:    drafts,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateDraft lays out a fresh schedule for the class and stores it as a draft.
func (s *TimetableService) CreateDraft(ctx context.Context, req dto.CreateDraftRequest) (*models.TimetableDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.catalogs.Load(ctx, req.ClassID); err != nil {
		return nil, err
	}

	day := models.Weekdays[0]
	if req.Day != "" {
		day, _ = models.ParseWeekday(req.Day)
	}
	count := req.PeriodCount
	if count <= 0 {
		count = s.cfg.PeriodCount
	}

	schedule := planner.NewDaySchedule(planner.FactoryOptions{
		ClassID:      req.ClassID,
		Day:          day,
		AcademicYear: req.AcademicYear,
		PeriodCount:  count,
		Grid:         s.cfg.Grid,
		Location:     s.cfg.Location,
		Mode:         models.ModeCreate,
		Now:          s.now,
	})
	return s.openDraft(ctx, "", schedule)
}

// EditSchedule reopens a stored day schedule as an edit-mode draft. Stored periods
// fill slots by period number; slots without a stored period keep empty times. The
// class catalog is re-read so edits are checked against current reference data.
func (s *TimetableService) EditSchedule(ctx context.Context, scheduleID string) (*models.TimetableDraft, error) {
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, mapScheduleError(err, "failed to load day schedule")
	}
	if _, err := s.catalogs.Refresh(ctx, record.ClassID); err != nil {
		return nil, err
	}
	periods, err := s.schedules.ListPeriods(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule periods")
	}

	count := s.cfg.PeriodCount
	for _, period := range periods {
		if period.PeriodNumber > count {
			count = period.PeriodNumber
		}
	}

	schedule := planner.NewDaySchedule(planner.FactoryOptions{
		ClassID:      record.ClassID,
		Day:          record.DayOfWeek,
		AcademicYear: record.AcademicYear,
		PeriodCount:  count,
		Grid:         s.cfg.Grid,
		Location:     s.cfg.Location,
		Mode:         models.ModeEdit,
		Now:          s.now,
	})
	for i := range schedule.Periods {
		schedule.Periods[i].StartTime = ""
		schedule.Periods[i].EndTime = ""
	}
	for _, stored := range periods {
		if stored.PeriodNumber < 1 {
			continue
		}
		slot := &schedule.Periods[stored.PeriodNumber-1]
		slot.StartTime = stored.StartTime
		slot.EndTime = stored.EndTime
		slot.SubjectID = stored.SubjectID
		slot.TeacherID = stored.TeacherID
		slot.Notes = stored.Notes
		if stored.Location != "" {
			slot.Location = stored.Location
		}
	}

	recurring := record.IsRecurring
	status := record.Status
	schedule.IsRecurring = &recurring
	schedule.EffectiveFrom = record.EffectiveFrom
	schedule.EffectiveUntil = record.EffectiveUntil
	schedule.Status = &status

	return s.openDraft(ctx, record.ID, schedule)
}

// GetDraft returns a stored draft.
func (s *TimetableService) GetDraft(ctx context.Context, draftID string) (*models.TimetableDraft, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// DiscardDraft drops a draft without saving it.
func (s *TimetableService) DiscardDraft(ctx context.Context, draftID string) error {
	if _, err := s.loadDraft(ctx, draftID); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discard draft")
	}
	return nil
}

// UpdatePeriod sets one field of the period at the 0-based index. A rejected edit
// returns the unchanged draft alongside the error.
func (s *TimetableService) UpdatePeriod(ctx context.Context, draftID string, index int, req dto.UpdatePeriodRequest) (*models.TimetableDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogs.Load(ctx, draft.Schedule.ClassID)
	if err != nil {
		return nil, err
	}

	field, ok := planner.ParseField(req.Field)
	if !ok {
		field = planner.Field(req.Field)
	}
	updated, err := planner.New(catalog).SetField(draft.Schedule, index, field, req.Value)
	s.metrics.RecordMutation(string(field), err == nil)
	if err != nil {
		s.logger.Debug("period edit rejected",
			zap.String("draft_id", draftID),
			zap.Int("index", index),
			zap.String("field", string(field)),
			zap.Error(err),
		)
		return &draft, err
	}

	draft.Schedule = updated
	if err := s.saveDraft(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// ChangeDay moves the draft to another weekday.
func (s *TimetableService) ChangeDay(ctx context.Context, draftID string, req dto.ChangeDayRequest) (*models.TimetableDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	updated, err := planner.New(nil).SetDay(draft.Schedule, models.Weekday(req.Day))
	s.metrics.RecordMutation("day", err == nil)
	if err != nil {
		return &draft, err
	}
	draft.Schedule = updated
	if err := s.saveDraft(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// UpdateValidity replaces the recurrence, effective window and status of an edit-mode
// draft. The window order is checked on submission.
func (s *TimetableService) UpdateValidity(ctx context.Context, draftID string, req dto.ValidityRequest) (*models.TimetableDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Schedule.Mode != models.ModeEdit {
		return &draft, appErrors.Clone(appErrors.ErrValidation, "validity can only be changed on an edited schedule")
	}

	schedule := draft.Schedule.Clone()
	schedule.IsRecurring = req.IsRecurring
	schedule.EffectiveFrom = req.EffectiveFrom
	schedule.EffectiveUntil = req.EffectiveUntil
	schedule.Status = nil
	if req.Status != nil {
		status := models.DayScheduleStatus(*req.Status)
		schedule.Status = &status
	}
	s.metrics.RecordMutation("validity", true)

	draft.Schedule = schedule
	if err := s.saveDraft(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// AvailableSubjects lists the subjects the teacher may be given in this draft's class.
func (s *TimetableService) AvailableSubjects(ctx context.Context, draftID, teacherID string) (*dto.AvailableSubjectsResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogs.Load(ctx, draft.Schedule.ClassID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailableSubjectsResponse{
		TeacherID: teacherID,
		Subjects:  catalog.AvailableSubjectsForClass(draft.Schedule.ClassID, teacherID),
	}, nil
}

// SubmitDraft gates the draft, re-checks every used period against a freshly read
// catalog and stores it in one transaction. The draft is removed once stored and
// kept on any failure.
func (s *TimetableService) SubmitDraft(ctx context.Context, draftID string) (*dto.SubmitDraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogs.Refresh(ctx, draft.Schedule.ClassID)
	if err != nil {
		s.metrics.RecordSubmission("failed")
		return nil, err
	}

	persister := planner.PersisterFunc(func(ctx context.Context, submission models.TimetableSubmission) (string, error) {
		id, err := s.schedules.Save(ctx, draft.ScheduleID, submission)
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, repository.ErrDuplicateDaySchedule):
			return "", appErrors.Clone(appErrors.ErrConflict, "a schedule already exists for this class, day and academic year")
		case errors.Is(err, sql.ErrNoRows):
			return "", appErrors.Clone(appErrors.ErrNotFound, "day schedule not found")
		default:
			return "", err
		}
	})

	id, err := planner.New(catalog).Submit(ctx, draft.Schedule, persister)
	if err != nil {
		result := "failed"
		if errors.Is(err, appErrors.ErrUnprocessable) || errors.Is(err, appErrors.ErrValidation) {
			result = "rejected"
		}
		s.metrics.RecordSubmission(result)
		s.logger.Warn("timetable submission not stored",
			zap.String("draft_id", draftID),
			zap.String("result", result),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.RecordSubmission("accepted")

	if err := s.drafts.Delete(ctx, draftID); err != nil {
		s.logger.Warn("failed to drop submitted draft", zap.String("draft_id", draftID), zap.Error(err))
	}
	s.logger.Info("timetable submitted",
		zap.String("schedule_id", id),
		zap.String("class_id", draft.Schedule.ClassID),
		zap.String("day", string(draft.Schedule.Day)),
	)
	return &dto.SubmitDraftResponse{ScheduleID: id}, nil
}

// RefreshCatalog re-reads the reference data of one class into the catalog cache.
func (s *TimetableService) RefreshCatalog(ctx context.Context, classID string) error {
	if _, err := s.catalogs.Refresh(ctx, classID); err != nil {
		return err
	}
	s.logger.Info("timetable catalog refreshed", zap.String("class_id", classID))
	return nil
}

// ClearCatalogCache drops the cached catalogs of every class.
func (s *TimetableService) ClearCatalogCache(ctx context.Context) error {
	if err := s.catalogs.InvalidateAll(ctx); err != nil {
		return err
	}
	s.logger.Info("timetable catalog cache cleared")
	return nil
}

// ListByClass returns stored schedules of a class.
func (s *TimetableService) ListByClass(ctx context.Context, classID string, query dto.DayScheduleQuery) ([]models.DayScheduleRecord, *models.Pagination, error) {
	filter := models.DayScheduleFilter{
		ClassID:      classID,
		AcademicYear: query.AcademicYear,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.Day != "" {
		day, ok := models.ParseWeekday(query.Day)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "day must be one of MONDAY to SATURDAY")
		}
		filter.DayOfWeek = day
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	rows, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day schedules")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// GetSchedule returns a stored schedule with its periods.
func (s *TimetableService) GetSchedule(ctx context.Context, scheduleID string) (*models.DayScheduleDetail, error) {
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, mapScheduleError(err, "failed to load day schedule")
	}
	periods, err := s.schedules.ListPeriods(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule periods")
	}
	if periods == nil {
		periods = []models.DaySchedulePeriodRecord{}
	}
	return &models.DayScheduleDetail{DayScheduleRecord: *record, Periods: periods}, nil
}

// DeleteSchedule removes a stored schedule.
func (s *TimetableService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		return mapScheduleError(err, "failed to delete day schedule")
	}
	s.logger.Info("day schedule deleted", zap.String("schedule_id", scheduleID))
	return nil
}

func (s *TimetableService) openDraft(ctx context.Context, scheduleID string, schedule models.DaySchedule) (*models.TimetableDraft, error) {
	now := s.now().UTC()
	draft := models.TimetableDraft{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		Schedule:   schedule,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store draft")
	}
	s.metrics.RecordDraftOpened(string(schedule.Mode))
	s.logger.Debug("timetable draft opened",
		zap.String("draft_id", draft.ID),
		zap.String("class_id", schedule.ClassID),
		zap.String("mode", string(schedule.Mode)),
	)
	return &draft, nil
}

func (s *TimetableService) loadDraft(ctx context.Context, draftID string) (models.TimetableDraft, error) {
	draft, ok, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return models.TimetableDraft{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	if !ok {
		return models.TimetableDraft{}, appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	}
	return draft, nil
}

func (s *TimetableService) saveDraft(ctx context.Context, draft *models.TimetableDraft) error {
	draft.UpdatedAt = s.now().UTC()
	if err := s.drafts.Save(ctx, *draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store draft")
	}
	return nil
}

func mapScheduleError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "day schedule not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
