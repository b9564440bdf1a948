package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/planner"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const catalogCachePrefix = "timetable:catalog:"

type catalogClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListSubjectIDs(ctx context.Context, classID string) ([]string, error)
}

type catalogSubjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type catalogTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListQualifications(ctx context.Context) ([]models.TeacherSubject, error)
}

// CatalogService assembles the reference data a class schedule is checked against.
type CatalogService struct {
	classes  catalogClassReader
	subjects catalogSubjectReader
	teachers catalogTeacherReader
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the catalog loader. cache may be nil.
func NewCatalogService(classes catalogClassReader, subjects catalogSubjectReader, teachers catalogTeacherReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		classes:  classes,
		subjects: subjects,
		teachers: teachers,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func catalogKey(classID string) string {
	return catalogCachePrefix + classID
}

// Snapshot returns the catalog for a single class, served from cache when possible.
func (s *CatalogService) Snapshot(ctx context.Context, classID string) (models.TimetableCatalog, error) {
	var snapshot models.TimetableCatalog
	if hit, err := s.cache.Get(ctx, catalogKey(classID), &snapshot); err == nil && hit {
		return snapshot, nil
	}

	snapshot, err := s.load(ctx, classID)
	if err != nil {
		return models.TimetableCatalog{}, err
	}
	_ = s.cache.Set(ctx, catalogKey(classID), snapshot, s.ttl)
	return snapshot, nil
}

// Load builds a planner catalog for the class.
func (s *CatalogService) Load(ctx context.Context, classID string) (*planner.Catalog, error) {
	snapshot, err := s.Snapshot(ctx, classID)
	if err != nil {
		return nil, err
	}
	return planner.NewCatalog(snapshot), nil
}

// Refresh reads the class catalog from the database, bypassing and then replacing
// any cached copy.
func (s *CatalogService) Refresh(ctx context.Context, classID string) (*planner.Catalog, error) {
	if err := s.Invalidate(ctx, classID); err != nil {
		s.logger.Warn("stale catalog left in cache", zap.String("class_id", classID), zap.Error(err))
	}
	snapshot, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, catalogKey(classID), snapshot, s.ttl)
	return planner.NewCatalog(snapshot), nil
}

// Invalidate drops the cached catalog of a class.
func (s *CatalogService) Invalidate(ctx context.Context, classID string) error {
	return s.cache.Delete(ctx, catalogKey(classID))
}

// InvalidateAll drops every cached class catalog.
func (s *CatalogService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, catalogCachePrefix+"*"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear catalog cache")
	}
	return nil
}

func (s *CatalogService) load(ctx context.Context, classID string) (models.TimetableCatalog, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TimetableCatalog{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return models.TimetableCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	allowed, err := s.classes.ListSubjectIDs(ctx, classID)
	if err != nil {
		return models.TimetableCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return models.TimetableCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return models.TimetableCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	qualifications, err := s.teachers.ListQualifications(ctx)
	if err != nil {
		return models.TimetableCatalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher qualifications")
	}

	byTeacher := make(map[string][]string, len(teachers))
	for _, q := range qualifications {
		byTeacher[q.TeacherID] = append(byTeacher[q.TeacherID], q.SubjectID)
	}
	teacherCatalog := make([]models.TeacherCatalog, 0, len(teachers))
	for _, teacher := range teachers {
		teacherCatalog = append(teacherCatalog, models.TeacherCatalog{Teacher: teacher, SubjectIDs: byTeacher[teacher.ID]})
	}

	s.logger.Debug("timetable catalog loaded",
		zap.String("class_id", classID),
		zap.Int("subjects", len(subjects)),
		zap.Int("teachers", len(teacherCatalog)),
	)

	return models.TimetableCatalog{
		Classes:  []models.ClassCatalog{{Class: *class, SubjectIDs: allowed}},
		Teachers: teacherCatalog,
		Subjects: subjects,
	}, nil
}
