package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type recordingPersister struct {
	calls []models.TimetableSubmission
	err   error
}

func (r *recordingPersister) Persist(ctx context.Context, submission models.TimetableSubmission) (string, error) {
	r.calls = append(r.calls, submission)
	if r.err != nil {
		return "", r.err
	}
	return "schedule-1", nil
}

// assignedSchedule fills the first three periods and clears the times of the rest.
func assignedSchedule(t *testing.T) models.DaySchedule {
	t.Helper()
	p := New(testCatalog())
	schedule := newTestSchedule(models.ModeCreate)
	schedule = mustSet(t, p, schedule, 0, FieldTeacher, "t1")
	schedule = mustSet(t, p, schedule, 0, FieldSubject, "math")
	schedule = mustSet(t, p, schedule, 1, FieldTeacher, "t1")
	schedule = mustSet(t, p, schedule, 1, FieldSubject, "physics")
	schedule = mustSet(t, p, schedule, 2, FieldTeacher, "t2")
	schedule = mustSet(t, p, schedule, 2, FieldSubject, "biology")
	for i := 3; i < len(schedule.Periods); i++ {
		schedule = mustSet(t, p, schedule, i, FieldStartTime, "")
		schedule = mustSet(t, p, schedule, i, FieldEndTime, "")
	}
	return schedule
}

func TestSubmitExcludesUnusedPeriods(t *testing.T) {
	schedule := assignedSchedule(t)
	persister := &recordingPersister{}

	id, err := Submit(context.Background(), schedule, persister)
	require.NoError(t, err)
	assert.Equal(t, "schedule-1", id)
	require.Len(t, persister.calls, 1)

	payload := persister.calls[0]
	assert.Equal(t, "class-10a", payload.ClassID)
	assert.Equal(t, models.Monday, payload.Day)
	assert.Equal(t, "2024-2025", payload.AcademicYear)
	require.Len(t, payload.Periods, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{payload.Periods[0].PeriodNumber, payload.Periods[1].PeriodNumber, payload.Periods[2].PeriodNumber})
}

func TestSubmitRejectsIncompletePeriod(t *testing.T) {
	p := New(testCatalog())
	schedule := assignedSchedule(t)
	schedule = mustSet(t, p, schedule, 2, FieldTeacher, "")
	schedule.Periods[2].SubjectID = "biology"
	persister := &recordingPersister{}

	_, err := Submit(context.Background(), schedule, persister)
	conflict := requireRule(t, err, RuleIncompletePeriod)
	assert.Equal(t, 3, conflict.PeriodNumber)
	assert.Equal(t, "period 3: a teacher and a subject are both required", conflict.Error())
	assert.Empty(t, persister.calls)
}

func TestGateRejectsInvertedValidityWindow(t *testing.T) {
	schedule := assignedSchedule(t)
	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	schedule.EffectiveFrom = &from
	schedule.EffectiveUntil = &until

	_, err := Gate(schedule)
	requireRule(t, err, RuleValidityWindow)

	schedule.EffectiveUntil = &from
	submission, err := Gate(schedule)
	require.NoError(t, err)
	assert.Equal(t, from, *submission.EffectiveUntil)
}

func TestGateRejectsEmptySchedule(t *testing.T) {
	schedule := newTestSchedule(models.ModeCreate)
	for i := range schedule.Periods {
		schedule.Periods[i].StartTime = ""
	}
	_, err := Gate(schedule)
	requireRule(t, err, RuleNoPeriods)
}

func TestGateIgnoresPeriodWithOnlyStartTime(t *testing.T) {
	schedule := assignedSchedule(t)
	schedule.Periods[4].StartTime = "12:00"

	submission, err := Gate(schedule)
	require.NoError(t, err)
	assert.Len(t, submission.Periods, 3)
}

func TestSubmitPropagatesTypedPersisterError(t *testing.T) {
	typed := appErrors.Clone(appErrors.ErrConflict, "schedule already exists")
	persister := &recordingPersister{err: typed}

	_, err := Submit(context.Background(), assignedSchedule(t), persister)
	require.Error(t, err)
	assert.Same(t, typed, err)
}

func TestSubmitWrapsUntypedPersisterError(t *testing.T) {
	persister := &recordingPersister{err: errors.New("connection reset by peer")}

	_, err := Submit(context.Background(), assignedSchedule(t), persister)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrExternal.Code, appErr.Code)
	assert.Equal(t, "connection reset by peer", appErr.Message)

	persister.err = errors.New("")
	_, err = Submit(context.Background(), assignedSchedule(t), persister)
	assert.Equal(t, "failed to save timetable", appErrors.FromError(err).Message)
}

func TestPersisterFunc(t *testing.T) {
	var seen models.TimetableSubmission
	fn := PersisterFunc(func(ctx context.Context, submission models.TimetableSubmission) (string, error) {
		seen = submission
		return "ok", nil
	})
	id, err := Submit(context.Background(), assignedSchedule(t), fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", id)
	assert.Equal(t, "class-10a", seen.ClassID)
}

func TestPlannerSubmitRechecksCatalog(t *testing.T) {
	schedule := assignedSchedule(t)
	narrowed := NewCatalog(models.TimetableCatalog{
		Classes: []models.ClassCatalog{
			{Class: models.Class{ID: "class-10a"}, SubjectIDs: []string{"math", "physics"}},
		},
		Teachers: []models.TeacherCatalog{
			{Teacher: models.Teacher{ID: "t1"}, SubjectIDs: []string{"math", "physics"}},
			{Teacher: models.Teacher{ID: "t2"}, SubjectIDs: []string{"biology"}},
		},
	})
	persister := &recordingPersister{}

	_, err := New(narrowed).Submit(context.Background(), schedule, persister)
	conflict := requireRule(t, err, RuleSubjectNotInClass)
	assert.Equal(t, 3, conflict.PeriodNumber)
	assert.Empty(t, persister.calls)

	id, err := New(testCatalog()).Submit(context.Background(), schedule, persister)
	require.NoError(t, err)
	assert.Equal(t, "schedule-1", id)
	assert.Len(t, persister.calls, 1)
}

func TestPlannerSubmitGatesBeforeCatalogChecks(t *testing.T) {
	schedule := assignedSchedule(t)
	schedule.Periods[2].TeacherID = ""
	persister := &recordingPersister{}

	_, err := New(NewCatalog(models.TimetableCatalog{})).Submit(context.Background(), schedule, persister)
	requireRule(t, err, RuleIncompletePeriod)
	assert.Empty(t, persister.calls)
}
