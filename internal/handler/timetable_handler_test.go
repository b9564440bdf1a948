package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetablePlannerMock struct {
	draft       *models.TimetableDraft
	err         error
	createReq   dto.CreateDraftRequest
	updateIndex int
	updateReq   dto.UpdatePeriodRequest
	teacherID   string
	listQuery   dto.DayScheduleQuery
	submitted   string
	deleted     string
	refreshed   string
	cleared     bool
}

func (m *timetablePlannerMock) CreateDraft(ctx context.Context, req dto.CreateDraftRequest) (*models.TimetableDraft, error) {
	m.createReq = req
	return m.draft, m.err
}

func (m *timetablePlannerMock) EditSchedule(ctx context.Context, scheduleID string) (*models.TimetableDraft, error) {
	return m.draft, m.err
}

func (m *timetablePlannerMock) GetDraft(ctx context.Context, draftID string) (*models.TimetableDraft, error) {
	return m.draft, m.err
}

func (m *timetablePlannerMock) DiscardDraft(ctx context.Context, draftID string) error {
	return m.err
}

func (m *timetablePlannerMock) UpdatePeriod(ctx context.Context, draftID string, index int, req dto.UpdatePeriodRequest) (*models.TimetableDraft, error) {
	m.updateIndex = index
	m.updateReq = req
	return m.draft, m.err
}

func (m *timetablePlannerMock) ChangeDay(ctx context.Context, draftID string, req dto.ChangeDayRequest) (*models.TimetableDraft, error) {
	return m.draft, m.err
}

func (m *timetablePlannerMock) UpdateValidity(ctx context.Context, draftID string, req dto.ValidityRequest) (*models.TimetableDraft, error) {
	return m.draft, m.err
}

func (m *timetablePlannerMock) AvailableSubjects(ctx context.Context, draftID, teacherID string) (*dto.AvailableSubjectsResponse, error) {
	m.teacherID = teacherID
	return &dto.AvailableSubjectsResponse{TeacherID: teacherID, Subjects: []models.Subject{{ID: "math", Name: "Mathematics"}}}, m.err
}

func (m *timetablePlannerMock) SubmitDraft(ctx context.Context, draftID string) (*dto.SubmitDraftResponse, error) {
	m.submitted = draftID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SubmitDraftResponse{ScheduleID: "sched-1"}, nil
}

func (m *timetablePlannerMock) ListByClass(ctx context.Context, classID string, query dto.DayScheduleQuery) ([]models.DayScheduleRecord, *models.Pagination, error) {
	m.listQuery = query
	rows := []models.DayScheduleRecord{{ID: "sched-1", ClassID: classID, DayOfWeek: models.Monday}}
	return rows, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, m.err
}

func (m *timetablePlannerMock) GetSchedule(ctx context.Context, scheduleID string) (*models.DayScheduleDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DayScheduleDetail{DayScheduleRecord: models.DayScheduleRecord{ID: scheduleID}}, nil
}

func (m *timetablePlannerMock) DeleteSchedule(ctx context.Context, scheduleID string) error {
	m.deleted = scheduleID
	return m.err
}

func (m *timetablePlannerMock) RefreshCatalog(ctx context.Context, classID string) error {
	m.refreshed = classID
	return m.err
}

func (m *timetablePlannerMock) ClearCatalogCache(ctx context.Context) error {
	m.cleared = true
	return m.err
}

type envelopeBody struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func newTimetableRouter(mock *timetablePlannerMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &TimetableHandler{service: mock}
	handler.Register(router.Group("/api/v1"))
	return router
}

func perform(t *testing.T, router *gin.Engine, method, path string, body []byte) (*httptest.ResponseRecorder, envelopeBody) {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope envelopeBody
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func sampleHandlerDraft() *models.TimetableDraft {
	return &models.TimetableDraft{
		ID: "draft-1",
		Schedule: models.DaySchedule{
			ClassID: "class-10a",
			Day:     models.Monday,
			Mode:    models.ModeCreate,
			Periods: []models.Period{{PeriodNumber: 1, StartTime: "08:00", EndTime: "08:45"}},
		},
	}
}

func TestTimetableHandlerCreateDraft(t *testing.T) {
	mock := &timetablePlannerMock{draft: sampleHandlerDraft()}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodPost, "/api/v1/timetables/drafts", []byte(`{"classId":"class-10a","day":"TUESDAY","periodCount":6}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "class-10a", mock.createReq.ClassID)
	assert.Equal(t, "TUESDAY", mock.createReq.Day)
	assert.Equal(t, 6, mock.createReq.PeriodCount)
	assert.Contains(t, string(body.Data), `"id":"draft-1"`)
}

func TestTimetableHandlerCreateDraftInvalidPayload(t *testing.T) {
	router := newTimetableRouter(&timetablePlannerMock{})

	w, body := perform(t, router, http.MethodPost, "/api/v1/timetables/drafts", []byte(`{"classId":`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, body.Error.Code)
}

func TestTimetableHandlerUpdatePeriod(t *testing.T) {
	mock := &timetablePlannerMock{draft: sampleHandlerDraft()}
	router := newTimetableRouter(mock)

	w, _ := perform(t, router, http.MethodPatch, "/api/v1/timetables/drafts/draft-1/periods/2", []byte(`{"field":"teacher_id","value":"t1"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mock.updateIndex)
	assert.Equal(t, dto.UpdatePeriodRequest{Field: "teacher_id", Value: "t1"}, mock.updateReq)
}

func TestTimetableHandlerUpdatePeriodRejectedReturnsDraft(t *testing.T) {
	conflict := appErrors.WithDetails(appErrors.Clone(appErrors.ErrUnprocessable, "subject already assigned to another period"), map[string]interface{}{"rule": "SUBJECT_DUPLICATE"})
	mock := &timetablePlannerMock{draft: sampleHandlerDraft(), err: conflict}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodPatch, "/api/v1/timetables/drafts/draft-1/periods/0", []byte(`{"field":"subject_id","value":"math"}`))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "TIMETABLE_CONFLICT", body.Error.Code)
	assert.Equal(t, "subject already assigned to another period", body.Error.Message)
	assert.Contains(t, string(body.Data), `"id":"draft-1"`)
	assert.Contains(t, w.Body.String(), "SUBJECT_DUPLICATE")
}

func TestTimetableHandlerUpdatePeriodBadIndex(t *testing.T) {
	router := newTimetableRouter(&timetablePlannerMock{})

	w, _ := perform(t, router, http.MethodPatch, "/api/v1/timetables/drafts/draft-1/periods/first", []byte(`{"field":"notes","value":"x"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerAvailableSubjects(t *testing.T) {
	mock := &timetablePlannerMock{}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodGet, "/api/v1/timetables/drafts/draft-1/subjects?teacherId=t1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", mock.teacherID)
	assert.Contains(t, string(body.Data), "Mathematics")
}

func TestTimetableHandlerSubmit(t *testing.T) {
	mock := &timetablePlannerMock{}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodPost, "/api/v1/timetables/drafts/draft-1/submit", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "draft-1", mock.submitted)
	assert.JSONEq(t, `{"scheduleId":"sched-1"}`, string(body.Data))
}

func TestTimetableHandlerSubmitExternalFailure(t *testing.T) {
	mock := &timetablePlannerMock{err: appErrors.Wrap(errors.New("timeout"), appErrors.ErrExternal.Code, appErrors.ErrExternal.Status, "timeout")}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodPost, "/api/v1/timetables/drafts/draft-1/submit", nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "timeout", body.Error.Message)
}

func TestTimetableHandlerListByClass(t *testing.T) {
	mock := &timetablePlannerMock{}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodGet, "/api/v1/classes/class-10a/timetables?day=MONDAY&page=1&pageSize=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.DayScheduleQuery{Day: "MONDAY", Page: 1, PageSize: 20}, mock.listQuery)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 1, body.Pagination.TotalCount)
}

func TestTimetableHandlerGetScheduleNotFound(t *testing.T) {
	mock := &timetablePlannerMock{err: appErrors.Clone(appErrors.ErrNotFound, "day schedule not found")}
	router := newTimetableRouter(mock)

	w, body := perform(t, router, http.MethodGet, "/api/v1/timetables/sched-9", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "day schedule not found", body.Error.Message)
}

func TestTimetableHandlerDeleteSchedule(t *testing.T) {
	mock := &timetablePlannerMock{}
	router := newTimetableRouter(mock)

	w, _ := perform(t, router, http.MethodDelete, "/api/v1/timetables/sched-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sched-1", mock.deleted)
}

func TestTimetableHandlerCatalogRoutes(t *testing.T) {
	mock := &timetablePlannerMock{}
	router := newTimetableRouter(mock)

	w, _ := perform(t, router, http.MethodPost, "/api/v1/classes/class-10a/catalog/refresh", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "class-10a", mock.refreshed)

	w, _ = perform(t, router, http.MethodDelete, "/api/v1/catalog/cache", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mock.cleared)

	mock.err = appErrors.Clone(appErrors.ErrNotFound, "class not found")
	w, body := perform(t, router, http.MethodPost, "/api/v1/classes/missing/catalog/refresh", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "class not found", body.Error.Message)
}
