package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetablePlanner interface {
	CreateDraft(ctx context.Context, req dto.CreateDraftRequest) (*models.TimetableDraft, error)
	EditSchedule(ctx context.Context, scheduleID string) (*models.TimetableDraft, error)
	GetDraft(ctx context.Context, draftID string) (*models.TimetableDraft, error)
	DiscardDraft(ctx context.Context, draftID string) error
	UpdatePeriod(ctx context.Context, draftID string, index int, req dto.UpdatePeriodRequest) (*models.TimetableDraft, error)
	ChangeDay(ctx context.Context, draftID string, req dto.ChangeDayRequest) (*models.TimetableDraft, error)
	UpdateValidity(ctx context.Context, draftID string, req dto.ValidityRequest) (*models.TimetableDraft, error)
	AvailableSubjects(ctx context.Context, draftID, teacherID string) (*dto.AvailableSubjectsResponse, error)
	SubmitDraft(ctx context.Context, draftID string) (*dto.SubmitDraftResponse, error)
	ListByClass(ctx context.Context, classID string, query dto.DayScheduleQuery) ([]models.DayScheduleRecord, *models.Pagination, error)
	GetSchedule(ctx context.Context, scheduleID string) (*models.DayScheduleDetail, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
	RefreshCatalog(ctx context.Context, classID string) error
	ClearCatalogCache(ctx context.Context) error
}

// TimetableHandler exposes the day schedule planner.
type TimetableHandler struct {
	service timetablePlanner
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Register mounts the timetable routes on the group.
func (h *TimetableHandler) Register(group *gin.RouterGroup) {
	group.POST("/timetables/drafts", h.CreateDraft)
	group.GET("/timetables/drafts/:draftId", h.GetDraft)
	group.DELETE("/timetables/drafts/:draftId", h.DiscardDraft)
	group.PATCH("/timetables/drafts/:draftId/periods/:index", h.UpdatePeriod)
	group.PUT("/timetables/drafts/:draftId/day", h.ChangeDay)
	group.PUT("/timetables/drafts/:draftId/validity", h.UpdateValidity)
	group.GET("/timetables/drafts/:draftId/subjects", h.AvailableSubjects)
	group.POST("/timetables/drafts/:draftId/submit", h.Submit)
	group.POST("/timetables/:id/edit", h.EditSchedule)
	group.GET("/timetables/:id", h.GetSchedule)
	group.DELETE("/timetables/:id", h.DeleteSchedule)
	group.GET("/classes/:id/timetables", h.ListByClass)
	group.POST("/classes/:id/catalog/refresh", h.RefreshCatalog)
	group.DELETE("/catalog/cache", h.ClearCatalogCache)
}

// CreateDraft godoc
// @Summary Open a day schedule draft
// @Description Lays out empty periods with derived default times for the class and weekday.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CreateDraftRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/drafts [post]
func (h *TimetableHandler) CreateDraft(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draft payload"))
		return
	}
	draft, err := h.service.CreateDraft(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// EditSchedule godoc
// @Summary Reopen a stored day schedule for editing
// @Tags Timetable
// @Produce json
// @Param id path string true "Day schedule ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id}/edit [post]
func (h *TimetableHandler) EditSchedule(c *gin.Context) {
	draft, err := h.service.EditSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// GetDraft godoc
// @Summary Get a draft
// @Tags Timetable
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/drafts/{draftId} [get]
func (h *TimetableHandler) GetDraft(c *gin.Context) {
	draft, err := h.service.GetDraft(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// DiscardDraft godoc
// @Summary Discard a draft
// @Tags Timetable
// @Param draftId path string true "Draft ID"
// @Success 204
// @Router /timetables/drafts/{draftId} [delete]
func (h *TimetableHandler) DiscardDraft(c *gin.Context) {
	if err := h.service.DiscardDraft(c.Request.Context(), c.Param("draftId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdatePeriod godoc
// @Summary Set one field of a period
// @Description Fields: teacher_id, subject_id, start_time, end_time, location, notes. Setting a teacher clears the subject. A rejected edit returns 422 with the unchanged draft.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param index path int true "0-based period index"
// @Param payload body dto.UpdatePeriodRequest true "Field update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/periods/{index} [patch]
func (h *TimetableHandler) UpdatePeriod(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period index must be a number"))
		return
	}
	var req dto.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	draft, err := h.service.UpdatePeriod(c.Request.Context(), c.Param("draftId"), index, req)
	respondDraft(c, draft, err)
}

// ChangeDay godoc
// @Summary Move a draft to another weekday
// @Tags Timetable
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body dto.ChangeDayRequest true "Weekday"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/day [put]
func (h *TimetableHandler) ChangeDay(c *gin.Context) {
	var req dto.ChangeDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day payload"))
		return
	}
	draft, err := h.service.ChangeDay(c.Request.Context(), c.Param("draftId"), req)
	respondDraft(c, draft, err)
}

// UpdateValidity godoc
// @Summary Set recurrence, effective window and status of an edited schedule
// @Tags Timetable
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param payload body dto.ValidityRequest true "Validity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/validity [put]
func (h *TimetableHandler) UpdateValidity(c *gin.Context) {
	var req dto.ValidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validity payload"))
		return
	}
	draft, err := h.service.UpdateValidity(c.Request.Context(), c.Param("draftId"), req)
	respondDraft(c, draft, err)
}

// AvailableSubjects godoc
// @Summary List subjects a teacher may be assigned in the draft's class
// @Tags Timetable
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/subjects [get]
func (h *TimetableHandler) AvailableSubjects(c *gin.Context) {
	result, err := h.service.AvailableSubjects(c.Request.Context(), c.Param("draftId"), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Submit godoc
// @Summary Store a draft as a day schedule
// @Description Periods without both times are left out. Every other period needs a teacher and a subject.
// @Tags Timetable
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /timetables/drafts/{draftId}/submit [post]
func (h *TimetableHandler) Submit(c *gin.Context) {
	result, err := h.service.SubmitDraft(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListByClass godoc
// @Summary List stored day schedules of a class
// @Tags Timetable
// @Produce json
// @Param id path string true "Class ID"
// @Param day query string false "Weekday"
// @Param academicYear query string false "Academic year"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/timetables [get]
func (h *TimetableHandler) ListByClass(c *gin.Context) {
	var query dto.DayScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	rows, pagination, err := h.service.ListByClass(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetSchedule godoc
// @Summary Get a stored day schedule with its periods
// @Tags Timetable
// @Produce json
// @Param id path string true "Day schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) GetSchedule(c *gin.Context) {
	detail, err := h.service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// DeleteSchedule godoc
// @Summary Delete a stored day schedule
// @Tags Timetable
// @Param id path string true "Day schedule ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) DeleteSchedule(c *gin.Context) {
	if err := h.service.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RefreshCatalog godoc
// @Summary Reload a class catalog
// @Description Re-reads the class subjects and teacher qualifications used to check edits.
// @Tags Timetable
// @Param id path string true "Class ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/catalog/refresh [post]
func (h *TimetableHandler) RefreshCatalog(c *gin.Context) {
	if err := h.service.RefreshCatalog(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearCatalogCache godoc
// @Summary Drop every cached class catalog
// @Tags Timetable
// @Success 204
// @Failure 500 {object} response.Envelope
// @Router /catalog/cache [delete]
func (h *TimetableHandler) ClearCatalogCache(c *gin.Context) {
	if err := h.service.ClearCatalogCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respondDraft writes the draft, attaching it to error responses when the edit was rejected.
func respondDraft(c *gin.Context, draft *models.TimetableDraft, err error) {
	if err != nil {
		if draft != nil {
			response.Error(c, err, draft)
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}
