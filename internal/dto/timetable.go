package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// CreateDraftRequest opens a new day schedule draft for a class.
type CreateDraftRequest struct {
	ClassID      string `json:"classId" validate:"required"`
	Day          string `json:"day" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	AcademicYear string `json:"academicYear" validate:"omitempty,max=16"`
	PeriodCount  int    `json:"periodCount" validate:"omitempty,min=1,max=16"`
}

// UpdatePeriodRequest sets one field of one period. An empty value clears it.
type UpdatePeriodRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// ChangeDayRequest moves the draft to another weekday.
type ChangeDayRequest struct {
	Day string `json:"day" validate:"required"`
}

// ValidityRequest carries the edit-mode metadata of a stored schedule.
type ValidityRequest struct {
	IsRecurring    *bool      `json:"isRecurring"`
	EffectiveFrom  *time.Time `json:"effectiveFrom"`
	EffectiveUntil *time.Time `json:"effectiveUntil"`
	Status         *string    `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// SubmitDraftResponse reports the stored schedule id.
type SubmitDraftResponse struct {
	ScheduleID string `json:"scheduleId"`
}

// AvailableSubjectsResponse lists the subjects a teacher may be assigned in a draft.
type AvailableSubjectsResponse struct {
	TeacherID string           `json:"teacherId"`
	Subjects  []models.Subject `json:"subjects"`
}

// DayScheduleQuery filters stored schedules of a class.
type DayScheduleQuery struct {
	Day          string `form:"day"`
	AcademicYear string `form:"academicYear"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
}
