package models

import (
	"strings"
	"time"
)

// Weekday is a school day a class schedule can be planned for.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// Weekdays lists the plannable days in order. The first entry is the default day.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday normalises raw input into a Weekday.
func ParseWeekday(raw string) (Weekday, bool) {
	candidate := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	for _, day := range Weekdays {
		if day == candidate {
			return day, true
		}
	}
	return "", false
}

// ScheduleMode distinguishes a freshly laid out schedule from one reopened for editing.
type ScheduleMode string

const (
	ModeCreate ScheduleMode = "CREATE"
	ModeEdit   ScheduleMode = "EDIT"
)

// DayScheduleStatus is the publication state of a stored day schedule.
type DayScheduleStatus string

const (
	DayScheduleStatusActive   DayScheduleStatus = "ACTIVE"
	DayScheduleStatusInactive DayScheduleStatus = "INACTIVE"
)

// Period is one teaching slot within a day. Empty SubjectID/TeacherID mean unassigned.
type Period struct {
	PeriodNumber int    `json:"period_number"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SubjectID    string `json:"subject_id"`
	TeacherID    string `json:"teacher_id"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
}

// Populated reports whether both times are set, which makes the period part of a submission.
func (p Period) Populated() bool {
	return p.StartTime != "" && p.EndTime != ""
}

// DaySchedule is the aggregate under edit: every period of one class on one weekday.
type DaySchedule struct {
	ClassID        string             `json:"class_id"`
	Day            Weekday            `json:"day"`
	AcademicYear   string             `json:"academic_year"`
	Mode           ScheduleMode       `json:"mode"`
	Periods        []Period           `json:"periods"`
	IsRecurring    *bool              `json:"is_recurring,omitempty"`
	EffectiveFrom  *time.Time         `json:"effective_from,omitempty"`
	EffectiveUntil *time.Time         `json:"effective_until,omitempty"`
	Status         *DayScheduleStatus `json:"status,omitempty"`
}

// Clone deep-copies the schedule so a rejected edit never leaks into the original.
func (d DaySchedule) Clone() DaySchedule {
	clone := d
	clone.Periods = make([]Period, len(d.Periods))
	copy(clone.Periods, d.Periods)
	if d.IsRecurring != nil {
		v := *d.IsRecurring
		clone.IsRecurring = &v
	}
	if d.EffectiveFrom != nil {
		v := *d.EffectiveFrom
		clone.EffectiveFrom = &v
	}
	if d.EffectiveUntil != nil {
		v := *d.EffectiveUntil
		clone.EffectiveUntil = &v
	}
	if d.Status != nil {
		v := *d.Status
		clone.Status = &v
	}
	return clone
}

// TimetableSubmission is the payload handed to persistence once a schedule passes the gate.
type TimetableSubmission struct {
	ClassID        string             `json:"class_id"`
	Day            Weekday            `json:"day"`
	AcademicYear   string             `json:"academic_year"`
	Periods        []Period           `json:"periods"`
	IsRecurring    *bool              `json:"is_recurring,omitempty"`
	EffectiveFrom  *time.Time         `json:"effective_from,omitempty"`
	EffectiveUntil *time.Time         `json:"effective_until,omitempty"`
	Status         *DayScheduleStatus `json:"status,omitempty"`
}

// TimetableDraft is a DaySchedule held server-side between edits.
type TimetableDraft struct {
	ID         string      `json:"id"`
	ScheduleID string      `json:"schedule_id,omitempty"`
	Schedule   DaySchedule `json:"schedule"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// DayScheduleRecord is the stored header row of a submitted day schedule.
type DayScheduleRecord struct {
	ID             string            `db:"id" json:"id"`
	ClassID        string            `db:"class_id" json:"class_id"`
	DayOfWeek      Weekday           `db:"day_of_week" json:"day_of_week"`
	AcademicYear   string            `db:"academic_year" json:"academic_year"`
	IsRecurring    bool              `db:"is_recurring" json:"is_recurring"`
	EffectiveFrom  *time.Time        `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveUntil *time.Time        `db:"effective_until" json:"effective_until,omitempty"`
	Status         DayScheduleStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// DaySchedulePeriodRecord is a stored period row.
type DaySchedulePeriodRecord struct {
	ID            string    `db:"id" json:"id"`
	DayScheduleID string    `db:"day_schedule_id" json:"day_schedule_id"`
	PeriodNumber  int       `db:"period_number" json:"period_number"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	Location      string    `db:"location" json:"location"`
	Notes         string    `db:"notes" json:"notes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DayScheduleDetail bundles a stored schedule with its periods.
type DayScheduleDetail struct {
	DayScheduleRecord
	Periods []DaySchedulePeriodRecord `json:"periods"`
}

// DayScheduleFilter describes query params for listing stored schedules.
type DayScheduleFilter struct {
	ClassID      string
	DayOfWeek    Weekday
	AcademicYear string
	Page         int
	PageSize     int
}

// TimetableCatalog is the read-only reference data a class schedule is validated against.
type TimetableCatalog struct {
	Classes  []ClassCatalog   `json:"classes"`
	Teachers []TeacherCatalog `json:"teachers"`
	Subjects []Subject        `json:"subjects"`
}
