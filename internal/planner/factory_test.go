package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2024, time.August, 1, 9, 0, 0, 0, time.UTC)
}

func TestNewDayScheduleDefaults(t *testing.T) {
	schedule := NewDaySchedule(FactoryOptions{ClassID: "class-10a", Now: fixedNow})

	require.Len(t, schedule.Periods, 7)
	assert.Equal(t, "class-10a", schedule.ClassID)
	assert.Equal(t, models.Monday, schedule.Day)
	assert.Equal(t, models.ModeCreate, schedule.Mode)
	assert.Equal(t, "2024-2025", schedule.AcademicYear)
	for i, period := range schedule.Periods {
		assert.Equal(t, i+1, period.PeriodNumber)
		assert.Empty(t, period.SubjectID)
		assert.Empty(t, period.TeacherID)
		assert.Equal(t, DefaultLocation, period.Location)
		start, end := DerivePeriodTimes(i, DefaultGrid)
		assert.Equal(t, start, period.StartTime)
		assert.Equal(t, end, period.EndTime)
	}
}

func TestNewDayScheduleEditModeYear(t *testing.T) {
	schedule := NewDaySchedule(FactoryOptions{Mode: models.ModeEdit, Now: fixedNow})
	assert.Equal(t, "2024", schedule.AcademicYear)
}

func TestNewDayScheduleCustomOptions(t *testing.T) {
	schedule := NewDaySchedule(FactoryOptions{
		ClassID:      "class-11b",
		Day:          models.Thursday,
		AcademicYear: "2030-2031",
		PeriodCount:  4,
		Grid:         TimeGrid{StartHour: 7, PeriodMinutes: 40, BreakMinutes: 10},
		Location:     "Lab 2",
	})

	require.Len(t, schedule.Periods, 4)
	assert.Equal(t, models.Thursday, schedule.Day)
	assert.Equal(t, "2030-2031", schedule.AcademicYear)
	assert.Equal(t, "07:00", schedule.Periods[0].StartTime)
	assert.Equal(t, "07:50", schedule.Periods[1].StartTime)
	assert.Equal(t, "Lab 2", schedule.Periods[3].Location)
}
