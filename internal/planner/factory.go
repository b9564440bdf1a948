package planner

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	// DefaultPeriodCount is the number of periods laid out when none is requested.
	DefaultPeriodCount = 7
	// DefaultLocation labels a period that has not been moved to a special room.
	DefaultLocation = "Regular Classroom"
)

// FactoryOptions configures NewDaySchedule. Zero values fall back to the defaults.
type FactoryOptions struct {
	ClassID      string
	Day          models.Weekday
	AcademicYear string
	PeriodCount  int
	Grid         TimeGrid
	Location     string
	Mode         models.ScheduleMode
	Now          func() time.Time
}

// NewDaySchedule lays out an empty schedule whose periods carry derived default times.
func NewDaySchedule(opts FactoryOptions) models.DaySchedule {
	count := opts.PeriodCount
	if count <= 0 {
		count = DefaultPeriodCount
	}
	grid := opts.Grid
	if grid.PeriodMinutes <= 0 {
		grid = DefaultGrid
	}
	location := opts.Location
	if location == "" {
		location = DefaultLocation
	}
	mode := opts.Mode
	if mode == "" {
		mode = models.ModeCreate
	}
	day := opts.Day
	if day == "" {
		day = models.Weekdays[0]
	}
	year := opts.AcademicYear
	if year == "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		year = DefaultAcademicYear(mode, now())
	}

	periods := make([]models.Period, count)
	for i := range periods {
		start, end := DerivePeriodTimes(i, grid)
		periods[i] = models.Period{
			PeriodNumber: i + 1,
			StartTime:    start,
			EndTime:      end,
			Location:     location,
		}
	}

	return models.DaySchedule{
		ClassID:      opts.ClassID,
		Day:          day,
		AcademicYear: year,
		Mode:         mode,
		Periods:      periods,
	}
}

// DefaultAcademicYear labels a new schedule "2024-2025" and an edited one "2024".
func DefaultAcademicYear(mode models.ScheduleMode, now time.Time) string {
	year := now.Year()
	if mode == models.ModeEdit {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}
