package planner

import (
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Field names a mutable attribute of a period.
type Field string

const (
	FieldTeacher   Field = "teacher_id"
	FieldSubject   Field = "subject_id"
	FieldStartTime Field = "start_time"
	FieldEndTime   Field = "end_time"
	FieldLocation  Field = "location"
	FieldNotes     Field = "notes"
)

var fieldAliases = map[string]Field{
	"teacher_id": FieldTeacher,
	"teacherid":  FieldTeacher,
	"teacher":    FieldTeacher,
	"subject_id": FieldSubject,
	"subjectid":  FieldSubject,
	"subject":    FieldSubject,
	"start_time": FieldStartTime,
	"starttime":  FieldStartTime,
	"end_time":   FieldEndTime,
	"endtime":    FieldEndTime,
	"location":   FieldLocation,
	"notes":      FieldNotes,
}

// ParseField accepts snake_case and camelCase field names.
func ParseField(raw string) (Field, bool) {
	field, ok := fieldAliases[strings.ToLower(strings.TrimSpace(raw))]
	return field, ok
}

// Planner applies single-field edits to a DaySchedule and rejects those that break
// the day's scheduling rules.
type Planner struct {
	catalog *Catalog
}

// New returns a Planner validating against catalog.
func New(catalog *Catalog) *Planner {
	if catalog == nil {
		catalog = NewCatalog(models.TimetableCatalog{})
	}
	return &Planner{catalog: catalog}
}

// Catalog exposes the reference data the planner validates against.
func (p *Planner) Catalog() *Catalog {
	return p.catalog
}

// SetField sets one field of the period at the 0-based index. On rejection the
// original schedule is returned as-is together with the error.
func (p *Planner) SetField(schedule models.DaySchedule, index int, field Field, value string) (models.DaySchedule, error) {
	if index < 0 || index >= len(schedule.Periods) {
		return schedule, malformed(&ConflictError{Rule: RuleInvalidPeriod, Message: "period index out of range"})
	}

	updated := schedule.Clone()
	period := &updated.Periods[index]
	value = strings.TrimSpace(value)

	switch field {
	case FieldTeacher:
		if value != "" && !p.catalog.HasTeacher(value) {
			return schedule, rejected(&ConflictError{Rule: RuleUnknownTeacher, Message: "teacher not found", Field: string(field), PeriodNumber: period.PeriodNumber})
		}
		period.TeacherID = value
		// a new teacher may not teach the previous subject
		period.SubjectID = ""
	case FieldSubject:
		if value != "" {
			if !p.catalog.ClassAllows(updated.ClassID, value) {
				return schedule, rejected(&ConflictError{Rule: RuleSubjectNotInClass, Message: "subject not available for this class", Field: string(field), PeriodNumber: period.PeriodNumber})
			}
			if period.TeacherID != "" && !p.catalog.TeacherQualified(period.TeacherID, value) {
				return schedule, rejected(&ConflictError{Rule: RuleTeacherNotQualified, Message: "teacher not qualified for this subject", Field: string(field), PeriodNumber: period.PeriodNumber})
			}
		}
		period.SubjectID = value
	case FieldStartTime, FieldEndTime:
		if value != "" {
			normalized, err := normalizeClock(value)
			if err != nil {
				return schedule, malformed(&ConflictError{Rule: RuleInvalidTime, Message: "time must be formatted as HH:MM", Field: string(field), PeriodNumber: period.PeriodNumber})
			}
			value = normalized
		}
		if field == FieldStartTime {
			period.StartTime = value
		} else {
			period.EndTime = value
		}
		if err := checkTimeOrder(*period); err != nil {
			return schedule, err
		}
	case FieldLocation:
		period.Location = value
	case FieldNotes:
		period.Notes = value
	default:
		return schedule, malformed(&ConflictError{Rule: RuleInvalidField, Message: "unknown period field", Field: string(field), PeriodNumber: period.PeriodNumber})
	}

	if err := checkPeriodConflicts(updated, index); err != nil {
		return schedule, err
	}
	return updated, nil
}

// Validate checks every used period of a whole schedule against the catalog and
// the day's conflict rules. Periods without both times are skipped, as Gate drops them.
func (p *Planner) Validate(schedule models.DaySchedule) error {
	used := schedule.Clone()
	used.Periods = make([]models.Period, 0, len(schedule.Periods))
	for _, period := range schedule.Periods {
		if period.Populated() {
			used.Periods = append(used.Periods, period)
		}
	}

	for i, period := range used.Periods {
		if period.TeacherID != "" && !p.catalog.HasTeacher(period.TeacherID) {
			return rejected(&ConflictError{Rule: RuleUnknownTeacher, Message: "teacher not found", Field: string(FieldTeacher), PeriodNumber: period.PeriodNumber})
		}
		if period.SubjectID != "" && !p.catalog.ClassAllows(used.ClassID, period.SubjectID) {
			return rejected(&ConflictError{Rule: RuleSubjectNotInClass, Message: "subject not available for this class", Field: string(FieldSubject), PeriodNumber: period.PeriodNumber})
		}
		if period.TeacherID != "" && period.SubjectID != "" && !p.catalog.TeacherQualified(period.TeacherID, period.SubjectID) {
			return rejected(&ConflictError{Rule: RuleTeacherNotQualified, Message: "teacher not qualified for this subject", Field: string(FieldSubject), PeriodNumber: period.PeriodNumber})
		}
		if err := checkPeriodConflicts(used, i); err != nil {
			return err
		}
	}
	return nil
}

// SetDay moves the schedule to another weekday. Conflicts are scoped to one day's
// periods, so nothing needs re-validating.
func (p *Planner) SetDay(schedule models.DaySchedule, day models.Weekday) (models.DaySchedule, error) {
	parsed, ok := models.ParseWeekday(string(day))
	if !ok {
		return schedule, malformed(&ConflictError{Rule: RuleInvalidDay, Message: "day must be one of MONDAY to SATURDAY"})
	}
	updated := schedule.Clone()
	updated.Day = parsed
	return updated, nil
}

func checkTimeOrder(period models.Period) error {
	if !period.Populated() {
		return nil
	}
	start, err := ParseClock(period.StartTime)
	if err != nil {
		return malformed(&ConflictError{Rule: RuleInvalidTime, Message: "time must be formatted as HH:MM", Field: string(FieldStartTime), PeriodNumber: period.PeriodNumber})
	}
	end, err := ParseClock(period.EndTime)
	if err != nil {
		return malformed(&ConflictError{Rule: RuleInvalidTime, Message: "time must be formatted as HH:MM", Field: string(FieldEndTime), PeriodNumber: period.PeriodNumber})
	}
	if start >= end {
		return rejected(&ConflictError{Rule: RuleTimeOrder, Message: "start time must be before end time", PeriodNumber: period.PeriodNumber})
	}
	return nil
}

// checkPeriodConflicts compares the period at index against every other period of the day.
// The teacher/subject pair check is subsumed by the subject check but runs first so the
// more specific message wins.
func checkPeriodConflicts(schedule models.DaySchedule, index int) error {
	target := schedule.Periods[index]

	if target.TeacherID != "" && target.SubjectID != "" {
		for i, other := range schedule.Periods {
			if i == index {
				continue
			}
			if other.TeacherID == target.TeacherID && other.SubjectID == target.SubjectID {
				return rejected(&ConflictError{
					Rule:              RuleTeacherSubjectDuplicate,
					Message:           "teacher already assigned to this subject in another period",
					PeriodNumber:      target.PeriodNumber,
					ConflictingPeriod: other.PeriodNumber,
				})
			}
		}
	}

	if target.SubjectID != "" {
		for i, other := range schedule.Periods {
			if i == index {
				continue
			}
			if other.SubjectID == target.SubjectID {
				return rejected(&ConflictError{
					Rule:              RuleSubjectDuplicate,
					Message:           "subject already assigned to another period",
					PeriodNumber:      target.PeriodNumber,
					ConflictingPeriod: other.PeriodNumber,
				})
			}
		}
	}

	// Generated grid windows are disjoint, so this only fires once times have been moved.
	if target.TeacherID != "" && target.Populated() {
		for i, other := range schedule.Periods {
			if i == index {
				continue
			}
			if other.TeacherID == target.TeacherID && other.StartTime == target.StartTime && other.EndTime == target.EndTime {
				return rejected(&ConflictError{
					Rule:              RuleTeacherTimeClash,
					Message:           "teacher already scheduled during this time slot",
					PeriodNumber:      target.PeriodNumber,
					ConflictingPeriod: other.PeriodNumber,
				})
			}
		}
	}

	return nil
}
