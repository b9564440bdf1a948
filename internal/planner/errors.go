package planner

import (
	"fmt"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Rule identifies which check rejected an edit or a submission.
type Rule string

const (
	RuleInvalidPeriod           Rule = "INVALID_PERIOD"
	RuleInvalidField            Rule = "INVALID_FIELD"
	RuleInvalidDay              Rule = "INVALID_DAY"
	RuleInvalidTime             Rule = "INVALID_TIME"
	RuleTimeOrder               Rule = "TIME_ORDER"
	RuleUnknownTeacher          Rule = "UNKNOWN_TEACHER"
	RuleSubjectNotInClass       Rule = "SUBJECT_NOT_IN_CLASS"
	RuleTeacherNotQualified     Rule = "TEACHER_NOT_QUALIFIED"
	RuleTeacherSubjectDuplicate Rule = "TEACHER_SUBJECT_DUPLICATE"
	RuleSubjectDuplicate        Rule = "SUBJECT_DUPLICATE"
	RuleTeacherTimeClash        Rule = "TEACHER_TIME_CLASH"
	RuleIncompletePeriod        Rule = "INCOMPLETE_PERIOD"
	RuleNoPeriods               Rule = "NO_PERIODS"
	RuleValidityWindow          Rule = "VALIDITY_WINDOW"
)

// ConflictError describes a rejected edit or submission. The schedule it was raised
// against is left untouched.
type ConflictError struct {
	Rule              Rule   `json:"rule"`
	Message           string `json:"message"`
	Field             string `json:"field,omitempty"`
	PeriodNumber      int    `json:"period_number,omitempty"`
	ConflictingPeriod int    `json:"conflicting_period,omitempty"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.PeriodNumber > 0 {
		return fmt.Sprintf("period %d: %s", e.PeriodNumber, e.Message)
	}
	return e.Message
}

// malformed wraps input the client could never have sent from the form (bad index, field, clock).
func malformed(conflict *ConflictError) error {
	return appErrors.WithDetails(
		appErrors.Wrap(conflict, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, conflict.Message),
		conflict,
	)
}

// rejected wraps a rule violation on otherwise well-formed input.
func rejected(conflict *ConflictError) error {
	return appErrors.WithDetails(
		appErrors.Wrap(conflict, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, conflict.Message),
		conflict,
	)
}
