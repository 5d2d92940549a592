package payrun

import (
	"errors"
	"fmt"
)

var (
	ErrPayrunNotFound              = errors.New("payrun not found")
	ErrPayrunAlreadyExists         = errors.New("payrun already exists for this period")
	ErrPayslipNotFound             = errors.New("payslip not found")
	ErrInvalidTransition           = errors.New("invalid payrun transition")
	ErrDeductionSettingsNotFound   = errors.New("deduction settings not found")
	ErrUnusableAttendanceAggregate = errors.New("attendance aggregate unusable for payslip computation")
)

// TransitionError names the current status and the requested operation so the
// caller can see which precondition failed.
type TransitionError struct {
	From      Status
	Operation Operation
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid payrun transition: cannot %s a %s payrun", e.Operation, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
