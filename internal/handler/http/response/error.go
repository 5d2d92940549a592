package response

import (
	"errors"
	"net/http"

	"github.com/kerjapay/payroll-backend-go/internal/domain/attendance"
	"github.com/kerjapay/payroll-backend-go/internal/domain/employee"
	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
	"github.com/kerjapay/payroll-backend-go/internal/domain/salary"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Rejected state changes carry the context clients need to recover.
	var transitionErr *payrun.TransitionError
	if errors.As(err, &transitionErr) {
		InvalidTransition(w, transitionErr.Error(), map[string]string{
			"current_status":      string(transitionErr.From),
			"requested_operation": string(transitionErr.Operation),
		})
		return
	}

	switch {
	// Payrun domain errors
	case errors.Is(err, payrun.ErrPayrunNotFound):
		NotFound(w, "Payrun not found")
	case errors.Is(err, payrun.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payrun.ErrPayrunAlreadyExists):
		Conflict(w, "A payrun already exists for this period")
	case errors.Is(err, payrun.ErrDeductionSettingsNotFound):
		NotFound(w, "Deduction settings not found")

	// Supporting domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, salary.ErrConfigNotFound):
		NotFound(w, "Salary configuration not found")
	case errors.Is(err, attendance.ErrCalendarNotFound):
		NotFound(w, "Work calendar not found for this period")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
