package payrun

import (
	"fmt"

	"github.com/kerjapay/payroll-backend-go/internal/domain/attendance"
	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
	"github.com/kerjapay/payroll-backend-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// Calculator produces one payslip line from an employee's salary snapshot and
// attendance aggregate. It is side-effect free: same inputs always yield the
// same output, which is what makes recompute safe to retry.
type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns the payslip line plus zero or one warning.
//
// Rounding policy: round-half-up to 2 decimal places, applied once at the
// gross computation and once per deduction line; never re-rounded downstream.
//
// payableDays outside [0, totalWorkingDays] is clamped to the nearest bound
// with a DATA_INCONSISTENCY warning; the run must not hard-fail for one
// employee. A non-positive totalWorkingDays makes proration undefined, so the
// employee is excluded (ErrUnusableAttendanceAggregate) with the warning.
func (c *Calculator) Calculate(cfg salary.Config, agg attendance.Aggregate, settings payrun.DeductionSettings) (payrun.Payslip, *payrun.Warning, error) {
	if agg.TotalWorkingDays <= 0 {
		warn := &payrun.Warning{
			Code:       payrun.WarningDataInconsistency,
			EmployeeID: cfg.EmployeeID,
			Message:    fmt.Sprintf("total working days must be positive, got %d", agg.TotalWorkingDays),
		}
		return payrun.Payslip{}, warn, payrun.ErrUnusableAttendanceAggregate
	}

	var warn *payrun.Warning
	totalDays := decimal.NewFromInt(int64(agg.TotalWorkingDays))
	payableDays := agg.PayableDays

	switch {
	case payableDays.IsNegative():
		warn = &payrun.Warning{
			Code:       payrun.WarningDataInconsistency,
			EmployeeID: cfg.EmployeeID,
			Message:    fmt.Sprintf("payable days %s below 0, clamped", payableDays),
		}
		payableDays = decimal.Zero
	case payableDays.GreaterThan(totalDays):
		warn = &payrun.Warning{
			Code:       payrun.WarningDataInconsistency,
			EmployeeID: cfg.EmployeeID,
			Message:    fmt.Sprintf("payable days %s above total working days %d, clamped", payableDays, agg.TotalWorkingDays),
		}
		payableDays = totalDays
	}

	monthlyWage := cfg.Basic
	for _, amount := range cfg.Allowances {
		monthlyWage = monthlyWage.Add(amount)
	}

	gross := monthlyWage.Mul(payableDays).Div(totalDays).Round(2)
	// Provident fund is computed off basic, not gross (statutory basis).
	providentFund := cfg.Basic.Mul(settings.ProvidentFundRate).Round(2)
	professionalTax := settings.ProfessionalTaxFor(gross)
	net := gross.Sub(providentFund).Sub(professionalTax)

	// Negative net is reportable, never silently clamped.
	if net.IsNegative() && warn == nil {
		warn = &payrun.Warning{
			Code:       payrun.WarningDataInconsistency,
			EmployeeID: cfg.EmployeeID,
			Message:    fmt.Sprintf("net pay %s is negative", net),
		}
	}

	return payrun.Payslip{
		EmployeeID:       cfg.EmployeeID,
		Basic:            cfg.Basic,
		Allowances:       cfg.Allowances,
		MonthlyWage:      monthlyWage,
		TotalWorkingDays: agg.TotalWorkingDays,
		PayableDays:      payableDays,
		Gross:            gross,
		ProvidentFund:    providentFund,
		ProfessionalTax:  professionalTax,
		Net:              net,
	}, warn, nil
}
