package payrun

import (
	"github.com/kerjapay/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PAYRUN DTOs ==========

type CreatePayrunRequest struct {
	PeriodMonth int `json:"period_month"`
	PeriodYear  int `json:"period_year"`
}

func (r *CreatePayrunRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if r.PeriodYear < 2020 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be 2020 or later"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrunResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	PeriodMonth   int             `json:"period_month"`
	PeriodYear    int             `json:"period_year"`
	Status        string          `json:"status"`
	GrossTotal    decimal.Decimal `json:"gross_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
	EmployeeCount int             `json:"employee_count"`
}

type PayslipResponse struct {
	ID               string                     `json:"id"`
	PayrunID         string                     `json:"payrun_id"`
	EmployeeID       string                     `json:"employee_id"`
	Basic            decimal.Decimal            `json:"basic"`
	Allowances       map[string]decimal.Decimal `json:"allowances,omitempty"`
	MonthlyWage      decimal.Decimal            `json:"monthly_wage"`
	TotalWorkingDays int                        `json:"total_working_days"`
	PayableDays      decimal.Decimal            `json:"payable_days"`
	Gross            decimal.Decimal            `json:"gross"`
	ProvidentFund    decimal.Decimal            `json:"provident_fund"`
	ProfessionalTax  decimal.Decimal            `json:"professional_tax"`
	Net              decimal.Decimal            `json:"net"`
	Status           string                     `json:"status"`
}

// ComputeResult is the outcome of a compute call. Warnings do not fail the
// operation; the caller decides whether to treat them as blocking.
type ComputeResult struct {
	ProcessedCount int       `json:"processed_count"`
	Warnings       []Warning `json:"warnings"`
}

// RecomputeResult is the outcome of a single-payslip recompute. If the
// employee's data is no longer usable the prior payslip is returned unchanged
// together with the warning.
type RecomputeResult struct {
	Payslip  PayslipResponse `json:"payslip"`
	Warnings []Warning       `json:"warnings"`
}

type ListPayrunsFilter struct {
	PeriodYear *int
	Status     *string
	Page       int
	Limit      int
}

type ListPayrunsResponse struct {
	Data       []PayrunResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// ========== DEDUCTION SETTINGS DTOs ==========

type DeductionSettingsResponse struct {
	ID                   string          `json:"id,omitempty"`
	CompanyID            string          `json:"company_id"`
	ProvidentFundRate    decimal.Decimal `json:"provident_fund_rate"`
	ProfessionalTaxSlabs []TaxSlab       `json:"professional_tax_slabs"`
}

type UpdateDeductionSettingsRequest struct {
	ProvidentFundRate    *decimal.Decimal `json:"provident_fund_rate,omitempty"`
	ProfessionalTaxSlabs []TaxSlab        `json:"professional_tax_slabs,omitempty"`
}

func (r *UpdateDeductionSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ProvidentFundRate != nil {
		if r.ProvidentFundRate.IsNegative() || r.ProvidentFundRate.GreaterThan(decimal.NewFromInt(1)) {
			errs = append(errs, validator.ValidationError{Field: "provident_fund_rate", Message: "must be between 0 and 1"})
		}
	}
	for i, slab := range r.ProfessionalTaxSlabs {
		if slab.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "professional_tax_slabs", Message: "slab amounts must be non-negative"})
			break
		}
		if slab.UpTo == nil && i != len(r.ProfessionalTaxSlabs)-1 {
			errs = append(errs, validator.ValidationError{Field: "professional_tax_slabs", Message: "open-ended slab must be last"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
