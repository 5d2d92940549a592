package payrun

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum. The transition table below is the only place transitions are
// defined; call sites must go through NextStatus.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusComputed  Status = "computed"
	StatusValidated Status = "validated"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// Operation names a state-changing request on a payrun.
type Operation string

const (
	OpCompute   Operation = "compute"
	OpValidate  Operation = "validate"
	OpMarkDone  Operation = "mark_done"
	OpCancel    Operation = "cancel"
	OpRecompute Operation = "recompute"
)

var transitions = map[Operation]struct {
	from map[Status]bool
	to   Status
}{
	OpCompute:   {from: map[Status]bool{StatusDraft: true, StatusComputed: true}, to: StatusComputed},
	OpValidate:  {from: map[Status]bool{StatusComputed: true}, to: StatusValidated},
	OpMarkDone:  {from: map[Status]bool{StatusValidated: true}, to: StatusDone},
	OpCancel:    {from: map[Status]bool{StatusDraft: true, StatusComputed: true}, to: StatusCancelled},
	OpRecompute: {from: map[Status]bool{StatusComputed: true}, to: StatusComputed},
}

// NextStatus returns the status op produces from current. A disallowed pair
// returns a *TransitionError wrapping ErrInvalidTransition; this is always a
// caller error (stale client state), never retryable.
func NextStatus(current Status, op Operation) (Status, error) {
	t, ok := transitions[op]
	if !ok || !t.from[current] {
		return "", &TransitionError{From: current, Operation: op}
	}
	return t.to, nil
}

// Payrun - one month's payroll processing batch for a company.
// GrossTotal/NetTotal/EmployeeCount are derived from the current payslips and
// rewritten whenever payslips change; they are never hand-edited.
type Payrun struct {
	ID            string
	CompanyID     string
	PeriodMonth   int
	PeriodYear    int
	Status        Status
	GrossTotal    decimal.Decimal
	NetTotal      decimal.Decimal
	EmployeeCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payslip - one employee's computed pay breakdown within a payrun.
// Salary figures are snapshotted at computation time; later edits to the live
// salary configuration never change a historical payslip.
type Payslip struct {
	ID               string
	PayrunID         string
	EmployeeID       string
	Basic            decimal.Decimal
	Allowances       map[string]decimal.Decimal // {"HRA": 5000}
	MonthlyWage      decimal.Decimal            // basic + sum(allowances)
	TotalWorkingDays int
	PayableDays      decimal.Decimal // 0 <= payable_days <= total_working_days
	Gross            decimal.Decimal
	ProvidentFund    decimal.Decimal
	ProfessionalTax  decimal.Decimal
	Net              decimal.Decimal
	Status           Status // payrun status at last write of this row
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Totals carries the derived payrun aggregates persisted alongside a status
// change.
type Totals struct {
	Gross         decimal.Decimal
	Net           decimal.Decimal
	EmployeeCount int
}

// TaxSlab - professional tax amount for gross salaries up to UpTo.
// A nil UpTo means no upper bound.
type TaxSlab struct {
	UpTo   *decimal.Decimal `json:"up_to,omitempty"`
	Amount decimal.Decimal  `json:"amount"`
}

// DeductionSettings - per-company statutory deduction configuration.
type DeductionSettings struct {
	ID                   string
	CompanyID            string
	ProvidentFundRate    decimal.Decimal // applied to basic, not gross
	ProfessionalTaxSlabs []TaxSlab       // ordered by UpTo ascending, open slab last
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultDeductionSettings returns the settings used when a company has not
// configured its own: 12% provident fund, no professional tax up to 10000
// gross, 200 flat above.
func DefaultDeductionSettings(companyID string) DeductionSettings {
	threshold := decimal.NewFromInt(10000)
	return DeductionSettings{
		CompanyID:         companyID,
		ProvidentFundRate: decimal.NewFromFloat(0.12),
		ProfessionalTaxSlabs: []TaxSlab{
			{UpTo: &threshold, Amount: decimal.Zero},
			{UpTo: nil, Amount: decimal.NewFromInt(200)},
		},
	}
}

// ProfessionalTaxFor returns the slab amount for the given gross salary.
// Slabs are evaluated in order; the first slab whose bound covers gross wins.
func (s DeductionSettings) ProfessionalTaxFor(gross decimal.Decimal) decimal.Decimal {
	for _, slab := range s.ProfessionalTaxSlabs {
		if slab.UpTo == nil || gross.LessThanOrEqual(*slab.UpTo) {
			return slab.Amount
		}
	}
	return decimal.Zero
}

// WarningCode enum for per-employee data problems that do not fail a run.
type WarningCode string

const (
	WarningMissingSalaryConfig WarningCode = "MISSING_SALARY_CONFIG"
	WarningDataInconsistency   WarningCode = "DATA_INCONSISTENCY"
)

// Warning records a per-employee data problem encountered during compute or
// recompute. Warnings are data, returned alongside a success result; they are
// never raised as errors.
type Warning struct {
	Code       WarningCode `json:"code"`
	EmployeeID string      `json:"employee_id"`
	Message    string      `json:"message"`
}
