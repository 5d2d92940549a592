package payrun

import "context"

// Repository defines data access for payruns and their payslips.
// All methods take companyID to prevent cross-company data access.
//
// Mutating methods compose inside one transaction (tx carried in ctx, see
// repository/postgresql); the service layer is responsible for wrapping every
// state-changing operation in a transaction and acquiring the per-payrun row
// lock first.
type Repository interface {
	Create(ctx context.Context, run Payrun) (Payrun, error)
	GetByID(ctx context.Context, id string, companyID string) (Payrun, error)
	// GetForUpdate locks the payrun row for the duration of the surrounding
	// transaction. Concurrent state-changing operations on the same payrun
	// serialize here; the returned status is read after the lock is held.
	GetForUpdate(ctx context.Context, id string, companyID string) (Payrun, error)
	List(ctx context.Context, companyID string, filter ListPayrunsFilter) ([]Payrun, int64, error)

	// SetStatus persists a status change together with the derived totals.
	SetStatus(ctx context.Context, id string, status Status, totals Totals) error

	// ReplacePayslips deletes all payslips of the payrun and inserts the given
	// set. Never merges with prior results.
	ReplacePayslips(ctx context.Context, payrunID string, payslips []Payslip) error
	// UpsertPayslip rewrites a single payslip in place, keeping its identity.
	UpsertPayslip(ctx context.Context, slip Payslip) error
	GetPayslipByID(ctx context.Context, id string, companyID string) (Payslip, error)
	ListPayslips(ctx context.Context, payrunID string, companyID string) ([]Payslip, error)
	// SumPayslipTotals derives the payrun aggregates from the current payslip
	// rows, the single source of truth for GrossTotal/NetTotal/EmployeeCount.
	SumPayslipTotals(ctx context.Context, payrunID string) (Totals, error)

	GetDeductionSettings(ctx context.Context, companyID string) (DeductionSettings, error)
	UpsertDeductionSettings(ctx context.Context, settings DeductionSettings) (DeductionSettings, error)
}
