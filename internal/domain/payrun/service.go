package payrun

import "context"

// Service is the payrun engine surface exposed to the HTTP layer. The company
// scope is taken from the JWT claims in ctx.
type Service interface {
	CreatePayrun(ctx context.Context, req CreatePayrunRequest) (PayrunResponse, error)
	GetPayrun(ctx context.Context, id string) (PayrunResponse, error)
	ListPayruns(ctx context.Context, filter ListPayrunsFilter) (ListPayrunsResponse, error)
	ListPayslips(ctx context.Context, payrunID string) ([]PayslipResponse, error)

	// ComputePayrun recomputes every active employee's payslip from scratch in
	// one transaction (delete and reinsert). Idempotent for unchanged inputs.
	ComputePayrun(ctx context.Context, id string) (ComputeResult, error)
	ValidatePayrun(ctx context.Context, id string) (PayrunResponse, error)
	MarkPayrunDone(ctx context.Context, id string) (PayrunResponse, error)
	CancelPayrun(ctx context.Context, id string) (PayrunResponse, error)
	// RecomputePayslip recomputes exactly one payslip in place while the payrun
	// is computed; payrun totals are re-derived from all current payslips.
	RecomputePayslip(ctx context.Context, payslipID string) (RecomputeResult, error)

	GetDeductionSettings(ctx context.Context) (DeductionSettingsResponse, error)
	UpdateDeductionSettings(ctx context.Context, req UpdateDeductionSettingsRequest) (DeductionSettingsResponse, error)
}
