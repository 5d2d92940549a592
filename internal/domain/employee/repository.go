package employee

import "context"

// EmployeeRepository defines the directory reads the payroll engine needs:
// the set of employees in scope for a compute run.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
}
