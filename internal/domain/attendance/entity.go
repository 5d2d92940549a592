package attendance

import (
	"context"

	"github.com/shopspring/decimal"
)

// Aggregate is one employee's attendance summary for a month: the working
// days in the month per company work calendar, and the days the employee is
// entitled to pay for (present + approved paid leave).
type Aggregate struct {
	EmployeeID       string
	TotalWorkingDays int
	PayableDays      decimal.Decimal
}

// Aggregator computes attendance aggregates. Capture of the underlying punch
// and leave data is owned elsewhere; this contract only reads.
type Aggregator interface {
	GetAggregate(ctx context.Context, companyID, employeeID string, month, year int) (Aggregate, error)
	// GetAggregates returns one aggregate per requested employee, keyed by
	// employee id. Employees with no attendance rows get a zero payable-days
	// aggregate, provided the company work calendar covers the month.
	GetAggregates(ctx context.Context, companyID string, employeeIDs []string, month, year int) (map[string]Aggregate, error)
}
