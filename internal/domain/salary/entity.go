package salary

import (
	"context"

	"github.com/shopspring/decimal"
)

// Config is the salary configuration snapshot read at computation time. It is
// copied into the payslip rather than referenced, so later edits to the live
// configuration never change a historical payslip.
type Config struct {
	EmployeeID string
	Basic      decimal.Decimal            // positive
	Allowances map[string]decimal.Decimal // name -> non-negative amount; empty is valid
}

// Provider returns the effective salary configuration per employee and month.
// Absence of a configuration is a normal, reportable condition
// (ErrConfigNotFound / missing map entry), not a failure.
type Provider interface {
	GetConfig(ctx context.Context, companyID, employeeID string, month, year int) (Config, error)
	// GetConfigs returns the configs keyed by employee id. Employees without a
	// configuration for the period are simply absent from the map.
	GetConfigs(ctx context.Context, companyID string, employeeIDs []string, month, year int) (map[string]Config, error)
}
