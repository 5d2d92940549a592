package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kerjapay/payroll-backend-go/internal/domain/salary"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/database"
)

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) salary.Provider {
	return &salaryRepository{db: db}
}

// The effective configuration for a period is the latest row whose
// effective_from falls on or before the last day of that month. Rows taking
// effect later never leak into an earlier payrun.
const effectiveConfigQuery = `
	SELECT DISTINCT ON (sc.employee_id)
		sc.employee_id, sc.basic, sc.allowances
	FROM employee_salary_configs sc
	JOIN employees e ON sc.employee_id = e.id
	WHERE e.company_id = $1
	  AND sc.employee_id = ANY($2::uuid[])
	  AND sc.effective_from < (make_date($3, $4, 1) + INTERVAL '1 month')
	ORDER BY sc.employee_id, sc.effective_from DESC
`

func (r *salaryRepository) GetConfig(ctx context.Context, companyID, employeeID string, month, year int) (salary.Config, error) {
	configs, err := r.GetConfigs(ctx, companyID, []string{employeeID}, month, year)
	if err != nil {
		return salary.Config{}, err
	}

	cfg, ok := configs[employeeID]
	if !ok {
		return salary.Config{}, salary.ErrConfigNotFound
	}

	return cfg, nil
}

func (r *salaryRepository) GetConfigs(ctx context.Context, companyID string, employeeIDs []string, month, year int) (map[string]salary.Config, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, effectiveConfigQuery, companyID, employeeIDs, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary configs: %w", err)
	}
	defer rows.Close()

	configs := make(map[string]salary.Config, len(employeeIDs))
	for rows.Next() {
		var cfg salary.Config
		var allowancesBytes []byte
		if err := rows.Scan(&cfg.EmployeeID, &cfg.Basic, &allowancesBytes); err != nil {
			return nil, fmt.Errorf("failed to scan salary config: %w", err)
		}
		_ = json.Unmarshal(allowancesBytes, &cfg.Allowances)
		configs[cfg.EmployeeID] = cfg
	}

	return configs, nil
}
