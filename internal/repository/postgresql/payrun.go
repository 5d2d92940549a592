package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/database"
)

type payrunRepository struct {
	db *database.DB
}

func NewPayrunRepository(db *database.DB) payrun.Repository {
	return &payrunRepository{db: db}
}

// ========== PAYRUNS ==========

func (r *payrunRepository) Create(ctx context.Context, run payrun.Payrun) (payrun.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payruns (company_id, period_month, period_year, status, gross_total, net_total, employee_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, period_month, period_year, status, gross_total, net_total, employee_count, created_at, updated_at
	`

	var created payrun.Payrun
	err := q.QueryRow(ctx, query,
		run.CompanyID, run.PeriodMonth, run.PeriodYear, run.Status, run.GrossTotal, run.NetTotal, run.EmployeeCount,
	).Scan(
		&created.ID, &created.CompanyID, &created.PeriodMonth, &created.PeriodYear, &created.Status,
		&created.GrossTotal, &created.NetTotal, &created.EmployeeCount, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payrun_company_period") {
			return payrun.Payrun{}, payrun.ErrPayrunAlreadyExists
		}
		return payrun.Payrun{}, fmt.Errorf("failed to create payrun: %w", err)
	}

	return created, nil
}

func (r *payrunRepository) GetByID(ctx context.Context, id string, companyID string) (payrun.Payrun, error) {
	return r.getPayrun(ctx, id, companyID, "")
}

func (r *payrunRepository) GetForUpdate(ctx context.Context, id string, companyID string) (payrun.Payrun, error) {
	// FOR UPDATE blocks until any in-flight operation on the same payrun
	// commits; the caller must hold a transaction in ctx.
	return r.getPayrun(ctx, id, companyID, " FOR UPDATE")
}

func (r *payrunRepository) getPayrun(ctx context.Context, id string, companyID string, lock string) (payrun.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, period_month, period_year, status, gross_total, net_total, employee_count, created_at, updated_at
		FROM payruns
		WHERE id = $1 AND company_id = $2
	` + lock

	var run payrun.Payrun
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&run.ID, &run.CompanyID, &run.PeriodMonth, &run.PeriodYear, &run.Status,
		&run.GrossTotal, &run.NetTotal, &run.EmployeeCount, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payrun.Payrun{}, payrun.ErrPayrunNotFound
		}
		return payrun.Payrun{}, fmt.Errorf("failed to get payrun: %w", err)
	}

	return run, nil
}

func (r *payrunRepository) List(ctx context.Context, companyID string, filter payrun.ListPayrunsFilter) ([]payrun.Payrun, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payruns
		WHERE company_id = $1
	`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.PeriodYear != nil {
		baseQuery += fmt.Sprintf(" AND period_year = $%d", argIdx)
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var totalCount int64
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payruns: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT id, company_id, period_month, period_year, status, gross_total, net_total, employee_count, created_at, updated_at
		%s
		ORDER BY period_year DESC, period_month DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payruns: %w", err)
	}
	defer rows.Close()

	var runs []payrun.Payrun
	for rows.Next() {
		var run payrun.Payrun
		if err := rows.Scan(
			&run.ID, &run.CompanyID, &run.PeriodMonth, &run.PeriodYear, &run.Status,
			&run.GrossTotal, &run.NetTotal, &run.EmployeeCount, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan payrun: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, totalCount, nil
}

func (r *payrunRepository) SetStatus(ctx context.Context, id string, status payrun.Status, totals payrun.Totals) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payruns
		SET status = $2, gross_total = $3, net_total = $4, employee_count = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, status, totals.Gross, totals.Net, totals.EmployeeCount).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payrun.ErrPayrunNotFound
		}
		return fmt.Errorf("failed to set payrun status: %w", err)
	}

	return nil
}

// ========== PAYSLIPS ==========

func (r *payrunRepository) ReplacePayslips(ctx context.Context, payrunID string, payslips []payrun.Payslip) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payslips WHERE payrun_id = $1`, payrunID); err != nil {
		return fmt.Errorf("failed to delete payslips: %w", err)
	}

	query := `
		INSERT INTO payslips (
			id, payrun_id, employee_id, basic, allowances, monthly_wage,
			total_working_days, payable_days, gross, provident_fund, professional_tax, net, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, slip := range payslips {
		allowancesJSON, _ := json.Marshal(slip.Allowances)
		_, err := q.Exec(ctx, query,
			uuid.NewString(), payrunID, slip.EmployeeID, slip.Basic, allowancesJSON, slip.MonthlyWage,
			slip.TotalWorkingDays, slip.PayableDays, slip.Gross, slip.ProvidentFund, slip.ProfessionalTax, slip.Net, slip.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payslip for employee %s: %w", slip.EmployeeID, err)
		}
	}

	return nil
}

func (r *payrunRepository) UpsertPayslip(ctx context.Context, slip payrun.Payslip) error {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, _ := json.Marshal(slip.Allowances)

	query := `
		UPDATE payslips
		SET basic = $2, allowances = $3, monthly_wage = $4, total_working_days = $5, payable_days = $6,
			gross = $7, provident_fund = $8, professional_tax = $9, net = $10, status = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		slip.ID, slip.Basic, allowancesJSON, slip.MonthlyWage, slip.TotalWorkingDays, slip.PayableDays,
		slip.Gross, slip.ProvidentFund, slip.ProfessionalTax, slip.Net, slip.Status,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payrun.ErrPayslipNotFound
		}
		return fmt.Errorf("failed to upsert payslip: %w", err)
	}

	return nil
}

func (r *payrunRepository) GetPayslipByID(ctx context.Context, id string, companyID string) (payrun.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ps.id, ps.payrun_id, ps.employee_id, ps.basic, ps.allowances, ps.monthly_wage,
			   ps.total_working_days, ps.payable_days, ps.gross, ps.provident_fund, ps.professional_tax, ps.net,
			   ps.status, ps.created_at, ps.updated_at
		FROM payslips ps
		JOIN payruns pr ON ps.payrun_id = pr.id
		WHERE ps.id = $1 AND pr.company_id = $2
	`

	var slip payrun.Payslip
	var allowancesBytes []byte
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&slip.ID, &slip.PayrunID, &slip.EmployeeID, &slip.Basic, &allowancesBytes, &slip.MonthlyWage,
		&slip.TotalWorkingDays, &slip.PayableDays, &slip.Gross, &slip.ProvidentFund, &slip.ProfessionalTax, &slip.Net,
		&slip.Status, &slip.CreatedAt, &slip.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payrun.Payslip{}, payrun.ErrPayslipNotFound
		}
		return payrun.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	_ = json.Unmarshal(allowancesBytes, &slip.Allowances)

	return slip, nil
}

func (r *payrunRepository) ListPayslips(ctx context.Context, payrunID string, companyID string) ([]payrun.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ps.id, ps.payrun_id, ps.employee_id, ps.basic, ps.allowances, ps.monthly_wage,
			   ps.total_working_days, ps.payable_days, ps.gross, ps.provident_fund, ps.professional_tax, ps.net,
			   ps.status, ps.created_at, ps.updated_at
		FROM payslips ps
		JOIN payruns pr ON ps.payrun_id = pr.id
		JOIN employees e ON ps.employee_id = e.id
		WHERE ps.payrun_id = $1 AND pr.company_id = $2
		ORDER BY e.employee_code
	`

	rows, err := q.Query(ctx, query, payrunID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var slips []payrun.Payslip
	for rows.Next() {
		var slip payrun.Payslip
		var allowancesBytes []byte
		if err := rows.Scan(
			&slip.ID, &slip.PayrunID, &slip.EmployeeID, &slip.Basic, &allowancesBytes, &slip.MonthlyWage,
			&slip.TotalWorkingDays, &slip.PayableDays, &slip.Gross, &slip.ProvidentFund, &slip.ProfessionalTax, &slip.Net,
			&slip.Status, &slip.CreatedAt, &slip.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		_ = json.Unmarshal(allowancesBytes, &slip.Allowances)
		slips = append(slips, slip)
	}

	return slips, nil
}

func (r *payrunRepository) SumPayslipTotals(ctx context.Context, payrunID string) (payrun.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(gross), 0), COALESCE(SUM(net), 0), COUNT(*)
		FROM payslips
		WHERE payrun_id = $1
	`

	var totals payrun.Totals
	err := q.QueryRow(ctx, query, payrunID).Scan(&totals.Gross, &totals.Net, &totals.EmployeeCount)
	if err != nil {
		return payrun.Totals{}, fmt.Errorf("failed to sum payslip totals: %w", err)
	}

	return totals, nil
}

// ========== DEDUCTION SETTINGS ==========

func (r *payrunRepository) GetDeductionSettings(ctx context.Context, companyID string) (payrun.DeductionSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, provident_fund_rate, professional_tax_slabs, created_at, updated_at
		FROM deduction_settings
		WHERE company_id = $1
	`

	var settings payrun.DeductionSettings
	var slabsBytes []byte
	err := q.QueryRow(ctx, query, companyID).Scan(
		&settings.ID, &settings.CompanyID, &settings.ProvidentFundRate, &slabsBytes,
		&settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payrun.DeductionSettings{}, payrun.ErrDeductionSettingsNotFound
		}
		return payrun.DeductionSettings{}, fmt.Errorf("failed to get deduction settings: %w", err)
	}

	if err := json.Unmarshal(slabsBytes, &settings.ProfessionalTaxSlabs); err != nil {
		return payrun.DeductionSettings{}, fmt.Errorf("failed to decode professional tax slabs: %w", err)
	}

	return settings, nil
}

func (r *payrunRepository) UpsertDeductionSettings(ctx context.Context, settings payrun.DeductionSettings) (payrun.DeductionSettings, error) {
	q := GetQuerier(ctx, r.db)

	slabsJSON, _ := json.Marshal(settings.ProfessionalTaxSlabs)

	query := `
		INSERT INTO deduction_settings (company_id, provident_fund_rate, professional_tax_slabs)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id) DO UPDATE SET
			provident_fund_rate = EXCLUDED.provident_fund_rate,
			professional_tax_slabs = EXCLUDED.professional_tax_slabs,
			updated_at = NOW()
		RETURNING id, company_id, provident_fund_rate, professional_tax_slabs, created_at, updated_at
	`

	var updated payrun.DeductionSettings
	var slabsBytes []byte
	err := q.QueryRow(ctx, query, settings.CompanyID, settings.ProvidentFundRate, slabsJSON).Scan(
		&updated.ID, &updated.CompanyID, &updated.ProvidentFundRate, &slabsBytes,
		&updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		return payrun.DeductionSettings{}, fmt.Errorf("failed to upsert deduction settings: %w", err)
	}

	_ = json.Unmarshal(slabsBytes, &updated.ProfessionalTaxSlabs)

	return updated, nil
}
