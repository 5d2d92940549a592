package payrun

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
	"github.com/kerjapay/payroll-backend-go/internal/domain/attendance"
	"github.com/kerjapay/payroll-backend-go/internal/domain/employee"
	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
	"github.com/kerjapay/payroll-backend-go/internal/domain/salary"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type PayrunServiceImpl struct {
	tx             database.Transactor
	payrunRepo     payrun.Repository
	employeeRepo   employee.EmployeeRepository
	salaryProvider salary.Provider
	attendanceAgg  attendance.Aggregator
	calculator     *Calculator
}

func NewPayrunService(
	tx database.Transactor,
	payrunRepo payrun.Repository,
	employeeRepo employee.EmployeeRepository,
	salaryProvider salary.Provider,
	attendanceAgg attendance.Aggregator,
) payrun.Service {
	return &PayrunServiceImpl{
		tx:             tx,
		payrunRepo:     payrunRepo,
		employeeRepo:   employeeRepo,
		salaryProvider: salaryProvider,
		attendanceAgg:  attendanceAgg,
		calculator:     NewCalculator(),
	}
}

// Helper to get company_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}

	return companyID, nil
}

// ========== PAYRUN LIFECYCLE ==========

func (s *PayrunServiceImpl) CreatePayrun(ctx context.Context, req payrun.CreatePayrunRequest) (payrun.PayrunResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.PayrunResponse{}, err
	}

	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	created, err := s.payrunRepo.Create(ctx, payrun.Payrun{
		CompanyID:   companyID,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		Status:      payrun.StatusDraft,
		GrossTotal:  decimal.Zero,
		NetTotal:    decimal.Zero,
	})
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	return mapToPayrunResponse(created), nil
}

func (s *PayrunServiceImpl) GetPayrun(ctx context.Context, id string) (payrun.PayrunResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	run, err := s.payrunRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	return mapToPayrunResponse(run), nil
}

func (s *PayrunServiceImpl) ListPayruns(ctx context.Context, filter payrun.ListPayrunsFilter) (payrun.ListPayrunsResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.ListPayrunsResponse{}, err
	}

	runs, totalCount, err := s.payrunRepo.List(ctx, companyID, filter)
	if err != nil {
		return payrun.ListPayrunsResponse{}, err
	}

	data := make([]payrun.PayrunResponse, 0, len(runs))
	for _, run := range runs {
		data = append(data, mapToPayrunResponse(run))
	}

	return payrun.ListPayrunsResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrunServiceImpl) ListPayslips(ctx context.Context, payrunID string) ([]payrun.PayslipResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Verify the payrun exists within this company before listing.
	if _, err := s.payrunRepo.GetByID(ctx, payrunID, companyID); err != nil {
		return nil, err
	}

	slips, err := s.payrunRepo.ListPayslips(ctx, payrunID, companyID)
	if err != nil {
		return nil, err
	}

	result := make([]payrun.PayslipResponse, 0, len(slips))
	for _, slip := range slips {
		result = append(result, mapToPayslipResponse(slip))
	}

	return result, nil
}

// ComputePayrun recomputes every active employee's payslip from scratch
// inside one transaction. Per-employee data problems become warnings and the
// run continues; only a persistence failure aborts, in which case the payrun
// is left exactly as before the call.
func (s *PayrunServiceImpl) ComputePayrun(ctx context.Context, id string) (payrun.ComputeResult, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.ComputeResult{}, err
	}

	var result payrun.ComputeResult
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Row lock serializes concurrent operations on this payrun; the status
		// check below therefore never runs against a stale precondition.
		run, err := s.payrunRepo.GetForUpdate(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if _, err := payrun.NextStatus(run.Status, payrun.OpCompute); err != nil {
			return err
		}

		settings, err := s.deductionSettings(txCtx, companyID)
		if err != nil {
			return err
		}

		employees, err := s.employeeRepo.GetActiveByCompanyID(txCtx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get employees: %w", err)
		}

		employeeIDs := make([]string, 0, len(employees))
		for _, emp := range employees {
			employeeIDs = append(employeeIDs, emp.ID)
		}

		configs, err := s.salaryProvider.GetConfigs(txCtx, companyID, employeeIDs, run.PeriodMonth, run.PeriodYear)
		if err != nil {
			return fmt.Errorf("failed to get salary configs: %w", err)
		}
		aggregates, err := s.attendanceAgg.GetAggregates(txCtx, companyID, employeeIDs, run.PeriodMonth, run.PeriodYear)
		if err != nil {
			return fmt.Errorf("failed to get attendance aggregates: %w", err)
		}

		slips := make([]payrun.Payslip, 0, len(employees))
		warnings := []payrun.Warning{}
		for _, emp := range employees {
			cfg, ok := configs[emp.ID]
			if !ok {
				warnings = append(warnings, payrun.Warning{
					Code:       payrun.WarningMissingSalaryConfig,
					EmployeeID: emp.ID,
					Message:    fmt.Sprintf("no salary configuration for %d-%02d", run.PeriodYear, run.PeriodMonth),
				})
				continue
			}

			agg, ok := aggregates[emp.ID]
			if !ok {
				warnings = append(warnings, payrun.Warning{
					Code:       payrun.WarningDataInconsistency,
					EmployeeID: emp.ID,
					Message:    fmt.Sprintf("no attendance aggregate for %d-%02d", run.PeriodYear, run.PeriodMonth),
				})
				continue
			}

			slip, warn, calcErr := s.calculator.Calculate(cfg, agg, settings)
			if warn != nil {
				warnings = append(warnings, *warn)
			}
			if calcErr != nil {
				continue
			}

			slip.PayrunID = run.ID
			slip.Status = payrun.StatusComputed
			slips = append(slips, slip)
		}

		// Always delete-and-reinsert; never merge with prior results.
		if err := s.payrunRepo.ReplacePayslips(txCtx, run.ID, slips); err != nil {
			return err
		}

		totals, err := s.payrunRepo.SumPayslipTotals(txCtx, run.ID)
		if err != nil {
			return err
		}
		if err := s.payrunRepo.SetStatus(txCtx, run.ID, payrun.StatusComputed, totals); err != nil {
			return err
		}

		result = payrun.ComputeResult{ProcessedCount: len(slips), Warnings: warnings}
		return nil
	})
	if err != nil {
		return payrun.ComputeResult{}, err
	}

	return result, nil
}

func (s *PayrunServiceImpl) ValidatePayrun(ctx context.Context, id string) (payrun.PayrunResponse, error) {
	return s.transition(ctx, id, payrun.OpValidate)
}

func (s *PayrunServiceImpl) MarkPayrunDone(ctx context.Context, id string) (payrun.PayrunResponse, error) {
	return s.transition(ctx, id, payrun.OpMarkDone)
}

func (s *PayrunServiceImpl) CancelPayrun(ctx context.Context, id string) (payrun.PayrunResponse, error) {
	// Cancelled payruns keep their payslips for audit; they are never deleted.
	return s.transition(ctx, id, payrun.OpCancel)
}

// transition applies a payslip-preserving status change under the payrun row
// lock. Totals are re-derived from the current payslips, keeping the totals
// invariant even if a prior write was interrupted.
func (s *PayrunServiceImpl) transition(ctx context.Context, id string, op payrun.Operation) (payrun.PayrunResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	var updated payrun.Payrun
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := s.payrunRepo.GetForUpdate(txCtx, id, companyID)
		if err != nil {
			return err
		}
		next, err := payrun.NextStatus(run.Status, op)
		if err != nil {
			return err
		}

		totals, err := s.payrunRepo.SumPayslipTotals(txCtx, run.ID)
		if err != nil {
			return err
		}
		if err := s.payrunRepo.SetStatus(txCtx, run.ID, next, totals); err != nil {
			return err
		}

		updated = run
		updated.Status = next
		updated.GrossTotal = totals.Gross
		updated.NetTotal = totals.Net
		updated.EmployeeCount = totals.EmployeeCount
		return nil
	})
	if err != nil {
		return payrun.PayrunResponse{}, err
	}

	return mapToPayrunResponse(updated), nil
}

// RecomputePayslip recomputes one employee's payslip in place. If the
// employee's underlying data is no longer usable, the existing payslip is
// left untouched and the problem is returned as a warning.
func (s *PayrunServiceImpl) RecomputePayslip(ctx context.Context, payslipID string) (payrun.RecomputeResult, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.RecomputeResult{}, err
	}

	var result payrun.RecomputeResult
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		slip, err := s.payrunRepo.GetPayslipByID(txCtx, payslipID, companyID)
		if err != nil {
			return err
		}

		run, err := s.payrunRepo.GetForUpdate(txCtx, slip.PayrunID, companyID)
		if err != nil {
			return err
		}
		if _, err := payrun.NextStatus(run.Status, payrun.OpRecompute); err != nil {
			return err
		}

		// Re-read after the lock: a concurrent compute may have replaced the
		// payslip set while we were waiting.
		slip, err = s.payrunRepo.GetPayslipByID(txCtx, payslipID, companyID)
		if err != nil {
			return err
		}

		settings, err := s.deductionSettings(txCtx, companyID)
		if err != nil {
			return err
		}

		cfg, err := s.salaryProvider.GetConfig(txCtx, companyID, slip.EmployeeID, run.PeriodMonth, run.PeriodYear)
		if errors.Is(err, salary.ErrConfigNotFound) {
			result = payrun.RecomputeResult{
				Payslip: mapToPayslipResponse(slip),
				Warnings: []payrun.Warning{{
					Code:       payrun.WarningMissingSalaryConfig,
					EmployeeID: slip.EmployeeID,
					Message:    fmt.Sprintf("no salary configuration for %d-%02d", run.PeriodYear, run.PeriodMonth),
				}},
			}
			return nil
		}
		if err != nil {
			return err
		}

		agg, err := s.attendanceAgg.GetAggregate(txCtx, companyID, slip.EmployeeID, run.PeriodMonth, run.PeriodYear)
		if err != nil {
			return fmt.Errorf("failed to get attendance aggregate: %w", err)
		}

		recomputed, warn, calcErr := s.calculator.Calculate(cfg, agg, settings)
		warnings := []payrun.Warning{}
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if calcErr != nil {
			// Unusable data: keep the prior payslip, report the warning.
			result = payrun.RecomputeResult{Payslip: mapToPayslipResponse(slip), Warnings: warnings}
			return nil
		}

		// Same identity, fresh figures.
		recomputed.ID = slip.ID
		recomputed.PayrunID = slip.PayrunID
		recomputed.Status = payrun.StatusComputed
		if err := s.payrunRepo.UpsertPayslip(txCtx, recomputed); err != nil {
			return err
		}

		totals, err := s.payrunRepo.SumPayslipTotals(txCtx, run.ID)
		if err != nil {
			return err
		}
		if err := s.payrunRepo.SetStatus(txCtx, run.ID, payrun.StatusComputed, totals); err != nil {
			return err
		}

		result = payrun.RecomputeResult{Payslip: mapToPayslipResponse(recomputed), Warnings: warnings}
		return nil
	})
	if err != nil {
		return payrun.RecomputeResult{}, err
	}

	return result, nil
}

// ========== DEDUCTION SETTINGS ==========

func (s *PayrunServiceImpl) GetDeductionSettings(ctx context.Context) (payrun.DeductionSettingsResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	settings, err := s.deductionSettings(ctx, companyID)
	if err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	return mapToDeductionSettingsResponse(settings), nil
}

func (s *PayrunServiceImpl) UpdateDeductionSettings(ctx context.Context, req payrun.UpdateDeductionSettingsRequest) (payrun.DeductionSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	current, err := s.deductionSettings(ctx, companyID)
	if err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	if req.ProvidentFundRate != nil {
		current.ProvidentFundRate = *req.ProvidentFundRate
	}
	if req.ProfessionalTaxSlabs != nil {
		current.ProfessionalTaxSlabs = req.ProfessionalTaxSlabs
	}

	updated, err := s.payrunRepo.UpsertDeductionSettings(ctx, current)
	if err != nil {
		return payrun.DeductionSettingsResponse{}, err
	}

	return mapToDeductionSettingsResponse(updated), nil
}

// deductionSettings falls back to the per-tenant defaults when the company
// has not configured its own.
func (s *PayrunServiceImpl) deductionSettings(ctx context.Context, companyID string) (payrun.DeductionSettings, error) {
	settings, err := s.payrunRepo.GetDeductionSettings(ctx, companyID)
	if errors.Is(err, payrun.ErrDeductionSettingsNotFound) {
		return payrun.DefaultDeductionSettings(companyID), nil
	}
	if err != nil {
		return payrun.DeductionSettings{}, err
	}
	return settings, nil
}

// ========== HELPERS ==========

func mapToPayrunResponse(run payrun.Payrun) payrun.PayrunResponse {
	return payrun.PayrunResponse{
		ID:            run.ID,
		CompanyID:     run.CompanyID,
		PeriodMonth:   run.PeriodMonth,
		PeriodYear:    run.PeriodYear,
		Status:        string(run.Status),
		GrossTotal:    run.GrossTotal,
		NetTotal:      run.NetTotal,
		EmployeeCount: run.EmployeeCount,
	}
}

func mapToPayslipResponse(slip payrun.Payslip) payrun.PayslipResponse {
	return payrun.PayslipResponse{
		ID:               slip.ID,
		PayrunID:         slip.PayrunID,
		EmployeeID:       slip.EmployeeID,
		Basic:            slip.Basic,
		Allowances:       slip.Allowances,
		MonthlyWage:      slip.MonthlyWage,
		TotalWorkingDays: slip.TotalWorkingDays,
		PayableDays:      slip.PayableDays,
		Gross:            slip.Gross,
		ProvidentFund:    slip.ProvidentFund,
		ProfessionalTax:  slip.ProfessionalTax,
		Net:              slip.Net,
		Status:           string(slip.Status),
	}
}

func mapToDeductionSettingsResponse(settings payrun.DeductionSettings) payrun.DeductionSettingsResponse {
	return payrun.DeductionSettingsResponse{
		ID:                   settings.ID,
		CompanyID:            settings.CompanyID,
		ProvidentFundRate:    settings.ProvidentFundRate,
		ProfessionalTaxSlabs: settings.ProfessionalTaxSlabs,
	}
}
