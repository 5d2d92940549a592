package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerjapay/payroll-backend-go/internal/domain/payrun"
)

// txContext starts a mock transaction and stores it in the context the way
// the transactor does, so repository calls run against the mock.
func txContext(t *testing.T, mock pgxmock.PgxPoolIface) context.Context {
	t.Helper()
	ctx := context.Background()
	mock.ExpectBegin()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	return context.WithValue(ctx, "tx", tx)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// anyArgs returns n pgxmock.AnyArg matchers, for expectations where the test
// does not care about the individual argument values.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func payrunColumns() []string {
	return []string{
		"id", "company_id", "period_month", "period_year", "status",
		"gross_total", "net_total", "employee_count", "created_at", "updated_at",
	}
}

func TestPayrunRepository_GetByID(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, company_id, period_month, period_year, status`).
		WithArgs("run-1", "company-1").
		WillReturnRows(pgxmock.NewRows(payrunColumns()).AddRow(
			"run-1", "company-1", 3, 2025, payrun.StatusDraft,
			decimal.Zero, decimal.Zero, 0, now, now,
		))

	run, err := repo.GetByID(ctx, "run-1", "company-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, payrun.StatusDraft, run.Status)
	assert.Equal(t, 3, run.PeriodMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_GetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectQuery(`SELECT id, company_id, period_month, period_year, status`).
		WithArgs("missing", "company-1").
		WillReturnRows(pgxmock.NewRows(payrunColumns()))

	_, err := repo.GetByID(ctx, "missing", "company-1")
	assert.ErrorIs(t, err, payrun.ErrPayrunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_GetForUpdate_LocksRow(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	now := time.Now()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("run-1", "company-1").
		WillReturnRows(pgxmock.NewRows(payrunColumns()).AddRow(
			"run-1", "company-1", 3, 2025, payrun.StatusComputed,
			decimal.NewFromInt(25000), decimal.NewFromInt(22400), 1, now, now,
		))

	run, err := repo.GetForUpdate(ctx, "run-1", "company-1")
	require.NoError(t, err)
	assert.Equal(t, payrun.StatusComputed, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_Create_DuplicatePeriod(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectQuery(`INSERT INTO payruns`).
		WithArgs(anyArgs(7)...).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "uk_payrun_company_period" (SQLSTATE 23505)`))

	_, err := repo.Create(ctx, payrun.Payrun{
		CompanyID: "company-1", PeriodMonth: 3, PeriodYear: 2025, Status: payrun.StatusDraft,
		GrossTotal: decimal.Zero, NetTotal: decimal.Zero,
	})
	assert.ErrorIs(t, err, payrun.ErrPayrunAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_SetStatus_NotFound(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectQuery(`UPDATE payruns`).
		WithArgs("missing", payrun.StatusComputed, decimal.Zero, decimal.Zero, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	err := repo.SetStatus(ctx, "missing", payrun.StatusComputed, payrun.Totals{Gross: decimal.Zero, Net: decimal.Zero})
	assert.ErrorIs(t, err, payrun.ErrPayrunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_ReplacePayslips(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM payslips WHERE payrun_id = $1`)).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	mock.ExpectExec(`INSERT INTO payslips`).
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO payslips`).
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	slips := []payrun.Payslip{
		{EmployeeID: "emp-1", Basic: decimal.NewFromInt(20000), MonthlyWage: decimal.NewFromInt(20000),
			TotalWorkingDays: 22, PayableDays: decimal.NewFromInt(22), Gross: decimal.NewFromInt(20000),
			ProvidentFund: decimal.NewFromInt(2400), ProfessionalTax: decimal.NewFromInt(200),
			Net: decimal.NewFromInt(17400), Status: payrun.StatusComputed},
		{EmployeeID: "emp-2", Basic: decimal.NewFromInt(8000), MonthlyWage: decimal.NewFromInt(8000),
			TotalWorkingDays: 22, PayableDays: decimal.NewFromInt(22), Gross: decimal.NewFromInt(8000),
			ProvidentFund: decimal.NewFromInt(960), ProfessionalTax: decimal.Zero,
			Net: decimal.NewFromInt(7040), Status: payrun.StatusComputed},
	}

	err := repo.ReplacePayslips(ctx, "run-1", slips)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_ReplacePayslips_Empty(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	// No employees computed still clears prior results.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM payslips WHERE payrun_id = $1`)).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.ReplacePayslips(ctx, "run-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_SumPayslipTotals(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(gross), 0), COALESCE(SUM(net), 0), COUNT(*)`)).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"gross", "net", "count"}).
			AddRow(decimal.NewFromInt(28000), decimal.NewFromInt(24440), 2))

	totals, err := repo.SumPayslipTotals(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, totals.Gross.Equal(decimal.NewFromInt(28000)))
	assert.True(t, totals.Net.Equal(decimal.NewFromInt(24440)))
	assert.Equal(t, 2, totals.EmployeeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_GetDeductionSettings(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	now := time.Now()
	slabs := []byte(`[{"up_to":"10000","amount":"0"},{"amount":"200"}]`)
	mock.ExpectQuery(`SELECT id, company_id, provident_fund_rate`).
		WithArgs("company-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "company_id", "provident_fund_rate", "professional_tax_slabs", "created_at", "updated_at",
		}).AddRow("set-1", "company-1", decimal.NewFromFloat(0.12), slabs, now, now))

	settings, err := repo.GetDeductionSettings(ctx, "company-1")
	require.NoError(t, err)
	require.Len(t, settings.ProfessionalTaxSlabs, 2)
	require.NotNil(t, settings.ProfessionalTaxSlabs[0].UpTo)
	assert.True(t, settings.ProfessionalTaxSlabs[0].UpTo.Equal(decimal.NewFromInt(10000)))
	assert.Nil(t, settings.ProfessionalTaxSlabs[1].UpTo)
	assert.True(t, settings.ProfessionalTaxSlabs[1].Amount.Equal(decimal.NewFromInt(200)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrunRepository_GetDeductionSettings_NotFound(t *testing.T) {
	mock := newMockPool(t)
	ctx := txContext(t, mock)
	repo := NewPayrunRepository(nil)

	mock.ExpectQuery(`SELECT id, company_id, provident_fund_rate`).
		WithArgs("company-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "company_id", "provident_fund_rate", "professional_tax_slabs", "created_at", "updated_at",
		}))

	_, err := repo.GetDeductionSettings(ctx, "company-1")
	assert.ErrorIs(t, err, payrun.ErrDeductionSettingsNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
