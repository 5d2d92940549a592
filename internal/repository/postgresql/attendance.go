package postgresql

import (
	"context"
	"fmt"

	"github.com/kerjapay/payroll-backend-go/internal/domain/attendance"
	"github.com/kerjapay/payroll-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Aggregator {
	return &attendanceRepository{db: db}
}

// Payable days = days marked present + approved paid leave days for the
// month. The inner join on the work calendar means employees of a company
// without a calendar row for the period produce no aggregate at all; the
// caller reports that as a data problem.
const aggregateQuery = `
	SELECT e.id,
		   cal.total_working_days,
		   COALESCE(att.present_days, 0) + COALESCE(ls.paid_leave_days, 0) AS payable_days
	FROM employees e
	JOIN company_work_calendars cal
	  ON cal.company_id = e.company_id AND cal.period_month = $3 AND cal.period_year = $4
	LEFT JOIN (
		SELECT employee_id, COUNT(*) AS present_days
		FROM attendances
		WHERE status = 'present'
		  AND EXTRACT(MONTH FROM attendance_date) = $3
		  AND EXTRACT(YEAR FROM attendance_date) = $4
		GROUP BY employee_id
	) att ON att.employee_id = e.id
	LEFT JOIN monthly_leave_summaries ls
	  ON ls.employee_id = e.id AND ls.period_month = $3 AND ls.period_year = $4
	WHERE e.company_id = $1 AND e.id = ANY($2::uuid[])
`

func (r *attendanceRepository) GetAggregate(ctx context.Context, companyID, employeeID string, month, year int) (attendance.Aggregate, error) {
	aggregates, err := r.GetAggregates(ctx, companyID, []string{employeeID}, month, year)
	if err != nil {
		return attendance.Aggregate{}, err
	}

	agg, ok := aggregates[employeeID]
	if !ok {
		return attendance.Aggregate{}, attendance.ErrCalendarNotFound
	}

	return agg, nil
}

func (r *attendanceRepository) GetAggregates(ctx context.Context, companyID string, employeeIDs []string, month, year int) (map[string]attendance.Aggregate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, aggregateQuery, companyID, employeeIDs, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance aggregates: %w", err)
	}
	defer rows.Close()

	aggregates := make(map[string]attendance.Aggregate, len(employeeIDs))
	for rows.Next() {
		var agg attendance.Aggregate
		if err := rows.Scan(&agg.EmployeeID, &agg.TotalWorkingDays, &agg.PayableDays); err != nil {
			return nil, fmt.Errorf("failed to scan attendance aggregate: %w", err)
		}
		aggregates[agg.EmployeeID] = agg
	}

	return aggregates, nil
}
