package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/util"
	"github.com/shopspring/decimal"
)

// ReportRepository implements domain.DataProvider and domain.MutationService
// using PostgreSQL. The tables hold the latest state pushed by the sync
// pipeline plus the manually maintained KPI and consumption figures.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

var (
	_ domain.DataProvider    = (*ReportRepository)(nil)
	_ domain.MutationService = (*ReportRepository)(nil)
)

// FetchBillables returns every billable of the year with both monthly series
// attached. Billables without any bookings come back with empty series.
func (r *ReportRepository) FetchBillables(ctx context.Context, year int) ([]domain.Billable, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, company, category, origin,
		       budget_excl_vat, prior_consumption, remaining_budget, sync_status
		FROM billables
		WHERE year = $1
		ORDER BY company, name, id`, year)
	if err != nil {
		return nil, fmt.Errorf("query billables: %w", err)
	}
	defer rows.Close()

	billables := make([]domain.Billable, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			b           domain.Billable
			category    string
			origin      string
			syncStatus  string
			budget      pgtype.Numeric
			consumption pgtype.Numeric
			remaining   pgtype.Numeric
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Company, &category, &origin, &budget, &consumption, &remaining, &syncStatus); err != nil {
			return nil, fmt.Errorf("scan billable: %w", err)
		}
		b.Category = domain.Category(category)
		b.Origin = domain.Origin(origin)
		b.SyncStatus = domain.SyncStatus(syncStatus)
		b.BudgetExclVAT = pgNumericToDecimalPtr(budget)
		b.PriorConsumption = pgNumericToDecimalPtr(consumption)
		b.RemainingBudget = pgNumericToDecimalPtr(remaining)
		b.MonthlyHours = make(map[string]decimal.Decimal)
		b.MonthlyRevenue = make(map[string]decimal.Decimal)
		index[b.ID] = len(billables)
		billables = append(billables, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read billables: %w", err)
	}

	if err := r.attachMonths(ctx, year, billables, index); err != nil {
		return nil, err
	}
	return billables, nil
}

func (r *ReportRepository) attachMonths(ctx context.Context, year int, billables []domain.Billable, index map[int64]int) error {
	rows, err := r.pool.Query(ctx, `
		SELECT billable_id, month, hours, revenue, over_budget
		FROM billable_months
		WHERE year = $1`, year)
	if err != nil {
		return fmt.Errorf("query billable months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			billableID int64
			month      string
			hours      pgtype.Numeric
			revenue    pgtype.Numeric
			overBudget bool
		)
		if err := rows.Scan(&billableID, &month, &hours, &revenue, &overBudget); err != nil {
			return fmt.Errorf("scan billable month: %w", err)
		}
		i, ok := index[billableID]
		if !ok {
			continue
		}
		billables[i].MonthlyHours[month] = pgNumericToDecimal(hours)
		billables[i].MonthlyRevenue[month] = pgNumericToDecimal(revenue)
		if overBudget {
			if billables[i].OverBudget == nil {
				billables[i].OverBudget = make(map[string]bool)
			}
			billables[i].OverBudget[month] = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read billable months: %w", err)
	}
	return nil
}

// FetchYearKPIs returns the twelve KPI rows of the year in month order.
// Months without a stored row come back with a zero target and no final
// figure, so a freshly synced year is still editable.
func (r *ReportRepository) FetchYearKPIs(ctx context.Context, year int) (domain.YearKPIs, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT month, target_revenue, final_revenue
		FROM kpi_months
		WHERE year = $1`, year)
	if err != nil {
		return domain.YearKPIs{}, fmt.Errorf("query kpi months: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]domain.MonthKPI, 12)
	for rows.Next() {
		var (
			month  string
			target pgtype.Numeric
			final  pgtype.Numeric
		)
		if err := rows.Scan(&month, &target, &final); err != nil {
			return domain.YearKPIs{}, fmt.Errorf("scan kpi month: %w", err)
		}
		byMonth[month] = domain.MonthKPI{
			Month:         month,
			TargetRevenue: pgNumericToDecimal(target),
			FinalRevenue:  pgNumericToDecimalPtr(final),
		}
	}
	if err := rows.Err(); err != nil {
		return domain.YearKPIs{}, fmt.Errorf("read kpi months: %w", err)
	}

	kpis := domain.YearKPIs{Year: year, Months: make([]domain.MonthKPI, 0, 12)}
	for _, key := range util.MonthKeysForYear(year) {
		if kpi, ok := byMonth[key]; ok {
			kpis.Months = append(kpis.Months, kpi)
			continue
		}
		kpis.Months = append(kpis.Months, domain.MonthKPI{Month: key, TargetRevenue: decimal.Zero})
	}
	return kpis, nil
}

// UpdateKPIField persists a single KPI field change. Upserting keeps the
// edit valid for months the sync has not materialized yet.
func (r *ReportRepository) UpdateKPIField(ctx context.Context, year int, month string, field domain.KPIField, value decimal.Decimal) error {
	if !util.MonthKeyInYear(month, year) {
		return domain.ErrMonthNotInYear
	}
	num, err := decimalToPgNumeric(value)
	if err != nil {
		return err
	}

	var query string
	switch field {
	case domain.KPIFieldTargetRevenue:
		query = `
			INSERT INTO kpi_months (year, month, target_revenue)
			VALUES ($1, $2, $3)
			ON CONFLICT (year, month)
			DO UPDATE SET target_revenue = EXCLUDED.target_revenue, updated_at = now()`
	case domain.KPIFieldFinalRevenue:
		query = `
			INSERT INTO kpi_months (year, month, final_revenue)
			VALUES ($1, $2, $3)
			ON CONFLICT (year, month)
			DO UPDATE SET final_revenue = EXCLUDED.final_revenue, updated_at = now()`
	default:
		return fmt.Errorf("unknown kpi field %q", field)
	}

	if _, err := r.pool.Exec(ctx, query, year, month, num); err != nil {
		return fmt.Errorf("update kpi %s: %w", field, err)
	}
	return nil
}

// UpdateConsumption stores a corrected prior-year consumption figure. The
// figure lives on the billable's row of the year after targetYear, which is
// the report that surfaces it next to the current bookings.
func (r *ReportRepository) UpdateConsumption(ctx context.Context, billableID int64, targetYear int, amount decimal.Decimal, unit domain.ViewMode) error {
	num, err := decimalToPgNumeric(amount)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE billables
		SET prior_consumption = $1, prior_consumption_unit = $2, updated_at = now()
		WHERE id = $3 AND year = $4`,
		num, string(unit), billableID, targetYear+1)
	if err != nil {
		return fmt.Errorf("update consumption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBillableMissing
	}
	return nil
}

// Helper functions

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func pgNumericToDecimalPtr(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}
