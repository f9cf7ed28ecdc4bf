package report

import (
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/util"
	"github.com/shopspring/decimal"
)

// Row is one billable with its derived year figures.
type Row struct {
	Billable  domain.Billable
	RowTotal  decimal.Decimal
	Remaining *decimal.Decimal
	Included  bool
}

// YearReport is the fully aggregated consumption report for one calendar
// year in one view mode. KPI rows are always denominated in revenue, even
// when the table itself shows hours.
type YearReport struct {
	Year             int
	Mode             domain.ViewMode
	Months           []string
	Rows             []Row
	MonthlyTotals    map[string]decimal.Decimal
	GrandTotal       decimal.Decimal
	ConsumptionTotal decimal.Decimal
	KPIs             []domain.MonthKPI
}

// BuildYearReport aggregates billables and KPI rows into a year report.
// Inputs are treated as read-only; rows come out in input order and can be
// rearranged afterwards with a Sorter.
func BuildYearReport(year int, mode domain.ViewMode, billables []domain.Billable, kpis domain.YearKPIs, included Inclusion) *YearReport {
	months := util.MonthKeysForYear(year)

	rows := make([]Row, 0, len(billables))
	for _, b := range billables {
		rt := RowTotal(b, months, mode)
		rows = append(rows, Row{
			Billable:  b,
			RowTotal:  rt,
			Remaining: Remaining(b, rt),
			Included:  included.Includes(b.ID),
		})
	}

	monthlyTotals := make(map[string]decimal.Decimal, len(months))
	grand := decimal.Zero
	for _, m := range months {
		mt := MonthlyTotal(billables, m, mode, included)
		monthlyTotals[m] = mt
		grand = grand.Add(mt)
	}

	enriched := make([]domain.MonthKPI, 0, len(kpis.Months))
	for _, kpi := range kpis.Months {
		revenueTotal := MonthlyTotal(billables, kpi.Month, domain.ViewRevenue, included)
		enriched = append(enriched, EnrichKPI(kpi, revenueTotal))
	}

	return &YearReport{
		Year:             year,
		Mode:             mode,
		Months:           months,
		Rows:             rows,
		MonthlyTotals:    monthlyTotals,
		GrandTotal:       grand,
		ConsumptionTotal: ConsumptionTotal(billables, included),
		KPIs:             enriched,
	}
}
