package report

import (
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Inclusion is the set of billable IDs counted into cross-billable totals.
// A nil Inclusion counts everything. Exclusion never removes a row from the
// report, it only keeps the row out of the totals.
type Inclusion map[int64]bool

// NewInclusion builds an Inclusion from a list of billable IDs.
func NewInclusion(ids []int64) Inclusion {
	set := make(Inclusion, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (in Inclusion) Includes(id int64) bool {
	if in == nil {
		return true
	}
	return in[id]
}

// Series selects the per-month value map matching the view mode.
func Series(b domain.Billable, mode domain.ViewMode) map[string]decimal.Decimal {
	if mode == domain.ViewHours {
		return b.MonthlyHours
	}
	return b.MonthlyRevenue
}

// MonthValue returns the billable's booking for one month, zero when the
// month carries no booking.
func MonthValue(b domain.Billable, month string, mode domain.ViewMode) decimal.Decimal {
	if v, ok := Series(b, mode)[month]; ok {
		return v
	}
	return decimal.Zero
}

// RowTotal sums a billable's bookings across the given months. Keys outside
// the month list are ignored, so stray entries from other years never leak
// into a year's row total.
func RowTotal(b domain.Billable, months []string, mode domain.ViewMode) decimal.Decimal {
	total := decimal.Zero
	series := Series(b, mode)
	for _, m := range months {
		if v, ok := series[m]; ok {
			total = total.Add(v)
		}
	}
	return total
}

// MonthlyTotal sums one month's bookings across the included billables.
func MonthlyTotal(billables []domain.Billable, month string, mode domain.ViewMode, included Inclusion) decimal.Decimal {
	total := decimal.Zero
	for _, b := range billables {
		if !included.Includes(b.ID) {
			continue
		}
		if v, ok := Series(b, mode)[month]; ok {
			total = total.Add(v)
		}
	}
	return total
}

// GrandTotal sums the monthly totals across the whole year. Prior-year
// consumption is never part of this figure; it is reported separately via
// ConsumptionTotal.
func GrandTotal(billables []domain.Billable, months []string, mode domain.ViewMode, included Inclusion) decimal.Decimal {
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(MonthlyTotal(billables, m, mode, included))
	}
	return total
}

// ConsumptionTotal sums the prior-year consumption carried by the included
// billables. It stands on its own line and is never folded into GrandTotal.
func ConsumptionTotal(billables []domain.Billable, included Inclusion) decimal.Decimal {
	total := decimal.Zero
	for _, b := range billables {
		if !included.Includes(b.ID) || b.PriorConsumption == nil {
			continue
		}
		total = total.Add(*b.PriorConsumption)
	}
	return total
}

// Remaining derives the budget left on a fixed-budget billable as budget
// minus row total. Billables without a fixed budget keep whatever remaining
// figure the upstream system supplied, untouched. Returns nil when nothing
// can be said.
func Remaining(b domain.Billable, rowTotal decimal.Decimal) *decimal.Decimal {
	if !b.FixedBudget() {
		return b.RemainingBudget
	}
	if b.BudgetExclVAT == nil {
		return nil
	}
	r := b.BudgetExclVAT.Sub(rowTotal)
	return &r
}

// EnrichKPI fills the derived fields of one KPI row from the month's revenue
// total. targetTotalDiff is always defined; targetFinalDiff only once a
// final figure exists. Enriching an already enriched row yields the same
// result.
func EnrichKPI(kpi domain.MonthKPI, totalRevenue decimal.Decimal) domain.MonthKPI {
	kpi.TotalRevenue = totalRevenue
	kpi.TargetTotalDiff = totalRevenue.Sub(kpi.TargetRevenue)
	if kpi.FinalRevenue != nil {
		d := kpi.FinalRevenue.Sub(kpi.TargetRevenue)
		kpi.TargetFinalDiff = &d
	} else {
		kpi.TargetFinalDiff = nil
	}
	return kpi
}
