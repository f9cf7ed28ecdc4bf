package report

import (
	"sort"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Column names a sortable report column.
type Column string

const (
	ColumnCompany     Column = "company"
	ColumnName        Column = "name"
	ColumnCategory    Column = "category"
	ColumnBudget      Column = "budget"
	ColumnConsumption Column = "consumption"
	ColumnRemaining   Column = "remaining"
	ColumnTotal       Column = "total"
	ColumnMonth       Column = "month"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnCompany, ColumnName, ColumnCategory, ColumnBudget,
		ColumnConsumption, ColumnRemaining, ColumnTotal, ColumnMonth:
		return true
	}
	return false
}

// ParseColumn converts operator input into a Column.
func ParseColumn(s string) (Column, error) {
	c := Column(s)
	if !c.Valid() {
		return "", domain.NewValidationError("sort", "unknown sort column")
	}
	return c, nil
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection converts operator input into a Direction, defaulting to
// ascending for the empty string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return Ascending, nil
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", domain.NewValidationError("dir", "must be \"asc\" or \"desc\"")
}

// SortOptions selects the column and direction for a report sort. Month is
// the "YYYY-MM" key of the column when Column is ColumnMonth, and Mode picks
// the series a month column reads from.
type SortOptions struct {
	Column    Column
	Month     string
	Direction Direction
	Mode      domain.ViewMode
}

// Sorter orders report rows with locale-aware text comparison.
type Sorter struct {
	tag language.Tag
}

func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{tag: tag}
}

// SortRows rearranges rows in place. The sort is stable, so rows that
// compare equal keep their input order. Missing numeric cells compare as
// zero, missing text cells as the empty string.
func (s *Sorter) SortRows(rows []Row, opts SortOptions) {
	if opts.Column == "" {
		return
	}
	// collate.Collator carries internal scratch buffers and must not be
	// shared across goroutines, so each sort builds its own.
	col := collate.New(s.tag)
	desc := opts.Direction == Descending

	sort.SliceStable(rows, func(i, j int) bool {
		c := compareRows(col, rows[i], rows[j], opts)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareRows(col *collate.Collator, a, b Row, opts SortOptions) int {
	switch opts.Column {
	case ColumnCompany:
		return col.CompareString(a.Billable.Company, b.Billable.Company)
	case ColumnName:
		return col.CompareString(a.Billable.Name, b.Billable.Name)
	case ColumnCategory:
		return col.CompareString(string(a.Billable.Category), string(b.Billable.Category))
	case ColumnBudget:
		return decimalOrZero(a.Billable.BudgetExclVAT).Cmp(decimalOrZero(b.Billable.BudgetExclVAT))
	case ColumnConsumption:
		return decimalOrZero(a.Billable.PriorConsumption).Cmp(decimalOrZero(b.Billable.PriorConsumption))
	case ColumnRemaining:
		return decimalOrZero(a.Remaining).Cmp(decimalOrZero(b.Remaining))
	case ColumnTotal:
		return a.RowTotal.Cmp(b.RowTotal)
	case ColumnMonth:
		av := MonthValue(a.Billable, opts.Month, opts.Mode)
		bv := MonthValue(b.Billable, opts.Month, opts.Mode)
		return av.Cmp(bv)
	}
	return 0
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
