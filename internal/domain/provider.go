package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// DataKind identifies one of the two independently cached datasets.
type DataKind string

const (
	KindBillables DataKind = "billables"
	KindKPIs      DataKind = "kpis"
)

// DataProvider loads the raw reporting datasets for one calendar year.
// Implementations must return fully populated rows: twelve KPI months in
// calendar order and billables whose month maps use "YYYY-MM" keys of the
// requested year.
type DataProvider interface {
	FetchBillables(ctx context.Context, year int) ([]Billable, error)
	FetchYearKPIs(ctx context.Context, year int) (YearKPIs, error)
}

// MutationService applies operator edits to the backing datasets. Writes
// only touch persistence; refreshed report data is obtained by invalidating
// the affected cache entries and fetching again.
type MutationService interface {
	UpdateKPIField(ctx context.Context, year int, month string, field KPIField, value decimal.Decimal) error
	UpdateConsumption(ctx context.Context, billableID int64, targetYear int, amount decimal.Decimal, unit ViewMode) error
}
