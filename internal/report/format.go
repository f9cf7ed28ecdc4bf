package report

import (
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with the view mode's display precision:
// tenths for hours, whole units for revenue.
func FormatAmount(d decimal.Decimal, mode domain.ViewMode) string {
	return d.StringFixed(mode.DecimalPlaces())
}

// FormatOptional renders an optional amount, "-" when no figure exists.
func FormatOptional(d *decimal.Decimal, mode domain.ViewMode) string {
	if d == nil {
		return "-"
	}
	return FormatAmount(*d, mode)
}
