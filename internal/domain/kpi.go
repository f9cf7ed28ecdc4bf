package domain

import (
	"github.com/shopspring/decimal"
)

// KPIField names the manually maintained figures on a month KPI row.
type KPIField string

const (
	KPIFieldTargetRevenue KPIField = "targetRevenue"
	KPIFieldFinalRevenue  KPIField = "finalRevenue"
)

func (f KPIField) Valid() bool {
	return f == KPIFieldTargetRevenue || f == KPIFieldFinalRevenue
}

// ParseKPIField converts operator input into a KPIField.
func ParseKPIField(s string) (KPIField, error) {
	field := KPIField(s)
	if !field.Valid() {
		return "", NewValidationError("field", "must be \"targetRevenue\" or \"finalRevenue\"")
	}
	return field, nil
}

// MonthKPI carries the revenue goal figures for one calendar month.
// TargetRevenue is the planned figure, FinalRevenue the confirmed outcome
// once the month is closed out (nil until then). TotalRevenue and the two
// diffs are derived from the billables of the same year and recomputed by
// the reporting engine, never stored.
type MonthKPI struct {
	Month           string           `json:"month"`
	TargetRevenue   decimal.Decimal  `json:"targetRevenue"`
	FinalRevenue    *decimal.Decimal `json:"finalRevenue,omitempty"`
	TotalRevenue    decimal.Decimal  `json:"totalRevenue"`
	TargetFinalDiff *decimal.Decimal `json:"targetFinalDiff,omitempty"`
	TargetTotalDiff decimal.Decimal  `json:"targetTotalDiff"`
}

// YearKPIs holds the twelve KPI rows of one calendar year in month order.
type YearKPIs struct {
	Year   int        `json:"year"`
	Months []MonthKPI `json:"months"`
}

// MonthIndex returns the KPI row for the given "YYYY-MM" key, or nil when
// the key does not belong to this year.
func (y YearKPIs) MonthIndex(key string) *MonthKPI {
	for i := range y.Months {
		if y.Months[i].Month == key {
			return &y.Months[i]
		}
	}
	return nil
}
