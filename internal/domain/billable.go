package domain

import (
	"github.com/shopspring/decimal"
)

// Category describes the commercial model of a billable.
type Category string

const (
	CategoryFixedPrice       Category = "fixed_price"
	CategoryTimeAndMaterials Category = "time_and_materials"
	CategoryContract         Category = "contract"
	CategoryInternal         Category = "internal"
)

// Origin tells whether a billable came from a won project or a standing offer.
type Origin string

const (
	OriginProject Origin = "project"
	OriginOffer   Origin = "offer"
)

// SyncStatus reflects whether the upstream time-tracking sync has caught up
// with the billable's bookings.
type SyncStatus string

const (
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusPending  SyncStatus = "pending"
)

// ViewMode selects which measurement a report is denominated in.
type ViewMode string

const (
	ViewHours   ViewMode = "hours"
	ViewRevenue ViewMode = "revenue"
)

// DecimalPlaces returns the display precision for amounts in this mode:
// whole units for currency, tenths for hours.
func (m ViewMode) DecimalPlaces() int32 {
	if m == ViewHours {
		return 1
	}
	return 0
}

func (m ViewMode) Valid() bool {
	return m == ViewHours || m == ViewRevenue
}

// ParseViewMode converts operator input into a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	mode := ViewMode(s)
	if !mode.Valid() {
		return "", NewValidationError("viewMode", "must be \"hours\" or \"revenue\"")
	}
	return mode, nil
}

// Billable is one reportable engagement: a project or an offer with its
// per-month bookings for a single calendar year. Month keys are "YYYY-MM".
// Budget fields are nil when the upstream system carries no figure.
type Billable struct {
	ID               int64                      `json:"id"`
	Name             string                     `json:"name"`
	Company          string                     `json:"company"`
	Category         Category                   `json:"category"`
	Origin           Origin                     `json:"origin"`
	BudgetExclVAT    *decimal.Decimal           `json:"budgetExclVat,omitempty"`
	PriorConsumption *decimal.Decimal           `json:"priorConsumption,omitempty"`
	RemainingBudget  *decimal.Decimal           `json:"remainingBudget,omitempty"`
	MonthlyHours     map[string]decimal.Decimal `json:"monthlyHours"`
	MonthlyRevenue   map[string]decimal.Decimal `json:"monthlyRevenue"`
	OverBudget       map[string]bool            `json:"overBudget,omitempty"`
	SyncStatus       SyncStatus                 `json:"syncStatus"`
}

// FixedBudget reports whether the billable settles against a fixed budget,
// which is the case for fixed-price work and anything originating from an
// offer regardless of category.
func (b Billable) FixedBudget() bool {
	return b.Category == CategoryFixedPrice || b.Origin == OriginOffer
}
