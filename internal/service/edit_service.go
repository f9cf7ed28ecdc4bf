package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/util"
	"github.com/kadewerk/tally/tally-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// KPIEditInput describes a single-field KPI edit. Value arrives as the raw
// operator input and must parse as a number before anything is persisted.
// Operator identifies who edits, for the audit log.
type KPIEditInput struct {
	Operator string
	Year     int
	Month    string
	Field    domain.KPIField
	Value    string
}

// ConsumptionEditInput describes a prior-year consumption correction.
// Year is the report year whose cached billables carry the figure;
// TargetYear is the calendar year being corrected and defaults to Year-1.
type ConsumptionEditInput struct {
	Operator   string
	BillableID int64
	Year       int
	TargetYear int
	Amount     string
	Unit       domain.ViewMode
	RefreshNow bool
}

// KPIEditEvent is the payload broadcast after a successful KPI edit.
type KPIEditEvent struct {
	Year   int             `json:"year"`
	Month  string          `json:"month"`
	Field  domain.KPIField `json:"field"`
	Record domain.MonthKPI `json:"record"`
}

// ConsumptionEditEvent is the payload broadcast after a successful
// consumption correction.
type ConsumptionEditEvent struct {
	Year       int             `json:"year"`
	TargetYear int             `json:"targetYear"`
	BillableID int64           `json:"billableId"`
	Unit       domain.ViewMode `json:"unit"`
}

// EditService applies operator edits in two phases: persist through the
// mutation service, then patch a response copy locally and invalidate the
// affected cache entries so the next read loads authoritative data. A
// rejected edit leaves the cache untouched.
type EditService struct {
	mutator        domain.MutationService
	reports        *ReportService
	eventPublisher websocket.EventPublisher
}

// NewEditService creates a new EditService
func NewEditService(mutator domain.MutationService, reports *ReportService) *EditService {
	return &EditService{
		mutator: mutator,
		reports: reports,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *EditService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *EditService) publishEvent(year int, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(year, event)
	}
}

// UpdateKPIField validates and persists one KPI field change, then returns
// the edited record with freshly recomputed diffs. The year's KPI cache
// entry is invalidated afterwards.
func (s *EditService) UpdateKPIField(ctx context.Context, input KPIEditInput) (*domain.MonthKPI, error) {
	if err := domain.ValidateReportYear(input.Year); err != nil {
		return nil, err
	}
	if !input.Field.Valid() {
		return nil, domain.NewValidationError("field", "must be \"targetRevenue\" or \"finalRevenue\"")
	}
	if !util.MonthKeyInYear(input.Month, input.Year) {
		return nil, domain.NewValidationError("month", "must be a YYYY-MM key of the requested year")
	}
	value, err := decimal.NewFromString(strings.TrimSpace(input.Value))
	if err != nil {
		return nil, domain.NewValidationError("value", "must be numeric")
	}

	if err := s.mutator.UpdateKPIField(ctx, input.Year, input.Month, input.Field, value); err != nil {
		return nil, domain.WrapMutationError("update kpi field", err)
	}

	log.Info().
		Str("edit_id", uuid.New().String()).
		Str("operator", input.Operator).
		Int("year", input.Year).
		Str("month", input.Month).
		Str("field", string(input.Field)).
		Str("value", value.String()).
		Msg("KPI field updated")

	// Patch a copy of the cached record before invalidating so the caller
	// sees the edit with consistent diffs without waiting for a refetch.
	patched := s.patchKPI(input.Year, input.Month, input.Field, value)
	s.reports.InvalidateKPIs(input.Year)

	s.publishEvent(input.Year, websocket.KPIUpdated(KPIEditEvent{
		Year:   input.Year,
		Month:  input.Month,
		Field:  input.Field,
		Record: patched,
	}))

	return &patched, nil
}

func (s *EditService) patchKPI(year int, month string, field domain.KPIField, value decimal.Decimal) domain.MonthKPI {
	record := domain.MonthKPI{Month: month}
	if kpis, ok := s.reports.CachedKPIs(year); ok {
		if existing := kpis.MonthIndex(month); existing != nil {
			record = *existing
		}
	}

	switch field {
	case domain.KPIFieldTargetRevenue:
		record.TargetRevenue = value
	case domain.KPIFieldFinalRevenue:
		v := value
		record.FinalRevenue = &v
	}

	total := decimal.Zero
	if billables, ok := s.reports.CachedBillables(year); ok {
		total = report.MonthlyTotal(billables, month, domain.ViewRevenue, nil)
	}
	return report.EnrichKPI(record, total)
}

// UpdateConsumption validates and persists a prior-year consumption
// correction, invalidates the report year's billables, and refetches them
// right away when RefreshNow is set. Remaining-budget figures derive from
// the corrected value and must not be served stale.
func (s *EditService) UpdateConsumption(ctx context.Context, input ConsumptionEditInput) (*domain.Billable, error) {
	if err := domain.ValidateReportYear(input.Year); err != nil {
		return nil, err
	}
	if input.BillableID <= 0 {
		return nil, domain.NewValidationError("billableId", "must be positive")
	}
	if !input.Unit.Valid() {
		return nil, domain.NewValidationError("unit", "must be \"hours\" or \"revenue\"")
	}
	targetYear := input.TargetYear
	if targetYear == 0 {
		targetYear = input.Year - 1
	}
	if err := domain.ValidateReportYear(targetYear); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(input.Amount))
	if err != nil {
		return nil, domain.NewValidationError("amount", "must be numeric")
	}

	if err := s.mutator.UpdateConsumption(ctx, input.BillableID, targetYear, amount, input.Unit); err != nil {
		return nil, domain.WrapMutationError("update consumption", err)
	}

	log.Info().
		Str("edit_id", uuid.New().String()).
		Str("operator", input.Operator).
		Int64("billable_id", input.BillableID).
		Int("year", input.Year).
		Int("target_year", targetYear).
		Str("unit", string(input.Unit)).
		Str("amount", amount.String()).
		Msg("Prior-year consumption updated")

	s.reports.InvalidateBillables(input.Year)

	var refreshed *domain.Billable
	if input.RefreshNow {
		billables, err := s.reports.BillablesForYear(ctx, input.Year, false)
		if err != nil {
			// The edit is already persisted; the next read retries the fetch.
			log.Warn().
				Err(err).
				Int("year", input.Year).
				Int64("billable_id", input.BillableID).
				Msg("refetch after consumption edit failed")
		} else {
			for i := range billables {
				if billables[i].ID == input.BillableID {
					refreshed = &billables[i]
					break
				}
			}
		}
	}

	s.publishEvent(input.Year, websocket.BillableUpdated(ConsumptionEditEvent{
		Year:       input.Year,
		TargetYear: targetYear,
		BillableID: input.BillableID,
		Unit:       input.Unit,
	}))

	return refreshed, nil
}
