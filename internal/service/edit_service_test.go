package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kadewerk/tally/tally-backend/internal/cache"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newEditFixture(t *testing.T) (*EditService, *testutil.MockMutationService, *ReportService, *testutil.MockDataProvider, *testutil.MockEventPublisher) {
	t.Helper()
	provider := testutil.NewMockDataProvider()
	reports := NewReportService(provider, report.NewSorter(language.German))
	mutator := testutil.NewMockMutationService()
	publisher := testutil.NewMockEventPublisher()
	svc := NewEditService(mutator, reports)
	svc.SetEventPublisher(publisher)
	return svc, mutator, reports, provider, publisher
}

func warmYear(t *testing.T, reports *ReportService, year int) {
	t.Helper()
	_, err := reports.YearReport(context.Background(), ReportQuery{Year: year, Mode: domain.ViewHours})
	require.NoError(t, err)
}

func TestEditService_UpdateKPIField_PersistsAndInvalidates(t *testing.T) {
	svc, mutator, reports, provider, publisher := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)

	record, err := svc.UpdateKPIField(context.Background(), KPIEditInput{
		Operator: "auth0|op",
		Year:     2025,
		Month:    "2025-01",
		Field:    domain.KPIFieldTargetRevenue,
		Value:    " 5000 ",
	})
	require.NoError(t, err)

	require.Len(t, mutator.KPIUpdates, 1)
	call := mutator.KPIUpdates[0]
	assert.Equal(t, 2025, call.Year)
	assert.Equal(t, "2025-01", call.Month)
	assert.Equal(t, domain.KPIFieldTargetRevenue, call.Field)
	assert.True(t, call.Value.Equal(decimal.NewFromInt(5000)), "value = %s", call.Value)

	// The returned record is patched from cached data with fresh diffs
	require.NotNil(t, record)
	assert.Equal(t, "2025-01", record.Month)
	assert.True(t, record.TargetRevenue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, record.TotalRevenue.Equal(decimal.NewFromInt(7800)), "total = %s", record.TotalRevenue)
	assert.True(t, record.TargetTotalDiff.Equal(decimal.NewFromInt(2800)), "diff = %s", record.TargetTotalDiff)

	// Only the KPI entry drops; billables keep serving from cache
	snapshot := reports.CacheSnapshot()
	assert.Equal(t, cache.StateIdle, snapshot[domain.KindKPIs][0].State)
	assert.Equal(t, cache.StateReady, snapshot[domain.KindBillables][0].State)

	event, ok := publisher.LastEvent()
	require.True(t, ok)
	assert.Equal(t, 2025, event.Year)
	assert.Equal(t, "kpi.updated", event.Event.Type)
	payload, ok := event.Event.Payload.(KPIEditEvent)
	require.True(t, ok, "payload type %T", event.Event.Payload)
	assert.Equal(t, "2025-01", payload.Month)
}

func TestEditService_UpdateKPIField_FinalRevenueDiff(t *testing.T) {
	svc, _, reports, provider, _ := newEditFixture(t)
	seedProviderYear(provider, 2025)
	kpis := emptyYearKPIs(2025)
	kpis.Months[0].TargetRevenue = decimal.NewFromInt(1000)
	provider.AddKPIs(2025, kpis)
	warmYear(t, reports, 2025)

	record, err := svc.UpdateKPIField(context.Background(), KPIEditInput{
		Operator: "auth0|op",
		Year:     2025,
		Month:    "2025-01",
		Field:    domain.KPIFieldFinalRevenue,
		Value:    "1200",
	})
	require.NoError(t, err)

	assert.True(t, record.TargetRevenue.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, record.FinalRevenue)
	assert.True(t, record.FinalRevenue.Equal(decimal.NewFromInt(1200)))
	require.NotNil(t, record.TargetFinalDiff)
	assert.True(t, record.TargetFinalDiff.Equal(decimal.NewFromInt(200)), "diff = %s", record.TargetFinalDiff)
}

func TestEditService_UpdateKPIField_RejectsBadInput(t *testing.T) {
	svc, mutator, reports, provider, publisher := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)

	tests := []struct {
		name  string
		input KPIEditInput
	}{
		{"Year out of range", KPIEditInput{Year: 1999, Month: "1999-01", Field: domain.KPIFieldTargetRevenue, Value: "1"}},
		{"Unknown field", KPIEditInput{Year: 2025, Month: "2025-01", Field: domain.KPIField("margin"), Value: "1"}},
		{"Month outside year", KPIEditInput{Year: 2025, Month: "2024-03", Field: domain.KPIFieldTargetRevenue, Value: "1"}},
		{"Month not a key", KPIEditInput{Year: 2025, Month: "March", Field: domain.KPIFieldTargetRevenue, Value: "1"}},
		{"Value not numeric", KPIEditInput{Year: 2025, Month: "2025-01", Field: domain.KPIFieldTargetRevenue, Value: "a lot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateKPIField(context.Background(), tt.input)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "expected a validation error, got %T", err)
		})
	}

	assert.Empty(t, mutator.KPIUpdates, "rejected input must not reach the mutation service")
	assert.Equal(t, 0, publisher.EventCount())
	snapshot := reports.CacheSnapshot()
	assert.Equal(t, cache.StateReady, snapshot[domain.KindKPIs][0].State, "rejected input leaves the cache alone")
}

func TestEditService_UpdateKPIField_MutationRejected(t *testing.T) {
	svc, mutator, reports, provider, publisher := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)
	mutator.KPIErr = errors.New("kpi row locked")

	_, err := svc.UpdateKPIField(context.Background(), KPIEditInput{
		Year:  2025,
		Month: "2025-01",
		Field: domain.KPIFieldTargetRevenue,
		Value: "5000",
	})
	require.Error(t, err)

	var me *domain.MutationError
	require.True(t, errors.As(err, &me), "expected a mutation error, got %T", err)

	snapshot := reports.CacheSnapshot()
	assert.Equal(t, cache.StateReady, snapshot[domain.KindKPIs][0].State, "rejected edit leaves the cache alone")
	assert.Equal(t, 0, publisher.EventCount())
}

func TestEditService_UpdateKPIField_WithoutCachedData(t *testing.T) {
	svc, mutator, _, _, publisher := newEditFixture(t)

	record, err := svc.UpdateKPIField(context.Background(), KPIEditInput{
		Year:  2025,
		Month: "2025-06",
		Field: domain.KPIFieldTargetRevenue,
		Value: "5000",
	})
	require.NoError(t, err)

	require.Len(t, mutator.KPIUpdates, 1)
	assert.Equal(t, "2025-06", record.Month)
	assert.True(t, record.TargetRevenue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, record.TotalRevenue.IsZero(), "no cached billables means zero revenue")
	assert.True(t, record.TargetTotalDiff.Equal(decimal.NewFromInt(-5000)))
	assert.Equal(t, 1, publisher.EventCount())
}

func TestEditService_UpdateConsumption_DefaultsTargetYear(t *testing.T) {
	svc, mutator, reports, provider, publisher := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)

	billable, err := svc.UpdateConsumption(context.Background(), ConsumptionEditInput{
		Operator:   "auth0|op",
		BillableID: 2,
		Year:       2025,
		Amount:     "12.5",
		Unit:       domain.ViewHours,
	})
	require.NoError(t, err)
	assert.Nil(t, billable, "no refetch without RefreshNow")

	require.Len(t, mutator.ConsumptionUpdates, 1)
	call := mutator.ConsumptionUpdates[0]
	assert.Equal(t, int64(2), call.BillableID)
	assert.Equal(t, 2024, call.TargetYear, "target year defaults to the prior year")
	assert.True(t, call.Amount.Equal(decimal.RequireFromString("12.5")), "amount = %s", call.Amount)
	assert.Equal(t, domain.ViewHours, call.Unit)

	// The report year's billables drop; KPI rows are unaffected
	snapshot := reports.CacheSnapshot()
	assert.Equal(t, cache.StateIdle, snapshot[domain.KindBillables][0].State)
	assert.Equal(t, cache.StateReady, snapshot[domain.KindKPIs][0].State)

	event, ok := publisher.LastEvent()
	require.True(t, ok)
	assert.Equal(t, 2025, event.Year)
	assert.Equal(t, "billable.updated", event.Event.Type)
	payload, ok := event.Event.Payload.(ConsumptionEditEvent)
	require.True(t, ok, "payload type %T", event.Event.Payload)
	assert.Equal(t, 2024, payload.TargetYear)
}

func TestEditService_UpdateConsumption_RefreshNow(t *testing.T) {
	svc, _, reports, provider, _ := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)

	billable, err := svc.UpdateConsumption(context.Background(), ConsumptionEditInput{
		BillableID: 1,
		Year:       2025,
		Amount:     "3",
		Unit:       domain.ViewHours,
		RefreshNow: true,
	})
	require.NoError(t, err)

	require.NotNil(t, billable, "RefreshNow returns the refetched billable")
	assert.Equal(t, int64(1), billable.ID)
	assert.Equal(t, 2, provider.BillableFetchCount(2025), "RefreshNow refetches immediately")
}

func TestEditService_UpdateConsumption_RefreshFailureTolerated(t *testing.T) {
	svc, mutator, reports, provider, _ := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)
	provider.FailBillables(2025, errors.New("upstream down"))

	billable, err := svc.UpdateConsumption(context.Background(), ConsumptionEditInput{
		BillableID: 1,
		Year:       2025,
		Amount:     "3",
		Unit:       domain.ViewHours,
		RefreshNow: true,
	})
	require.NoError(t, err, "a failed refetch must not fail the already persisted edit")
	assert.Nil(t, billable)
	assert.Len(t, mutator.ConsumptionUpdates, 1)
}

func TestEditService_UpdateConsumption_RejectsBadInput(t *testing.T) {
	svc, mutator, _, _, publisher := newEditFixture(t)

	tests := []struct {
		name  string
		input ConsumptionEditInput
	}{
		{"Year out of range", ConsumptionEditInput{BillableID: 1, Year: 1999, Amount: "1", Unit: domain.ViewHours}},
		{"Billable ID missing", ConsumptionEditInput{Year: 2025, Amount: "1", Unit: domain.ViewHours}},
		{"Unknown unit", ConsumptionEditInput{BillableID: 1, Year: 2025, Amount: "1", Unit: domain.ViewMode("days")}},
		{"Target year out of range", ConsumptionEditInput{BillableID: 1, Year: 2025, TargetYear: 1500, Amount: "1", Unit: domain.ViewHours}},
		{"Amount not numeric", ConsumptionEditInput{BillableID: 1, Year: 2025, Amount: "five", Unit: domain.ViewHours}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateConsumption(context.Background(), tt.input)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "expected a validation error, got %T", err)
		})
	}

	assert.Empty(t, mutator.ConsumptionUpdates)
	assert.Equal(t, 0, publisher.EventCount())
}

func TestEditService_UpdateConsumption_MutationRejected(t *testing.T) {
	svc, mutator, reports, provider, publisher := newEditFixture(t)
	seedProviderYear(provider, 2025)
	warmYear(t, reports, 2025)
	mutator.ConsumptionErr = errors.New("billable archived")

	_, err := svc.UpdateConsumption(context.Background(), ConsumptionEditInput{
		BillableID: 2,
		Year:       2025,
		Amount:     "12.5",
		Unit:       domain.ViewHours,
	})
	require.Error(t, err)

	var me *domain.MutationError
	require.True(t, errors.As(err, &me), "expected a mutation error, got %T", err)

	snapshot := reports.CacheSnapshot()
	assert.Equal(t, cache.StateReady, snapshot[domain.KindBillables][0].State, "rejected edit leaves the cache alone")
	assert.Equal(t, 0, publisher.EventCount())
}
