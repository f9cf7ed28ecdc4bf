package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/testutil"
	"github.com/kadewerk/tally/tally-backend/internal/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func archiveFixtureBillable(id int64, name string) domain.Billable {
	return domain.Billable{
		ID:             id,
		Name:           name,
		Company:        "Acme GmbH",
		Category:       domain.CategoryTimeAndMaterials,
		Origin:         domain.OriginProject,
		MonthlyHours:   map[string]decimal.Decimal{},
		MonthlyRevenue: map[string]decimal.Decimal{},
		SyncStatus:     domain.SyncStatusSynced,
	}
}

func emptyYearKPIs(year int) domain.YearKPIs {
	months := util.MonthKeysForYear(year)
	kpis := domain.YearKPIs{Year: year, Months: make([]domain.MonthKPI, 0, len(months))}
	for _, m := range months {
		kpis.Months = append(kpis.Months, domain.MonthKPI{Month: m})
	}
	return kpis
}

func newArchiveFixture(t *testing.T) (*ArchiveService, *testutil.MockDataProvider, *testutil.MockSnapshotStore) {
	t.Helper()
	provider := testutil.NewMockDataProvider()
	reports := NewReportService(provider, report.NewSorter(language.German))
	store := testutil.NewMockSnapshotStore()
	return NewArchiveService(reports, store), provider, store
}

func TestArchiveService_ArchiveYearReport(t *testing.T) {
	svc, provider, store := newArchiveFixture(t)

	relaunch := archiveFixtureBillable(1, "Relaunch")
	relaunch.MonthlyRevenue["2025-01"] = decimal.NewFromInt(1200)
	relaunch.MonthlyRevenue["2025-02"] = decimal.NewFromInt(800)
	support := archiveFixtureBillable(2, "Support")
	support.MonthlyRevenue["2025-01"] = decimal.NewFromInt(300)

	provider.AddBillables(2025, []domain.Billable{relaunch, support})
	provider.AddKPIs(2025, emptyYearKPIs(2025))

	result, err := svc.ArchiveYearReport(context.Background(), ReportQuery{Year: 2025, Mode: domain.ViewRevenue})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ObjectPath, "reports/2025/revenue-"), "object path = %s", result.ObjectPath)
	assert.True(t, strings.HasSuffix(result.ObjectPath, ".csv"), "object path = %s", result.ObjectPath)
	assert.Equal(t, 2, result.Rows)
	assert.NotEmpty(t, result.DownloadURL)
	assert.False(t, result.ArchivedAt.IsZero())

	data, ok := store.Object(result.ObjectPath)
	require.True(t, ok, "snapshot not uploaded")
	assert.Equal(t, "text/csv", store.ContentTypes[result.ObjectPath])

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	// Header, two billables, totals row, KPI header, twelve KPI rows. The
	// blank separator line is skipped by the reader.
	require.Len(t, records, 17)

	header := records[0]
	assert.Equal(t, "company", header[0])
	assert.Equal(t, "2025-01", header[6])
	assert.Equal(t, "included", header[len(header)-1])

	first := records[1]
	assert.Equal(t, "Relaunch", first[1])
	assert.Equal(t, "1200", first[6])
	assert.Equal(t, "-", first[4], "missing budget renders as dash")
	assert.Equal(t, "2000", first[18])
	assert.Equal(t, "yes", first[20])

	totals := records[3]
	assert.Equal(t, "monthly totals", totals[1])
	assert.Equal(t, "1500", totals[6])
	assert.Equal(t, "2300", totals[18])

	kpiHeader := records[4]
	assert.Equal(t, "month", kpiHeader[0])
	assert.Equal(t, "target_revenue", kpiHeader[1])

	january := records[5]
	assert.Equal(t, "2025-01", january[0])
	assert.Equal(t, "1500", january[2], "kpi total revenue comes from the billables")
}

func TestArchiveService_HoursViewUsesTenths(t *testing.T) {
	svc, provider, store := newArchiveFixture(t)

	b := archiveFixtureBillable(1, "Relaunch")
	b.MonthlyHours["2025-03"] = decimal.RequireFromString("12.55")
	provider.AddBillables(2025, []domain.Billable{b})
	provider.AddKPIs(2025, emptyYearKPIs(2025))

	result, err := svc.ArchiveYearReport(context.Background(), ReportQuery{Year: 2025, Mode: domain.ViewHours})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ObjectPath, "reports/2025/hours-"), "object path = %s", result.ObjectPath)

	data, ok := store.Object(result.ObjectPath)
	require.True(t, ok)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	march := records[1][8]
	assert.Equal(t, "12.6", march, "hours render with one decimal place")
	assert.Equal(t, "0.0", records[1][6], "unbooked months render as zero hours")
}

func TestArchiveService_UploadError(t *testing.T) {
	svc, provider, store := newArchiveFixture(t)
	provider.AddBillables(2025, []domain.Billable{archiveFixtureBillable(1, "Relaunch")})
	provider.AddKPIs(2025, emptyYearKPIs(2025))
	store.UploadErr = errors.New("bucket unavailable")

	_, err := svc.ArchiveYearReport(context.Background(), ReportQuery{Year: 2025, Mode: domain.ViewRevenue})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading report snapshot")
	assert.Empty(t, store.Objects)
}

func TestArchiveService_ProviderErrorPropagates(t *testing.T) {
	svc, provider, _ := newArchiveFixture(t)
	provider.FailBillables(2025, errors.New("upstream down"))
	provider.AddKPIs(2025, emptyYearKPIs(2025))

	_, err := svc.ArchiveYearReport(context.Background(), ReportQuery{Year: 2025, Mode: domain.ViewRevenue})
	require.Error(t, err)

	var pe *domain.ProviderError
	assert.True(t, errors.As(err, &pe), "expected a provider error, got %T", err)
}
