package service

import (
	"context"

	"github.com/kadewerk/tally/tally-backend/internal/cache"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"golang.org/x/sync/errgroup"
)

// ReportQuery describes one report request.
type ReportQuery struct {
	Year     int
	Mode     domain.ViewMode
	Included report.Inclusion
	Sort     *report.SortOptions
	Refresh  bool
}

// ReportService owns the per-year dataset caches and assembles aggregated
// year reports from them.
type ReportService struct {
	billables *cache.Store[[]domain.Billable]
	kpis      *cache.Store[domain.YearKPIs]
	sorter    *report.Sorter
}

// NewReportService creates a ReportService backed by the given provider.
func NewReportService(provider domain.DataProvider, sorter *report.Sorter) *ReportService {
	return &ReportService{
		billables: cache.NewStore(domain.KindBillables, func(ctx context.Context, year int) ([]domain.Billable, error) {
			billables, err := provider.FetchBillables(ctx, year)
			if err != nil {
				return nil, domain.WrapProviderError(domain.KindBillables, year, err)
			}
			return billables, nil
		}),
		kpis: cache.NewStore(domain.KindKPIs, func(ctx context.Context, year int) (domain.YearKPIs, error) {
			kpis, err := provider.FetchYearKPIs(ctx, year)
			if err != nil {
				return domain.YearKPIs{}, domain.WrapProviderError(domain.KindKPIs, year, err)
			}
			return kpis, nil
		}),
		sorter: sorter,
	}
}

// YearReport loads both datasets for the requested year and aggregates them.
// Cached data is served as-is unless q.Refresh forces a refetch. The two
// fetches run concurrently and are joined before aggregation; the first
// error wins.
func (s *ReportService) YearReport(ctx context.Context, q ReportQuery) (*report.YearReport, error) {
	if err := domain.ValidateReportYear(q.Year); err != nil {
		return nil, err
	}
	if !q.Mode.Valid() {
		return nil, domain.NewValidationError("viewMode", "must be \"hours\" or \"revenue\"")
	}

	billables, kpis, err := s.datasets(ctx, q.Year, q.Refresh)
	if err != nil {
		return nil, err
	}

	return s.assemble(q, billables, kpis), nil
}

// StaleYearReport assembles a report from the last cached datasets without
// fetching anything. It reports false when either dataset has never loaded,
// so callers can keep showing last-known-good data next to a fetch error.
func (s *ReportService) StaleYearReport(q ReportQuery) (*report.YearReport, bool) {
	billables, okBillables := s.billables.Cached(q.Year)
	kpis, okKPIs := s.kpis.Cached(q.Year)
	if !okBillables || !okKPIs {
		return nil, false
	}
	return s.assemble(q, billables, kpis), true
}

func (s *ReportService) assemble(q ReportQuery, billables []domain.Billable, kpis domain.YearKPIs) *report.YearReport {
	rep := report.BuildYearReport(q.Year, q.Mode, billables, kpis, q.Included)
	if q.Sort != nil {
		opts := *q.Sort
		opts.Mode = q.Mode
		s.sorter.SortRows(rep.Rows, opts)
	}
	return rep
}

func (s *ReportService) datasets(ctx context.Context, year int, force bool) ([]domain.Billable, domain.YearKPIs, error) {
	var (
		billables []domain.Billable
		kpis      domain.YearKPIs
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		billables, err = s.billables.Get(gctx, year, force)
		return err
	})
	g.Go(func() error {
		var err error
		kpis, err = s.kpis.Get(gctx, year, force)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.YearKPIs{}, err
	}

	return billables, kpis, nil
}

// BillablesForYear returns the billables dataset, fetching it when needed.
func (s *ReportService) BillablesForYear(ctx context.Context, year int, force bool) ([]domain.Billable, error) {
	return s.billables.Get(ctx, year, force)
}

// KPIsForYear returns the KPI dataset, fetching it when needed.
func (s *ReportService) KPIsForYear(ctx context.Context, year int, force bool) (domain.YearKPIs, error) {
	return s.kpis.Get(ctx, year, force)
}

// CachedBillables returns the cached billables without fetching.
func (s *ReportService) CachedBillables(year int) ([]domain.Billable, bool) {
	return s.billables.Cached(year)
}

// CachedKPIs returns the cached KPI set without fetching.
func (s *ReportService) CachedKPIs(year int) (domain.YearKPIs, bool) {
	return s.kpis.Cached(year)
}

// InvalidateEntry resets exactly one (year, kind) cache entry.
func (s *ReportService) InvalidateEntry(kind domain.DataKind, year int) error {
	switch kind {
	case domain.KindBillables:
		s.InvalidateBillables(year)
	case domain.KindKPIs:
		s.InvalidateKPIs(year)
	default:
		return domain.NewValidationError("kind", "must be \"billables\" or \"kpis\"")
	}
	return nil
}

// InvalidateBillables resets the billables entry for one year.
func (s *ReportService) InvalidateBillables(year int) {
	s.billables.Invalidate(year)
}

// InvalidateKPIs resets the KPI entry for one year.
func (s *ReportService) InvalidateKPIs(year int) {
	s.kpis.Invalidate(year)
}

// InvalidateYear resets both dataset kinds for one year.
func (s *ReportService) InvalidateYear(year int) {
	s.billables.Invalidate(year)
	s.kpis.Invalidate(year)
}

// InvalidateAll resets every cache entry of both kinds.
func (s *ReportService) InvalidateAll() {
	s.billables.InvalidateAll()
	s.kpis.InvalidateAll()
}

// CacheSnapshot reports the state of every cache entry per dataset kind.
func (s *ReportService) CacheSnapshot() map[domain.DataKind][]cache.EntryInfo {
	return map[domain.DataKind][]cache.EntryInfo{
		domain.KindBillables: s.billables.Snapshot(),
		domain.KindKPIs:      s.kpis.Snapshot(),
	}
}
