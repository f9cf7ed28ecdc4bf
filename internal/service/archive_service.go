package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
)

// snapshotURLExpiry is how long the presigned download link of a freshly
// archived snapshot stays valid.
const snapshotURLExpiry = 24 * time.Hour

// ArchiveResult describes one stored report snapshot.
type ArchiveResult struct {
	ObjectPath  string    `json:"objectPath"`
	DownloadURL string    `json:"downloadUrl"`
	Rows        int       `json:"rows"`
	ArchivedAt  time.Time `json:"archivedAt"`
}

// ArchiveService renders assembled year reports to CSV and stores them as
// snapshots in object storage.
type ArchiveService struct {
	reports *ReportService
	store   storage.SnapshotStore
	now     func() time.Time
}

// NewArchiveService creates an ArchiveService on top of the report service
// and a snapshot store.
func NewArchiveService(reports *ReportService, store storage.SnapshotStore) *ArchiveService {
	return &ArchiveService{
		reports: reports,
		store:   store,
		now:     time.Now,
	}
}

// ArchiveYearReport assembles the report described by q, renders it as CSV
// and uploads it under reports/{year}/. The returned result carries a
// presigned download URL for the fresh snapshot.
func (s *ArchiveService) ArchiveYearReport(ctx context.Context, q ReportQuery) (*ArchiveResult, error) {
	rep, err := s.reports.YearReport(ctx, q)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeReportCSV(&buf, rep); err != nil {
		return nil, fmt.Errorf("rendering report csv: %w", err)
	}

	archivedAt := s.now().UTC()
	objectPath := storage.SnapshotObjectPath(rep.Year, string(rep.Mode), archivedAt)

	if _, err := s.store.Upload(ctx, objectPath, buf.Bytes(), "text/csv"); err != nil {
		return nil, fmt.Errorf("uploading report snapshot: %w", err)
	}

	downloadURL, err := s.store.GeneratePresignedURL(ctx, objectPath, snapshotURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generating snapshot download URL: %w", err)
	}

	log.Info().
		Int("year", rep.Year).
		Str("view", string(rep.Mode)).
		Str("objectPath", objectPath).
		Int("rows", len(rep.Rows)).
		Msg("Report snapshot archived")

	return &ArchiveResult{
		ObjectPath:  objectPath,
		DownloadURL: downloadURL,
		Rows:        len(rep.Rows),
		ArchivedAt:  archivedAt,
	}, nil
}

// writeReportCSV renders the billable table, the totals row and the KPI
// block as one CSV document. Amounts follow the report's view mode; the KPI
// block is always denominated in revenue.
func writeReportCSV(w io.Writer, rep *report.YearReport) error {
	cw := csv.NewWriter(w)

	header := []string{"company", "name", "category", "origin", "budget_excl_vat", "prior_consumption"}
	header = append(header, rep.Months...)
	header = append(header, "total", "remaining_budget", "included")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rep.Rows {
		b := row.Billable
		rec := make([]string, 0, len(header))
		rec = append(rec,
			b.Company,
			b.Name,
			string(b.Category),
			string(b.Origin),
			report.FormatOptional(b.BudgetExclVAT, rep.Mode),
			report.FormatOptional(b.PriorConsumption, rep.Mode),
		)
		for _, m := range rep.Months {
			rec = append(rec, report.FormatAmount(report.MonthValue(b, m, rep.Mode), rep.Mode))
		}
		included := "no"
		if row.Included {
			included = "yes"
		}
		rec = append(rec,
			report.FormatAmount(row.RowTotal, rep.Mode),
			report.FormatOptional(row.Remaining, rep.Mode),
			included,
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	totals := []string{"", "monthly totals", "", "", "", report.FormatAmount(rep.ConsumptionTotal, rep.Mode)}
	for _, m := range rep.Months {
		totals = append(totals, report.FormatAmount(rep.MonthlyTotals[m], rep.Mode))
	}
	totals = append(totals, report.FormatAmount(rep.GrandTotal, rep.Mode), "", "")
	if err := cw.Write(totals); err != nil {
		return err
	}

	if err := cw.Write([]string{""}); err != nil {
		return err
	}

	kpiHeader := []string{"month", "target_revenue", "total_revenue", "target_total_diff", "final_revenue", "target_final_diff"}
	if err := cw.Write(kpiHeader); err != nil {
		return err
	}
	for _, kpi := range rep.KPIs {
		rec := []string{
			kpi.Month,
			report.FormatAmount(kpi.TargetRevenue, domain.ViewRevenue),
			report.FormatAmount(kpi.TotalRevenue, domain.ViewRevenue),
			report.FormatAmount(kpi.TargetTotalDiff, domain.ViewRevenue),
			report.FormatOptional(kpi.FinalRevenue, domain.ViewRevenue),
			report.FormatOptional(kpi.TargetFinalDiff, domain.ViewRevenue),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
