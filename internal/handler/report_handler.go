package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/kadewerk/tally/tally-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	reportService  *service.ReportService
	archiveService *service.ArchiveService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService, archiveService *service.ArchiveService) *ReportHandler {
	return &ReportHandler{
		reportService:  reportService,
		archiveService: archiveService,
	}
}

// ReportRowResponse represents one billable row in a report response.
// Amounts are pre-rendered strings in the report's view mode; optional
// figures are omitted when the upstream system carries none.
type ReportRowResponse struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Company          string            `json:"company"`
	Category         string            `json:"category"`
	Origin           string            `json:"origin"`
	SyncStatus       string            `json:"syncStatus"`
	FixedBudget      bool              `json:"fixedBudget"`
	BudgetExclVAT    *string           `json:"budgetExclVat,omitempty"`
	PriorConsumption *string           `json:"priorConsumption,omitempty"`
	Months           map[string]string `json:"months"`
	OverBudget       map[string]bool   `json:"overBudget,omitempty"`
	Total            string            `json:"total"`
	RemainingBudget  *string           `json:"remainingBudget,omitempty"`
	Included         bool              `json:"included"`
}

// KPIResponse represents one KPI month row. KPI figures are always
// denominated in revenue regardless of the report view.
type KPIResponse struct {
	Month           string  `json:"month"`
	TargetRevenue   string  `json:"targetRevenue"`
	FinalRevenue    *string `json:"finalRevenue,omitempty"`
	TotalRevenue    string  `json:"totalRevenue"`
	TargetFinalDiff *string `json:"targetFinalDiff,omitempty"`
	TargetTotalDiff string  `json:"targetTotalDiff"`
}

// ReportResponse represents a fully aggregated year report
type ReportResponse struct {
	Year             int                 `json:"year"`
	View             string              `json:"view"`
	Months           []string            `json:"months"`
	Rows             []ReportRowResponse `json:"rows"`
	MonthlyTotals    map[string]string   `json:"monthlyTotals"`
	GrandTotal       string              `json:"grandTotal"`
	ConsumptionTotal string              `json:"consumptionTotal"`
	KPIs             []KPIResponse       `json:"kpis"`
	Stale            bool                `json:"stale"`
	FetchError       string              `json:"fetchError,omitempty"`
}

// ArchiveResponse represents a stored report snapshot
type ArchiveResponse struct {
	ObjectPath  string `json:"objectPath"`
	DownloadURL string `json:"downloadUrl"`
	Rows        int    `json:"rows"`
	ArchivedAt  string `json:"archivedAt"`
}

// Get godoc
// @Summary Get the aggregated report for a year
// @Description Assembles the consumption report for one calendar year in hours or revenue view
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year path int true "Report year"
// @Param view query string false "View mode: hours or revenue" Enums(hours, revenue) default(hours)
// @Param include query string false "Comma-separated billable IDs counted into totals (all when absent)"
// @Param sort query string false "Sort column (company, name, category, budget, consumption, remaining, total) or a YYYY-MM month key"
// @Param dir query string false "Sort direction" Enums(asc, desc)
// @Param force query bool false "Bypass the cache and refetch"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /reports/{year} [get]
func (h *ReportHandler) Get(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return renderReportError(c, err)
	}

	rep, err := h.reportService.YearReport(c.Request().Context(), q)
	if err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			// Serve last-known-good data next to the fetch error when we
			// still hold it; viewers prefer a stale table over none.
			if stale, ok := h.reportService.StaleYearReport(q); ok {
				log.Warn().Err(err).Int("year", q.Year).Msg("Serving stale report after fetch failure")
				resp := toReportResponse(stale)
				resp.Stale = true
				resp.FetchError = pe.Error()
				return c.JSON(http.StatusOK, resp)
			}
		}
		return renderReportError(c, err)
	}

	return c.JSON(http.StatusOK, toReportResponse(rep))
}

// Archive godoc
// @Summary Archive a report snapshot
// @Description Renders the year report as CSV and stores it in the snapshot bucket
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year path int true "Report year"
// @Param view query string false "View mode: hours or revenue" Enums(hours, revenue) default(hours)
// @Param include query string false "Comma-separated billable IDs counted into totals (all when absent)"
// @Success 201 {object} ArchiveResponse
// @Failure 400 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /reports/{year}/archive [post]
func (h *ReportHandler) Archive(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return renderReportError(c, err)
	}

	result, err := h.archiveService.ArchiveYearReport(c.Request().Context(), q)
	if err != nil {
		return renderReportError(c, err)
	}

	return c.JSON(http.StatusCreated, ArchiveResponse{
		ObjectPath:  result.ObjectPath,
		DownloadURL: result.DownloadURL,
		Rows:        result.Rows,
		ArchivedAt:  result.ArchivedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// parseQuery reads the shared report query parameters from the request.
func (h *ReportHandler) parseQuery(c echo.Context) (service.ReportQuery, error) {
	var q service.ReportQuery

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return q, domain.NewValidationError("year", "must be a four-digit year")
	}
	if err := domain.ValidateReportYear(year); err != nil {
		return q, err
	}
	q.Year = year

	view := c.QueryParam("view")
	if view == "" {
		view = string(domain.ViewHours)
	}
	mode, err := domain.ParseViewMode(view)
	if err != nil {
		return q, err
	}
	q.Mode = mode

	if include := c.QueryParam("include"); include != "" {
		ids, err := parseIDList(include)
		if err != nil {
			return q, err
		}
		q.Included = report.NewInclusion(ids)
	}

	if sortBy := c.QueryParam("sort"); sortBy != "" {
		opts := report.SortOptions{}
		if util.MonthKeyInYear(sortBy, year) {
			opts.Column = report.ColumnMonth
			opts.Month = sortBy
		} else {
			col, err := report.ParseColumn(sortBy)
			if err != nil {
				return q, err
			}
			if col == report.ColumnMonth {
				return q, domain.NewValidationError("sort", "month sorts use the YYYY-MM key directly")
			}
			opts.Column = col
		}
		dir, err := report.ParseDirection(c.QueryParam("dir"))
		if err != nil {
			return q, err
		}
		opts.Direction = dir
		q.Sort = &opts
	} else if c.QueryParam("dir") != "" {
		return q, domain.NewValidationError("dir", "requires a sort column")
	}

	if force := c.QueryParam("force"); force != "" {
		refresh, err := strconv.ParseBool(force)
		if err != nil {
			return q, domain.NewValidationError("force", "must be a boolean")
		}
		q.Refresh = refresh
	}

	return q, nil
}

// renderReportError maps domain errors onto problem-details responses.
func renderReportError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return NewValidationError(c, "Invalid report request", []ValidationError{
			{Field: ve.Field, Message: ve.Reason},
		})
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		log.Error().Err(err).Msg("Upstream fetch failed")
		return NewUpstreamError(c, "Report data could not be loaded from the backing store")
	}
	log.Error().Err(err).Msg("Report request failed")
	return NewInternalError(c, "Failed to assemble report")
}

func toReportResponse(rep *report.YearReport) ReportResponse {
	rows := make([]ReportRowResponse, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		rows = append(rows, toReportRowResponse(row, rep))
	}

	monthlyTotals := make(map[string]string, len(rep.MonthlyTotals))
	for m, total := range rep.MonthlyTotals {
		monthlyTotals[m] = report.FormatAmount(total, rep.Mode)
	}

	kpis := make([]KPIResponse, 0, len(rep.KPIs))
	for _, kpi := range rep.KPIs {
		kpis = append(kpis, toKPIResponse(kpi))
	}

	return ReportResponse{
		Year:             rep.Year,
		View:             string(rep.Mode),
		Months:           rep.Months,
		Rows:             rows,
		MonthlyTotals:    monthlyTotals,
		GrandTotal:       report.FormatAmount(rep.GrandTotal, rep.Mode),
		ConsumptionTotal: report.FormatAmount(rep.ConsumptionTotal, rep.Mode),
		KPIs:             kpis,
	}
}

func toReportRowResponse(row report.Row, rep *report.YearReport) ReportRowResponse {
	b := row.Billable

	months := make(map[string]string, len(rep.Months))
	for _, m := range rep.Months {
		months[m] = report.FormatAmount(report.MonthValue(b, m, rep.Mode), rep.Mode)
	}

	return ReportRowResponse{
		ID:               b.ID,
		Name:             b.Name,
		Company:          b.Company,
		Category:         string(b.Category),
		Origin:           string(b.Origin),
		SyncStatus:       string(b.SyncStatus),
		FixedBudget:      b.FixedBudget(),
		BudgetExclVAT:    formatOptional(b.BudgetExclVAT, rep.Mode),
		PriorConsumption: formatOptional(b.PriorConsumption, rep.Mode),
		Months:           months,
		OverBudget:       b.OverBudget,
		Total:            report.FormatAmount(row.RowTotal, rep.Mode),
		RemainingBudget:  formatOptional(row.Remaining, rep.Mode),
		Included:         row.Included,
	}
}

func toKPIResponse(kpi domain.MonthKPI) KPIResponse {
	return KPIResponse{
		Month:           kpi.Month,
		TargetRevenue:   report.FormatAmount(kpi.TargetRevenue, domain.ViewRevenue),
		FinalRevenue:    formatOptional(kpi.FinalRevenue, domain.ViewRevenue),
		TotalRevenue:    report.FormatAmount(kpi.TotalRevenue, domain.ViewRevenue),
		TargetFinalDiff: formatOptional(kpi.TargetFinalDiff, domain.ViewRevenue),
		TargetTotalDiff: report.FormatAmount(kpi.TargetTotalDiff, domain.ViewRevenue),
	}
}

// Helper functions

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, domain.NewValidationError("include", "must be a comma-separated list of billable IDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatOptional(d *decimal.Decimal, mode domain.ViewMode) *string {
	if d == nil {
		return nil
	}
	s := report.FormatAmount(*d, mode)
	return &s
}
