package handler

import (
	"net/http"

	"github.com/kadewerk/tally/tally-backend/internal/cache"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/kadewerk/tally/tally-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CacheHandler handles cache administration requests
type CacheHandler struct {
	reportService  *service.ReportService
	eventPublisher websocket.EventPublisher
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(reportService *service.ReportService) *CacheHandler {
	return &CacheHandler{
		reportService: reportService,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (h *CacheHandler) SetEventPublisher(publisher websocket.EventPublisher) {
	h.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured.
// Year 0 addresses every connected client.
func (h *CacheHandler) publishEvent(year int, event websocket.Event) {
	if h.eventPublisher == nil {
		return
	}
	if year == 0 {
		h.eventPublisher.PublishAll(event)
		return
	}
	h.eventPublisher.Publish(year, event)
}

// InvalidateCacheRequest represents the invalidation scope. Both fields are
// optional: a year without kind drops both datasets for that year, a kind
// without year drops nothing (kind always binds to a year), and an empty
// body drops everything.
type InvalidateCacheRequest struct {
	Year int    `json:"year,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// InvalidateCacheResponse reports what was invalidated
type InvalidateCacheResponse struct {
	Scope string `json:"scope"`
}

// CacheInvalidatedEvent is the payload broadcast after an admin invalidation
type CacheInvalidatedEvent struct {
	Scope string `json:"scope"`
	Year  int    `json:"year,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// Invalidate godoc
// @Summary Invalidate cached report data
// @Description Drops cached datasets so the next read refetches them
// @Tags cache
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InvalidateCacheRequest true "Invalidation scope"
// @Success 200 {object} InvalidateCacheResponse
// @Failure 400 {object} ProblemDetails
// @Router /cache/invalidate [post]
func (h *CacheHandler) Invalidate(c echo.Context) error {
	var req InvalidateCacheRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	scope := "all"
	switch {
	case req.Year == 0 && req.Kind == "":
		h.reportService.InvalidateAll()
	case req.Year == 0:
		return NewValidationError(c, "Invalid invalidation scope", []ValidationError{
			{Field: "year", Message: "A kind-scoped invalidation needs a year"},
		})
	case req.Kind == "":
		if err := domain.ValidateReportYear(req.Year); err != nil {
			return renderReportError(c, err)
		}
		h.reportService.InvalidateYear(req.Year)
		scope = "year"
	default:
		if err := domain.ValidateReportYear(req.Year); err != nil {
			return renderReportError(c, err)
		}
		if err := h.reportService.InvalidateEntry(domain.DataKind(req.Kind), req.Year); err != nil {
			return renderReportError(c, err)
		}
		scope = "entry"
	}

	log.Info().
		Str("operator", middleware.GetOperatorID(c)).
		Int("year", req.Year).
		Str("kind", req.Kind).
		Str("scope", scope).
		Msg("Cache invalidated")

	h.publishEvent(req.Year, websocket.CacheInvalidated(CacheInvalidatedEvent{
		Scope: scope,
		Year:  req.Year,
		Kind:  req.Kind,
	}))

	return c.JSON(http.StatusOK, InvalidateCacheResponse{Scope: scope})
}

// Snapshot godoc
// @Summary Inspect cache state
// @Description Lists every cache entry with its lifecycle state per dataset kind
// @Tags cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]cache.EntryInfo
// @Router /cache [get]
func (h *CacheHandler) Snapshot(c echo.Context) error {
	snapshot := h.reportService.CacheSnapshot()
	resp := make(map[string][]cache.EntryInfo, len(snapshot))
	for kind, entries := range snapshot {
		resp[string(kind)] = entries
	}
	return c.JSON(http.StatusOK, resp)
}
