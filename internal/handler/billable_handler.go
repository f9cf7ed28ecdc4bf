package handler

import (
	"net/http"
	"strconv"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// BillableHandler handles billable edit requests
type BillableHandler struct {
	editService *service.EditService
}

// NewBillableHandler creates a new BillableHandler
func NewBillableHandler(editService *service.EditService) *BillableHandler {
	return &BillableHandler{
		editService: editService,
	}
}

// UpdateConsumptionRequest represents the prior-year consumption edit body.
// TargetYear is the calendar year being corrected; the figure surfaces on
// the following report year. Amount is raw operator input parsed as a
// decimal server-side.
type UpdateConsumptionRequest struct {
	TargetYear int    `json:"targetYear"`
	Amount     string `json:"amount"`
	Unit       string `json:"unit"`
	Refresh    bool   `json:"refresh"`
}

// ConsumptionEditResponse represents the outcome of a consumption edit.
// Billable carries the refreshed row when Refresh was requested and the
// refetch succeeded; otherwise the next report read loads it lazily.
type ConsumptionEditResponse struct {
	BillableID int64            `json:"billableId"`
	TargetYear int              `json:"targetYear"`
	ReportYear int              `json:"reportYear"`
	Unit       string           `json:"unit"`
	Refreshed  bool             `json:"refreshed"`
	Billable   *domain.Billable `json:"billable,omitempty"`
}

// UpdateConsumption godoc
// @Summary Edit a billable's prior-year consumption
// @Description Corrects the carried-over consumption figure and invalidates the affected report year
// @Tags billables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Billable ID"
// @Param request body UpdateConsumptionRequest true "Consumption edit"
// @Success 200 {object} ConsumptionEditResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /billables/{id}/consumption [patch]
func (h *BillableHandler) UpdateConsumption(c echo.Context) error {
	billableID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return NewValidationError(c, "Invalid billable ID", []ValidationError{
			{Field: "id", Message: "ID must be an integer"},
		})
	}

	var req UpdateConsumptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.TargetYear == 0 {
		return NewValidationError(c, "Invalid edit", []ValidationError{
			{Field: "targetYear", Message: "Target year is required"},
		})
	}

	reportYear := req.TargetYear + 1
	refreshed, err := h.editService.UpdateConsumption(c.Request().Context(), service.ConsumptionEditInput{
		Operator:   middleware.GetOperatorID(c),
		BillableID: billableID,
		Year:       reportYear,
		TargetYear: req.TargetYear,
		Amount:     req.Amount,
		Unit:       domain.ViewMode(req.Unit),
		RefreshNow: req.Refresh,
	})
	if err != nil {
		return renderEditError(c, err)
	}

	return c.JSON(http.StatusOK, ConsumptionEditResponse{
		BillableID: billableID,
		TargetYear: req.TargetYear,
		ReportYear: reportYear,
		Unit:       req.Unit,
		Refreshed:  refreshed != nil,
		Billable:   refreshed,
	})
}
