package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// KPIHandler handles KPI edit requests
type KPIHandler struct {
	editService *service.EditService
}

// NewKPIHandler creates a new KPIHandler
func NewKPIHandler(editService *service.EditService) *KPIHandler {
	return &KPIHandler{
		editService: editService,
	}
}

// UpdateKPIRequest represents the KPI field edit body. Value is the raw
// operator input and is parsed as a decimal server-side.
type UpdateKPIRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateField godoc
// @Summary Edit one KPI field
// @Description Updates targetRevenue or finalRevenue for one month and returns the record with recomputed diffs
// @Tags kpis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year path int true "Report year"
// @Param month path string true "Month key (YYYY-MM)"
// @Param request body UpdateKPIRequest true "Field edit"
// @Success 200 {object} KPIResponse
// @Failure 400 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /kpis/{year}/{month} [patch]
func (h *KPIHandler) UpdateField(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return NewValidationError(c, "Invalid year", []ValidationError{
			{Field: "year", Message: "Year must be a four-digit number"},
		})
	}

	var req UpdateKPIRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	field, err := domain.ParseKPIField(req.Field)
	if err != nil {
		return renderEditError(c, err)
	}

	record, err := h.editService.UpdateKPIField(c.Request().Context(), service.KPIEditInput{
		Operator: middleware.GetOperatorID(c),
		Year:     year,
		Month:    c.Param("month"),
		Field:    field,
		Value:    req.Value,
	})
	if err != nil {
		return renderEditError(c, err)
	}

	return c.JSON(http.StatusOK, toKPIResponse(*record))
}

// renderEditError maps edit failures onto problem-details responses.
// Validation failures never reached the backing store; rejected mutations
// did and were refused there.
func renderEditError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return NewValidationError(c, "Invalid edit", []ValidationError{
			{Field: ve.Field, Message: ve.Reason},
		})
	}
	var me *domain.MutationError
	if errors.As(err, &me) {
		if errors.Is(err, domain.ErrBillableMissing) || errors.Is(err, domain.ErrNotFound) {
			return NewNotFoundError(c, "The edited record does not exist")
		}
		log.Warn().Err(err).Msg("Edit rejected by backing store")
		return NewRejectedEditError(c, "The backing store refused the edit")
	}
	log.Error().Err(err).Msg("Edit failed")
	return NewInternalError(c, "Failed to apply edit")
}
