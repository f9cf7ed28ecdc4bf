package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TokenHandler handles service token management requests. Token management
// is restricted to JWT-authenticated operators; a service token cannot mint
// or revoke other tokens.
type TokenHandler struct {
	tokenService *service.TokenService
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
	}
}

// Create godoc
// @Summary Create a service token
// @Description Create a new service token for machine callers (JWT auth only)
// @Tags tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateServiceTokenRequest true "Token creation request"
// @Success 201 {object} domain.CreateServiceTokenResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /tokens [post]
func (h *TokenHandler) Create(c echo.Context) error {
	operator := middleware.GetOperatorID(c)
	if operator == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req domain.CreateServiceTokenRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Description == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	}
	if len(req.Description) > 255 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 255 characters or less"},
		})
	}

	result, err := h.tokenService.Create(c.Request().Context(), operator, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyTokens) {
			return NewValidationError(c, "Maximum number of active service tokens reached (10)", nil)
		}
		if errors.Is(err, domain.ErrInvalidTokenName) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "description", Message: "Description is required"},
			})
		}
		log.Error().Err(err).Str("operator", operator).Msg("Failed to create service token")
		return NewInternalError(c, "Failed to create service token")
	}

	log.Info().
		Str("operator", operator).
		Str("token_id", result.ID.String()).
		Str("description", req.Description).
		Msg("Service token created")

	return c.JSON(http.StatusCreated, result)
}

// List godoc
// @Summary List service tokens
// @Description Get all active service tokens (JWT auth only)
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ServiceTokenResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /tokens [get]
func (h *TokenHandler) List(c echo.Context) error {
	tokens, err := h.tokenService.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list service tokens")
		return NewInternalError(c, "Failed to list service tokens")
	}

	return c.JSON(http.StatusOK, tokens)
}

// Revoke godoc
// @Summary Revoke a service token
// @Description Revoke a service token so it can no longer authenticate (JWT auth only)
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Param id path string true "Token ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /tokens/{id} [delete]
func (h *TokenHandler) Revoke(c echo.Context) error {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid token ID", nil)
	}

	if err := h.tokenService.Revoke(c.Request().Context(), tokenID); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return NewNotFoundError(c, "Service token not found")
		}
		log.Error().Err(err).Str("token_id", tokenID.String()).Msg("Failed to revoke service token")
		return NewInternalError(c, "Failed to revoke service token")
	}

	log.Info().
		Str("operator", middleware.GetOperatorID(c)).
		Str("token_id", tokenID.String()).
		Msg("Service token revoked")

	return c.NoContent(http.StatusNoContent)
}
