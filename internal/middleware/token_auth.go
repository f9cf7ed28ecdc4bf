package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	// ServiceTokenIDKey is the context key for the service token ID
	ServiceTokenIDKey contextKey = "service_token_id"
	// IsServiceTokenAuthKey is the context key indicating service token authentication
	IsServiceTokenAuthKey contextKey = "is_service_token_auth"
)

// ServiceTokenValidator provides service token validation
type ServiceTokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.ServiceToken, error)
}

// ServiceTokenAuthMiddleware provides service token authentication middleware
type ServiceTokenAuthMiddleware struct {
	validator ServiceTokenValidator
}

// NewServiceTokenAuthMiddleware creates a new ServiceTokenAuthMiddleware
func NewServiceTokenAuthMiddleware(validator ServiceTokenValidator) *ServiceTokenAuthMiddleware {
	return &ServiceTokenAuthMiddleware{validator: validator}
}

// Authenticate returns an Echo middleware that validates service tokens
func (m *ServiceTokenAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			token := parts[1]

			// Validate token format - must start with "tly_"
			if !strings.HasPrefix(token, "tly_") {
				return unauthorizedError(c, "Invalid token format")
			}

			return m.authenticateWithToken(token)(next)(c)
		}
	}
}

// authenticateWithToken validates an already extracted token string and
// injects the token identity into the request context. Shared between
// Authenticate and the dual-auth dispatch.
func (m *ServiceTokenAuthMiddleware) authenticateWithToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			serviceToken, err := m.validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				if err == domain.ErrTokenNotFound {
					log.Debug().Msg("Service token not found or revoked")
					return unauthorizedError(c, "Invalid or expired service token")
				}
				log.Error().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "Token validation failed")
			}

			// Set context values
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ServiceTokenIDKey, serviceToken.ID)
			ctx = context.WithValue(ctx, OperatorIDKey, "token:"+serviceToken.ID.String())
			ctx = context.WithValue(ctx, IsServiceTokenAuthKey, true)

			c.SetRequest(c.Request().WithContext(ctx))

			log.Debug().
				Str("token_id", serviceToken.ID.String()).
				Str("description", serviceToken.Description).
				Msg("Service token authentication successful")

			return next(c)
		}
	}
}

// GetServiceTokenID extracts the service token ID from the context
func GetServiceTokenID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(ServiceTokenIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// IsServiceTokenAuth checks if the request was authenticated via service token
func IsServiceTokenAuth(c echo.Context) bool {
	if isToken, ok := c.Request().Context().Value(IsServiceTokenAuthKey).(bool); ok {
		return isToken
	}
	return false
}
