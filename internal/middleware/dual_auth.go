package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DualAuthMiddleware provides middleware that accepts both JWT and service token authentication
type DualAuthMiddleware struct {
	jwtAuth   *AuthMiddleware
	tokenAuth *ServiceTokenAuthMiddleware
}

// NewDualAuthMiddleware creates a new DualAuthMiddleware
func NewDualAuthMiddleware(jwtAuth *AuthMiddleware, tokenAuth *ServiceTokenAuthMiddleware) *DualAuthMiddleware {
	return &DualAuthMiddleware{
		jwtAuth:   jwtAuth,
		tokenAuth: tokenAuth,
	}
}

// Authenticate returns an Echo middleware that dispatches on the token
// format: "tly_" prefixed credentials go to service token auth, everything
// else to JWT validation
func (m *DualAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			var token string

			// Check if header starts with "Bearer " prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
				token = parts[1]
			} else if strings.HasPrefix(authHeader, "tly_") {
				// Accept service tokens without Bearer prefix (for Swagger/simple clients)
				token = authHeader
			} else {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			if strings.HasPrefix(token, "tly_") {
				log.Debug().Msg("Attempting service token authentication")
				return m.tokenAuth.authenticateWithToken(token)(next)(c)
			}

			// Try JWT authentication
			log.Debug().Msg("Attempting JWT authentication")
			return m.jwtAuth.Authenticate()(next)(c)
		}
	}
}

// JWTOnly returns a middleware that only accepts JWT authentication
// Use this for routes that should not allow service token access
func (m *DualAuthMiddleware) JWTOnly() echo.MiddlewareFunc {
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

			// Reject service tokens on JWT-only routes
			if strings.HasPrefix(token, "tly_") {
				log.Debug().Msg("Service token rejected on JWT-only route")
				return unauthorizedError(c, "This endpoint requires session authentication")
			}

			// Use JWT authentication
			return m.jwtAuth.Authenticate()(next)(c)
		}
	}
}

// ServiceTokenOnly returns a middleware that only accepts service token authentication
// Use this for routes reserved for machine callers
func (m *DualAuthMiddleware) ServiceTokenOnly() echo.MiddlewareFunc {
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

			// Require service token
			if !strings.HasPrefix(token, "tly_") {
				log.Debug().Msg("Non-service token rejected on token-only route")
				return unauthorizedError(c, "This endpoint requires service token authentication")
			}

			// Use service token authentication
			return m.tokenAuth.Authenticate()(next)(c)
		}
	}
}
