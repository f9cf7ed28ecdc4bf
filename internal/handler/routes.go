package handler

import (
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, auth *middleware.DualAuthMiddleware, rateLimiter *middleware.RateLimiter, reportHandler *ReportHandler, kpiHandler *KPIHandler, billableHandler *BillableHandler, cacheHandler *CacheHandler, tokenHandler *TokenHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Report routes (JWT or service token)
	reports := api.Group("/reports")
	reports.Use(auth.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	reports.GET("/:year", reportHandler.Get)
	reports.POST("/:year/archive", reportHandler.Archive)

	// KPI edit routes (JWT or service token)
	kpis := api.Group("/kpis")
	kpis.Use(auth.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	kpis.PATCH("/:year/:month", kpiHandler.UpdateField)

	// Billable edit routes (JWT or service token)
	billables := api.Group("/billables")
	billables.Use(auth.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	billables.PATCH("/:id/consumption", billableHandler.UpdateConsumption)

	// Cache administration routes (JWT or service token)
	cacheGroup := api.Group("/cache")
	cacheGroup.Use(auth.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	cacheGroup.GET("", cacheHandler.Snapshot)
	cacheGroup.POST("/invalidate", cacheHandler.Invalidate)

	// Token management routes (interactive operators only)
	tokens := api.Group("/tokens")
	tokens.Use(auth.JWTOnly())
	tokens.POST("", tokenHandler.Create)
	tokens.GET("", tokenHandler.List)
	tokens.DELETE("/:id", tokenHandler.Revoke)

	// WebSocket upgrade; the handler authenticates via the token query
	// parameter because browsers cannot set upgrade headers
	api.GET("/ws", wsHandler.HandleWS)

	// API documentation
	e.GET("/openapi.json", ServeOpenAPI3Spec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
