package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kadewerk/tally/tally-backend/internal/amqp"
	"github.com/kadewerk/tally/tally-backend/internal/config"
	"github.com/kadewerk/tally/tally-backend/internal/handler"
	"github.com/kadewerk/tally/tally-backend/internal/middleware"
	"github.com/kadewerk/tally/tally-backend/internal/report"
	"github.com/kadewerk/tally/tally-backend/internal/repository/postgres"
	"github.com/kadewerk/tally/tally-backend/internal/repository/storage"
	"github.com/kadewerk/tally/tally-backend/internal/service"
	"github.com/kadewerk/tally/tally-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Bring the schema up to date
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations applied")

	// Initialize repositories
	reportRepo := postgres.NewReportRepository(pool)
	tokenRepo := postgres.NewServiceTokenRepository(pool)

	// Locale for collated report sorting
	locale, err := language.Parse(cfg.ReportLocale)
	if err != nil {
		log.Fatal().Err(err).Str("locale", cfg.ReportLocale).Msg("Invalid report locale")
	}

	// Snapshot storage for archived report exports
	snapshotStore, err := storage.NewS3SnapshotStore(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}

	// Initialize services
	reportService := service.NewReportService(reportRepo, report.NewSorter(locale))
	editService := service.NewEditService(reportRepo, reportService)
	archiveService := service.NewArchiveService(reportService, snapshotStore)
	tokenService := service.NewTokenService(tokenRepo)

	// WebSocket hub fans edit and refresh events out to report viewers
	hub := websocket.NewHub()
	editService.SetEventPublisher(hub)

	// Initialize auth middleware
	jwtAuth, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	tokenAuth := middleware.NewServiceTokenAuthMiddleware(tokenService)
	dualAuth := middleware.NewDualAuthMiddleware(jwtAuth, tokenAuth)

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// WebSocket connections authenticate at upgrade time via query parameter
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	// Initialize handlers
	reportHandler := handler.NewReportHandler(reportService, archiveService)
	kpiHandler := handler.NewKPIHandler(editService)
	billableHandler := handler.NewBillableHandler(editService)
	cacheHandler := handler.NewCacheHandler(reportService)
	cacheHandler.SetEventPublisher(hub)
	tokenHandler := handler.NewTokenHandler(tokenService)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Sync pipeline notifications drop affected cached years as runs complete
	var syncListener *amqp.SyncListener
	if cfg.AMQP.URL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, cfg.AMQP.RoutingKey, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		defer amqpClient.Close()

		syncListener = amqp.NewSyncListener(amqpClient, reportService, hub, log.Logger)
		syncListener.Start(context.Background())
	} else {
		log.Info().Msg("AMQP disabled - no AMQP_URL provided")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, dualAuth, rateLimiter, reportHandler, kpiHandler, billableHandler, cacheHandler, tokenHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if syncListener != nil {
		syncListener.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
