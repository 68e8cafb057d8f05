package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/adapter/cache"
	remoteanalytics "github.com/voltgrid/console/internal/adapter/external/analytics"
	"github.com/voltgrid/console/internal/adapter/external/rawdata"
	"github.com/voltgrid/console/internal/adapter/http/fiber/middleware"
	"github.com/voltgrid/console/internal/adapter/queue"
	"github.com/voltgrid/console/internal/adapter/storage/postgres"
	wsAdapter "github.com/voltgrid/console/internal/adapter/websocket"
	"github.com/voltgrid/console/internal/infrastructure/circuitbreaker"
	"github.com/voltgrid/console/internal/observability/telemetry"
	"github.com/voltgrid/console/internal/ports"
	"github.com/voltgrid/console/internal/service/analytics"
	"github.com/voltgrid/console/internal/service/email"
	"github.com/voltgrid/console/pkg/config"
)

const serviceName = "voltgrid-console"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting VoltGrid operator console",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// Distributed tracing
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	breakers := circuitbreaker.NewManager(logger)

	// Raw data sources feed the local fallback aggregator. They come either
	// from the platform's listing API or straight from its database.
	var (
		stations ports.StationDirectory
		sessions ports.SessionSource
		payments ports.PaymentSource
		dbPing   func() error
	)
	switch cfg.Analytics.FallbackSource {
	case "database":
		db, err := postgres.NewConnection(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()
		dbPing = sqlDB.Ping

		stations = postgres.NewStationRepository(db, logger)
		sessions = postgres.NewSessionRepository(db, logger)
		payments = postgres.NewPaymentRepository(db, logger)
	default:
		guarded := circuitbreaker.NewHTTPClient(
			&http.Client{},
			breakers.Get("rawdata", circuitbreaker.DefaultSettings()),
			logger,
		)
		rawClient := rawdata.NewClient(rawdata.Config{
			BaseURL: cfg.Analytics.RawDataBaseURL,
			Timeout: cfg.Analytics.RequestTimeout,
		}, guarded, logger)
		stations, sessions, payments = rawClient, rawClient, rawClient
	}

	// Redis report cache, degrading to in-process memory when unreachable
	reportCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable; using in-memory report cache", zap.Error(err))
		reportCache = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	}
	defer reportCache.Close()

	// Event broker for report lifecycle events
	var messageQueue queue.MessageQueue
	switch cfg.Queue.Provider {
	case "rabbitmq":
		messageQueue, err = queue.NewRabbitMQQueue(cfg.Queue.RabbitMQURL, logger)
	default:
		messageQueue, err = queue.NewNATSQueue(cfg.Queue.NATSURL, logger)
	}
	if err != nil {
		logger.Warn("Message queue unavailable; report events disabled", zap.Error(err))
		messageQueue = nil
	} else {
		defer messageQueue.Close()
	}

	// Remote aggregation client: four slice endpoints, each behind its own
	// circuit breaker
	provider := remoteanalytics.NewClient(remoteanalytics.Config{
		BaseURL: cfg.Analytics.RemoteBaseURL,
		Timeout: cfg.Analytics.RequestTimeout,
	}, &http.Client{}, breakers, logger)

	hub := wsAdapter.NewHub()
	go hub.Run()

	engine := analytics.NewSuggestionEngine(analytics.SuggestionPolicy{
		StationSharePct: cfg.Suggestions.StationSharePct,
		RegionSharePct:  cfg.Suggestions.RegionSharePct,
		TopPeakHours:    cfg.Suggestions.TopPeakHours,
	})

	deps := analytics.Deps{
		Provider:    provider,
		Stations:    stations,
		Sessions:    sessions,
		Payments:    payments,
		Cache:       reportCache,
		Broadcaster: hub,
		Logger:      logger,
	}
	if messageQueue != nil {
		deps.Publisher = messageQueue
	}
	reportService := analytics.NewService(deps, engine, analytics.Config{
		RefreshInterval: cfg.Analytics.RefreshInterval,
		CacheTTL:        cfg.Cache.ReportTTL,
	})

	if messageQueue != nil {
		if err := reportService.SubscribeSyncEvents(messageQueue); err != nil {
			logger.Warn("Sync event subscription failed", zap.Error(err))
		}
	}

	var emailService *email.Service
	if cfg.Email.Provider != "" {
		emailService, err = email.NewService(&email.Config{
			Provider:       cfg.Email.Provider,
			FromEmail:      cfg.Email.From,
			FromName:       cfg.Email.FromName,
			SendGridAPIKey: cfg.Email.APIKey,
			SMTPHost:       cfg.Email.SMTPHost,
			SMTPPort:       cfg.Email.SMTPPort,
			SMTPUsername:   cfg.Email.SMTPUsername,
			SMTPPassword:   cfg.Email.SMTPPassword,
			SMTPUseTLS:     cfg.Email.SMTPUseTLS,
			BaseURL:        cfg.Email.BaseURL,
		}, logger)
		if err != nil {
			logger.Warn("Email service unavailable; digests disabled", zap.Error(err))
			emailService = nil
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	} else {
		app.Use(middleware.DefaultCORS())
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if dbPing != nil {
			if err := dbPing(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).SendString("Database not ready")
			}
		}
		if err := reportCache.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})
	app.Get("/health/breakers", func(c *fiber.Ctx) error {
		return c.JSON(breakers.Status())
	})

	if cfg.Prometheus.Enabled {
		metricsPath := cfg.Prometheus.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(metricsPath, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	authRequired := middleware.AuthRequired(cfg.JWT.Secret)
	analytics.NewHandler(reportService).RegisterRoutes(app, authRequired)

	if emailService != nil && cfg.Email.DigestTo != "" {
		app.Post("/api/v1/reports/digest", authRequired, func(c *fiber.Ctx) error {
			report := reportService.Current()
			if report == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "no report available yet",
				})
			}
			if err := emailService.SendReportDigest(c.Context(), cfg.Email.DigestTo, report); err != nil {
				return err
			}
			return c.JSON(fiber.Map{"success": true})
		})
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/reports", websocket.New(func(c *websocket.Conn) {
		hub.AddClient(c)
	}))

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the view state, then hand over to the periodic refresh loop
	go func() {
		ctx, cancel := context.WithTimeout(rootCtx, cfg.Analytics.RequestTimeout+time.Minute)
		defer cancel()
		if _, err := reportService.Refresh(ctx, reportService.CurrentFilter()); err != nil {
			logger.Warn("Initial refresh failed", zap.Error(err))
		}
	}()
	reportService.Start(rootCtx)
	defer reportService.Stop()

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
