package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bizinsights/internal/config"
	"bizinsights/internal/dataset"
	apierrors "bizinsights/internal/errors"
	"bizinsights/internal/infrastructure"
	customMiddleware "bizinsights/internal/middleware"
	"bizinsights/internal/services"
	handlers "bizinsights/internal/transport/http"
	"bizinsights/internal/validation"
	ws "bizinsights/internal/websocket"
)

var (
	// Version is overridden at link time.
	Version = config.AppVersion
	// BuildTime is set at compile time
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	SystemMetrics *infrastructure.SystemMetrics
	Dataset       *dataset.Cache
	WebSocketHub  *ws.Hub
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Data      *services.DataService
	Health    *services.HealthService
	WebSocket *ws.Hub
}

// NewApplication loads configuration from the environment and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig builds the application from an explicit configuration.
// The dataset is loaded before it returns; a missing or unreadable data file
// is fatal.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(context.Background()); err != nil {
		app.release(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		app.release(context.Background())
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreateDashboardMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create dashboard metrics: %w", err)
	}
	a.Metrics = metrics

	systemMetrics, err := infrastructure.NewSystemMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create system metrics: %w", err)
	}
	a.SystemMetrics = systemMetrics

	hubMetrics, err := ws.NewHubMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}

	a.Dataset = dataset.NewCache(dataset.Config{
		BaseDir:    a.Config.Dataset.BaseDir,
		Candidates: a.Config.Dataset.Candidates,
		Recorder:   metrics,
	}, a.Logger)

	snap, err := a.Dataset.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	a.Logger.InfoContext(ctx, "Dataset loaded",
		slog.String("path", snap.Path),
		slog.Int("rows", len(snap.Records)))

	hub := ws.NewHub(a.Logger, hubMetrics)
	hub.Start()
	a.WebSocketHub = hub

	a.Dataset.OnReload(func(s *dataset.Snapshot) {
		hub.BroadcastDataUpdate(s.Info())
	})

	dataService := services.NewDataService(a.Dataset, a.Config, metrics, a.Logger)
	dataService.SetNotifier(hub)

	healthService := services.NewHealthService(Version, BuildTime, a.Dataset, hub, systemMetrics, a.Logger)

	a.Services = &ServiceContainer{
		Data:      dataService,
		Health:    healthService,
		WebSocket: hub,
	}

	return nil
}

// setupRouter builds the middleware chain and mounts every route.
// RequestID → RealIP → [ws] → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Neither wraps the ResponseWriter, so the websocket upgrade survives them.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Outside the group: scrapes are neither logged nor rate limited.
	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)
	dataHandler := handlers.NewDataHandler(a.Services.Data, validator, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.StripSlashes)

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
			r.Use(customMiddleware.Compress(5))
			r.Mount("/data", dataHandler.Routes())
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
			"X-Total-Count",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var serverErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			serverErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	a.release(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil && serverErr == nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return serverErr
}

// release stops background services in reverse start order.
func (a *Application) release(ctx context.Context) {
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.Dataset != nil {
		if err := a.Dataset.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing dataset cache", slog.String("error", err.Error()))
		}
	}
	if a.SystemMetrics != nil {
		if err := a.SystemMetrics.Stop(); err != nil {
			a.Logger.ErrorContext(ctx, "Error stopping system metrics", slog.String("error", err.Error()))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the dataset is loaded and the export
// directory is writable.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	if err := a.Services.Health.Ready(ctx); err != nil {
		return err
	}

	dir := a.Config.GetExportDir()
	if err := validation.NewFileValidator(a.Logger).ValidateOutputDirectory(dir); err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Startup health check passed", slog.String("export_dir", dir))
	return nil
}
