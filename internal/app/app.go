package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/config"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/db"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/dropout"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/health"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/logger"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/messaging"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/middleware"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/telemetry"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/wine"

	"github.com/gin-gonic/gin"
)

type App struct {
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	logger   *slog.Logger
	tel      *telemetry.Telemetry
	producer messaging.Producer
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		config: cfg,
		router: gin.New(),
		logger: slogLogger,
	}

	app.router.Use(gin.Recovery())
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	database := db.New(cfg.Database)

	ctx := context.Background()
	migrations := []db.Migration{
		{Model: (*wine.Analysis)(nil)},
		{
			Model: (*wine.Classification)(nil),
			ForeignKeys: []string{
				`("analysis_id") REFERENCES "wine_analyses" ("id") ON DELETE CASCADE`,
			},
		},
		{
			Model: (*wine.Component)(nil),
			ForeignKeys: []string{
				`("analysis_id") REFERENCES "wine_analyses" ("id") ON DELETE CASCADE`,
			},
		},
		{Model: (*dropout.Analysis)(nil)},
	}
	if err := db.RunMigrations(ctx, database, migrations...); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	// Telemetry is best-effort: without an exporter the app runs with no-op metrics
	tel, err := telemetry.Init(ctx, ServiceName, Version, slogLogger)
	var m *metrics.Metrics
	if err != nil {
		slogLogger.Warn("failed to initialize telemetry", "error", err)
		m = metrics.NewMock()
	} else {
		app.tel = tel
		m = tel.Metrics
	}

	// Health endpoints
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	// Event producer setup (driver selected by config; nil disables publishing)
	producer, err := messaging.NewProducer(cfg, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize event producer", "error", err)
		producer = nil
	} else if producer != nil {
		slogLogger.Info("event producer initialized", "driver", cfg.Messaging.Driver)
	}
	app.producer = producer

	// Wine analysis endpoints
	wineRepo := wine.NewRepository(database, m)
	wineService := wine.NewService(wineRepo, producer, slogLogger)
	wineHandler := wine.NewHandler(wineService, slogLogger, m)

	// Student dropout endpoints
	dropoutRepo := dropout.NewRepository(database, m)
	dropoutService := dropout.NewService(dropoutRepo, producer, slogLogger, cfg.Import.SourceTable, cfg.Import.MaxRecords)
	dropoutHandler := dropout.NewHandler(dropoutService, slogLogger, m)

	api := app.router.Group("/api")
	wineHandler.RegisterRoutes(api)
	dropoutHandler.RegisterRoutes(api)

	slogLogger.Info("application initialized successfully")

	return app
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", a.config.Server.Port),
		Handler: a.router,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close event producer", "error", err)
		}
	}

	if a.tel != nil {
		if err := telemetry.Shutdown(ctx, a.tel.MeterProvider, a.logger); err != nil {
			a.logger.Warn("failed to shutdown telemetry", "error", err)
		}
	}

	return a.server.Shutdown(ctx)
}
