package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/Numraio/cpam-sub003/cmd/docs"
	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/core/services"
	"github.com/Numraio/cpam-sub003/internal/handlers"
	"github.com/Numraio/cpam-sub003/internal/ingestion"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/Numraio/cpam-sub003/internal/platform/config"
	"github.com/Numraio/cpam-sub003/internal/repositories/database/pgsql"
	"github.com/Numraio/cpam-sub003/internal/scheduler"
	"github.com/Numraio/cpam-sub003/internal/worker"
	"github.com/Numraio/cpam-sub003/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title Contract Price Adjustment API
// @version 1.0
// @description Index-linked contract price adjustment: series ingestion, formula evaluation, calculation batches and revision proposals.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cal, err := calendar.ForRegion(cfg.CalendarRegion)
	if err != nil {
		logger.Error("Failed to build calendar", slog.String("region", cfg.CalendarRegion), slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := worker.New(ctx, "batch-exec", cfg.WorkerPoolSize, logger)
	if err != nil {
		logger.Error("Failed to create worker pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Release()

	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(repos, cal, pool, services.ContainerConfig{
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
		FallbackMode: domain.FallbackMode(cfg.FallbackMode),
	})

	ingester := ingestion.NewIngester(container.Series, ingestion.DefaultRetryPolicy(), cfg.IngestPace)

	scanner := scheduler.NewRevisionScanner(cfg.RevisionScanSpec, container.Proposal, repos.BatchRepo, logger)
	if err := scanner.Start(); err != nil {
		logger.Error("Failed to start revision scanner", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer scanner.Stop()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if rate, err := limiter.NewRateFromFormatted(cfg.RateLimit); err == nil {
		r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))
	} else {
		logger.Warn("Invalid RATE_LIMIT; rate limiting disabled", slog.String("value", cfg.RateLimit))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, cal, ingester)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", slog.String("error", err.Error()))
	}
}

// runMigrations applies all pending up migrations from the migrations/
// directory using a temporary database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
