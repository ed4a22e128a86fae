// Package app assembles the vehicle data services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/repository"
	"github.com/noah-isme/vehicle-data-api/internal/service"
	"github.com/noah-isme/vehicle-data-api/migrations"
	"github.com/noah-isme/vehicle-data-api/pkg/config"
	"github.com/noah-isme/vehicle-data-api/pkg/database"
	"github.com/noah-isme/vehicle-data-api/pkg/jobs"
	"github.com/noah-isme/vehicle-data-api/pkg/lock"
	"github.com/noah-isme/vehicle-data-api/pkg/storage"
	"github.com/noah-isme/vehicle-data-api/pkg/vpic"
)

// App holds the wired services shared by the HTTP server and the CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB

	Metrics   *service.MetricsService
	Vehicles  *service.VehicleService
	Importer  *service.ImportService
	Augmenter *service.AugmentService
	Corrector *service.CorrectionService
	Exporter  *service.ExportService

	redis *redis.Client
}

// New connects to the database, applies migrations when enabled and builds
// every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, migrations.FS, logger); err != nil {
			return nil, err
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Metrics: service.NewMetricsService()}

	locker := a.newLocker()
	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	decoder := vpic.NewClient(vpic.Config{BaseURL: cfg.Decoder.BaseURL, Timeout: cfg.Decoder.Timeout}, logger)
	pool := jobs.NewPool("augment", jobs.PoolConfig{Workers: cfg.Augment.Workers, Logger: logger})
	validate := service.NewValidator()

	vehicleRepo := repository.NewVehicleRepository(db)
	errorRepo := repository.NewVehicleErrorRepository(db)

	a.Vehicles = service.NewVehicleService(vehicleRepo, errorRepo, logger)
	a.Importer = service.NewImportService(vehicleRepo, archiver, locker, a.Metrics, validate, logger, service.ImportConfig{
		SourcePath: cfg.Import.SourcePath,
		LockTTL:    cfg.Augment.LockTTL,
	})
	a.Augmenter = service.NewAugmentService(vehicleRepo, decoder, pool, locker, a.Metrics, logger, cfg.Augment.LockTTL)
	a.Corrector = service.NewCorrectionService(errorRepo, decoder, a.Metrics, validate, logger)
	a.Exporter = service.NewExportService(errorRepo, logger)

	return a, nil
}

// newLocker prefers Redis so passes do not overlap across instances.
func (a *App) newLocker() lock.Locker {
	if !a.Config.Redis.Enabled {
		return lock.NewLocalLocker()
	}
	client, err := lock.NewRedis(a.Config.Redis)
	if err != nil {
		a.Logger.Warn("redis unavailable, using in-process locks", zap.Error(err))
		return lock.NewLocalLocker()
	}
	a.redis = client
	return lock.NewRedisLocker(client, a.Logger)
}

func newArchiver(ctx context.Context, cfg *config.Config) (storage.Archiver, error) {
	if cfg.Import.ArchiveBackend == config.ArchiveBackendMinIO {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("init minio archive: %w", err)
		}
		return store, nil
	}
	return storage.NewLocalStorage(cfg.Import.ArchiveDir), nil
}

// SeedOnStartup imports the configured source once when IMPORT_ON_STARTUP is
// set. A missing file is skipped.
func (a *App) SeedOnStartup(ctx context.Context) {
	if !a.Config.Import.OnStartup {
		return
	}
	seed(ctx, a.Importer, a.Logger)
}

type sourceImporter interface {
	SourcePath() string
	Import(ctx context.Context, sourcePath string) (*models.ImportResult, error)
}

// seed runs one import of the importer's configured source and reports
// whether it ran.
func seed(ctx context.Context, importer sourceImporter, logger *zap.Logger) bool {
	path := importer.SourcePath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("startup import skipped, source not found", zap.String("path", path))
		return false
	}
	result, err := importer.Import(ctx, path)
	if err != nil {
		logger.Error("startup import failed", zap.Error(err))
		return true
	}
	logger.Info("startup import finished",
		zap.Int("processed", result.TotalProcessed),
		zap.Int("imported", result.SuccessfullyImported),
		zap.Strings("errors", result.Errors),
	)
	return true
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
