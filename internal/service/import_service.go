package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
	"github.com/noah-isme/vehicle-data-api/pkg/lock"
	"github.com/noah-isme/vehicle-data-api/pkg/storage"
)

const importLockKey = "vehicle:import"

type importRepository interface {
	ExistingVINs(ctx context.Context, vins []string) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, vehicles []models.Vehicle) error
}

// ImportConfig wires the importer to its source and lock settings.
type ImportConfig struct {
	SourcePath string
	LockTTL    time.Duration
}

type importRow struct {
	VIN      string `validate:"required,max=32"`
	DealerID int
	Modified models.Date
}

// ImportService loads VINs from a dealer file into the vehicles collection.
type ImportService struct {
	repo      importRepository
	archiver  storage.Archiver
	locker    lock.Locker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ImportConfig
	now       func() time.Time
}

// NewImportService constructs the importer.
func NewImportService(repo importRepository, archiver storage.Archiver, locker lock.Locker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ImportConfig) *ImportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &ImportService{
		repo:      repo,
		archiver:  archiver,
		locker:    locker,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SourcePath returns the configured default source.
func (s *ImportService) SourcePath() string {
	return s.cfg.SourcePath
}

// Import reads sourcePath (or the configured source when empty), stores every
// valid new VIN in one batch and archives the file. Row problems are reported
// in the result and never abort the batch.
func (s *ImportService) Import(ctx context.Context, sourcePath string) (*models.ImportResult, error) {
	if sourcePath == "" {
		sourcePath = s.cfg.SourcePath
	}
	kind := sourceKind(sourcePath)

	release, err := s.locker.Acquire(ctx, importLockKey, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, appErrors.Clone(appErrors.ErrBusy, "an import is already running")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire import lock")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release import lock", zap.Error(err))
		}
	}()

	if _, err := os.Stat(sourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, kind+" file not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open "+kind+" file")
	}

	rows, err := readSource(sourcePath)
	if err != nil {
		if errors.Is(err, ErrUnsupportedSource) {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error processing "+kind)
	}

	candidates := lo.Uniq(lo.FilterMap(rows, func(r sourceRow, _ int) (string, bool) {
		return r.VIN, r.VIN != ""
	}))
	existing, err := s.repo.ExistingVINs(ctx, candidates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error processing "+kind)
	}

	result := &models.ImportResult{TotalProcessed: len(rows), Errors: []string{}}
	seen := make(map[string]struct{}, len(rows))
	vehicles := make([]models.Vehicle, 0, len(rows))
	invalid, duplicates, failed := 0, 0, 0

	for _, row := range rows {
		if row.VIN == "" || row.ModifiedDate == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Missing VIN or ModifiedDate for dealerId %s.", row.DealerID))
			invalid++
			continue
		}
		_, inStore := existing[row.VIN]
		_, inFile := seen[row.VIN]
		if inStore || inFile {
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate VIN %s for dealerId %s.", row.VIN, row.DealerID))
			duplicates++
			continue
		}

		parsed, err := s.parseRow(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to import VIN %s: %s", row.VIN, err.Error()))
			failed++
			continue
		}

		seen[row.VIN] = struct{}{}
		vehicles = append(vehicles, models.Vehicle{
			VIN:          parsed.VIN,
			DealerID:     parsed.DealerID,
			ModifiedDate: parsed.Modified,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "import cancelled")
	}
	if err := s.repo.InsertBatch(ctx, vehicles); err != nil {
		s.metrics.AddImportRows(ImportRowFailed, len(vehicles))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error processing "+kind)
	}
	result.SuccessfullyImported = len(vehicles)

	s.metrics.AddImportRows(ImportRowImported, len(vehicles))
	s.metrics.AddImportRows(ImportRowInvalid, invalid)
	s.metrics.AddImportRows(ImportRowDuplicate, duplicates)
	s.metrics.AddImportRows(ImportRowFailed, failed)

	if s.archiver != nil {
		name := storage.ArchiveName(sourcePath, s.now())
		location, err := s.archiver.Archive(ctx, sourcePath, name)
		if err != nil {
			s.logger.Warn("archive import source", zap.String("path", sourcePath), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to archive %s: %s", kind, err.Error()))
		} else {
			s.logger.Info("import source archived", zap.String("location", location))
		}
	}

	s.logger.Info("vehicle import finished",
		zap.String("path", sourcePath),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("imported", result.SuccessfullyImported),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *ImportService) parseRow(row sourceRow) (importRow, error) {
	dealerID, err := strconv.Atoi(row.DealerID)
	if err != nil {
		return importRow{}, fmt.Errorf("invalid dealerId %q", row.DealerID)
	}
	modified, err := models.ParseDate(row.ModifiedDate)
	if err != nil {
		return importRow{}, err
	}
	parsed := importRow{VIN: row.VIN, DealerID: dealerID, Modified: modified}
	if err := s.validator.Struct(parsed); err != nil {
		return importRow{}, errors.New(validationMessage(err))
	}
	return parsed, nil
}

// sourceKind names the file type in user-facing messages.
func sourceKind(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "CSV"
	}
	return strings.ToUpper(ext)
}
