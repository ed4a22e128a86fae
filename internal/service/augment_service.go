package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
	"github.com/noah-isme/vehicle-data-api/pkg/jobs"
	"github.com/noah-isme/vehicle-data-api/pkg/lock"
	"github.com/noah-isme/vehicle-data-api/pkg/vpic"
)

const augmentLockKey = "vehicle:augment-all"

type augmentRepository interface {
	FindByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	UpdateEnrichment(ctx context.Context, id string, enrichment models.Enrichment) (*models.Vehicle, error)
	ListAll(ctx context.Context) ([]models.Vehicle, error)
	ApplyAugmentation(ctx context.Context, updates []models.AugmentUpdate, failures []models.AugmentFailure) error
}

// AugmentService enriches vehicles with decoded make, model and year.
type AugmentService struct {
	repo    augmentRepository
	decoder vinDecoder
	pool    *jobs.Pool
	locker  lock.Locker
	metrics *MetricsService
	logger  *zap.Logger
	lockTTL time.Duration
}

// NewAugmentService constructs the augmentation workflow.
func NewAugmentService(repo augmentRepository, decoder vinDecoder, pool *jobs.Pool, locker lock.Locker, metrics *MetricsService, logger *zap.Logger, lockTTL time.Duration) *AugmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = jobs.NewPool("augment", jobs.PoolConfig{Workers: 1, Logger: logger})
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &AugmentService{
		repo:    repo,
		decoder: decoder,
		pool:    pool,
		locker:  locker,
		metrics: metrics,
		logger:  logger,
		lockTTL: lockTTL,
	}
}

// Augment decodes one vehicle and stores the result. A rejected decode is
// returned as an error and leaves the vehicle untouched.
func (s *AugmentService) Augment(ctx context.Context, vin string) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Vehicle with VIN %s not found.", vin))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}

	res, err := observedDecode(ctx, s.decoder, s.metrics, vin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDecoderUnavailable.Code, appErrors.ErrDecoderUnavailable.Status, "error calling vin decoder")
	}
	if res.Failed() {
		return nil, appErrors.WithDetails(appErrors.ErrDecodeRejected, rejectionMessage(res), decodeDetails(res))
	}

	updated, err := s.repo.UpdateEnrichment(ctx, vehicle.ID, enrichmentFrom(res))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Vehicle with VIN %s not found.", vin))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update vehicle")
	}
	return updated, nil
}

type decodeOutcome struct {
	result vpic.Result
	err    error
}

// AugmentAll decodes every vehicle and commits the whole pass at once.
// Rejected vehicles move to the error collection; decoder failures are logged,
// counted as errors and leave the vehicle as it was. If ctx ends before the
// commit nothing is written.
func (s *AugmentService) AugmentAll(ctx context.Context) (*models.AugmentSummary, error) {
	release, err := s.locker.Acquire(ctx, augmentLockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, appErrors.Clone(appErrors.ErrBusy, "an augmentation pass is already running")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire augmentation lock")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release augmentation lock", zap.Error(err))
		}
	}()

	vehicles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error augmenting vehicles")
	}

	outcomes, err := jobs.Map(ctx, s.pool, vehicles, func(ctx context.Context, v models.Vehicle) decodeOutcome {
		res, err := observedDecode(ctx, s.decoder, s.metrics, v.VIN)
		return decodeOutcome{result: res, err: err}
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "augmentation cancelled")
	}

	updates := make([]models.AugmentUpdate, 0, len(vehicles))
	failures := make([]models.AugmentFailure, 0)
	serviceErrors := 0
	for i, outcome := range outcomes {
		vehicle := vehicles[i]
		switch {
		case outcome.err != nil:
			s.logger.Error("error augmenting vehicle", zap.String("vin", vehicle.VIN), zap.Error(outcome.err))
			serviceErrors++
		case outcome.result.Failed():
			failures = append(failures, models.AugmentFailure{
				Vehicle:   vehicle,
				ErrorCode: outcome.result.ErrorCode,
				ErrorText: outcome.result.ErrorText,
			})
		default:
			updates = append(updates, models.AugmentUpdate{VehicleID: vehicle.ID, Enrichment: enrichmentFrom(outcome.result)})
		}
	}

	if err := s.repo.ApplyAugmentation(ctx, updates, failures); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error augmenting vehicles")
	}

	s.metrics.AddAugmented(AugmentUpdated, len(updates))
	s.metrics.AddAugmented(AugmentQuarantined, len(failures))
	s.metrics.AddAugmented(AugmentFailed, serviceErrors)

	summary := &models.AugmentSummary{
		UpdatedCount: len(updates),
		ErrorCount:   len(failures) + serviceErrors,
	}
	summary.Message = fmt.Sprintf("Augmentation completed. Updated: %d, Errors: %d", summary.UpdatedCount, summary.ErrorCount)
	s.logger.Info("augmentation pass finished",
		zap.Int("vehicles", len(vehicles)),
		zap.Int("updated", summary.UpdatedCount),
		zap.Int("quarantined", len(failures)),
		zap.Int("decoder_errors", serviceErrors),
	)
	return summary, nil
}

func rejectionMessage(res vpic.Result) string {
	return fmt.Sprintf("Error from NHTSA API: Code=%s, Text=%s", res.ErrorCodeValue(), res.ErrorTextValue())
}

func decodeDetails(res vpic.Result) map[string]interface{} {
	return map[string]interface{}{
		"errorCode": res.ErrorCode,
		"errorText": res.ErrorText,
	}
}
