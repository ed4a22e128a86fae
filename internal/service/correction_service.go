package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/repository"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
)

type correctionRepository interface {
	FindByVIN(ctx context.Context, vin string) (*models.VehicleError, error)
	Replace(ctx context.Context, oldID string, replacement *models.VehicleError) error
	Resolve(ctx context.Context, oldID string, vehicle *models.Vehicle) error
}

// CorrectionService retries error records under a replacement VIN.
type CorrectionService struct {
	repo      correctionRepository
	decoder   vinDecoder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCorrectionService constructs the correction workflow.
func NewCorrectionService(repo correctionRepository, decoder vinDecoder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CorrectionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrectionService{repo: repo, decoder: decoder, metrics: metrics, validator: validate, logger: logger}
}

// CorrectError consumes the error record held for req.OriginalVIN and
// produces exactly one new record: a vehicle when req.CorrectedVIN decodes,
// otherwise a fresh error record under the corrected VIN. A rejected decode
// is an outcome, not an error.
func (s *CorrectionService) CorrectError(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResult, error) {
	req.OriginalVIN = strings.TrimSpace(req.OriginalVIN)
	req.CorrectedVIN = strings.TrimSpace(req.CorrectedVIN)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, validationMessage(err))
	}
	dealerID := *req.DealerID
	modified, err := models.ParseDate(req.ModifiedDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "modifiedDate must be a date such as 2023-01-31")
	}

	original, err := s.repo.FindByVIN(ctx, req.OriginalVIN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Error vehicle with VIN %s not found.", req.OriginalVIN))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load error vehicle")
	}

	res, err := observedDecode(ctx, s.decoder, s.metrics, req.CorrectedVIN)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDecoderUnavailable.Code, appErrors.ErrDecoderUnavailable.Status, "error calling vin decoder")
	}

	if res.Failed() {
		replacement := &models.VehicleError{
			VIN:          req.CorrectedVIN,
			DealerID:     dealerID,
			ModifiedDate: modified,
			ErrorCode:    res.ErrorCode,
			ErrorText:    res.ErrorText,
		}
		if err := s.repo.Replace(ctx, original.ID, replacement); err != nil {
			return nil, s.storeError(err, req)
		}
		s.metrics.IncCorrection(models.CorrectionDecodeFailed)
		s.logger.Info("correction rejected by decoder",
			zap.String("original_vin", req.OriginalVIN),
			zap.String("corrected_vin", req.CorrectedVIN),
			zap.String("error_code", res.ErrorCodeValue()),
		)
		return &models.CorrectionResult{
			Outcome:   models.CorrectionDecodeFailed,
			Error:     replacement,
			ErrorCode: res.ErrorCode,
			ErrorText: res.ErrorText,
		}, nil
	}

	enrichment := enrichmentFrom(res)
	vehicle := &models.Vehicle{
		VIN:          req.CorrectedVIN,
		DealerID:     dealerID,
		ModifiedDate: modified,
		Make:         enrichment.Make,
		Model:        enrichment.Model,
		Year:         enrichment.Year,
	}
	if err := s.repo.Resolve(ctx, original.ID, vehicle); err != nil {
		return nil, s.storeError(err, req)
	}
	s.metrics.IncCorrection(models.CorrectionSucceeded)
	s.logger.Info("error vehicle corrected",
		zap.String("original_vin", req.OriginalVIN),
		zap.String("corrected_vin", req.CorrectedVIN),
	)
	return &models.CorrectionResult{Outcome: models.CorrectionSucceeded, Vehicle: vehicle}, nil
}

// DecodeFailedMessage describes a decode_failed correction result.
func DecodeFailedMessage(result *models.CorrectionResult) string {
	return fmt.Sprintf("Error from NHTSA API: Code=%s, Text=%s", deref(result.ErrorCode), deref(result.ErrorText))
}

func (s *CorrectionService) storeError(err error, req models.CorrectionRequest) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("VIN %s for dealerId %d on %s is already recorded.", req.CorrectedVIN, *req.DealerID, req.ModifiedDate))
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Error vehicle with VIN %s not found.", req.OriginalVIN))
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "error processing correction")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
