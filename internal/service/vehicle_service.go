package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
)

// Paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps the row offset within a Postgres integer.
	MaxPageNumber   = math.MaxInt32 / MaxPageSize
)

type vehicleQueryRepository interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error)
	FindByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
}

type vehicleErrorQueryRepository interface {
	List(ctx context.Context, filter models.VehicleErrorFilter) ([]models.VehicleError, int, error)
	FindByVIN(ctx context.Context, vin string) (*models.VehicleError, error)
}

// VehicleService answers read queries over both collections.
type VehicleService struct {
	vehicles     vehicleQueryRepository
	errorRecords vehicleErrorQueryRepository
	logger       *zap.Logger
}

// NewVehicleService constructs the query service.
func NewVehicleService(vehicles vehicleQueryRepository, errorRecords vehicleErrorQueryRepository, logger *zap.Logger) *VehicleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{vehicles: vehicles, errorRecords: errorRecords, logger: logger}
}

// List pages through vehicles.
func (s *VehicleService) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, *models.Pagination, error) {
	page, size, err := normalizePage(filter.Page, filter.PageSize)
	if err != nil {
		return nil, nil, err
	}
	filter.Page, filter.PageSize = page, size

	vehicles, total, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vehicles")
	}
	return vehicles, models.NewPagination(page, size, total), nil
}

// Get returns the vehicle held for vin.
func (s *VehicleService) Get(ctx context.Context, vin string) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Vehicle with VIN %s not found.", vin))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	return vehicle, nil
}

// ListErrors pages through error records, newest modified date first.
func (s *VehicleService) ListErrors(ctx context.Context, filter models.VehicleErrorFilter) ([]models.VehicleError, *models.Pagination, error) {
	page, size, err := normalizePage(filter.Page, filter.PageSize)
	if err != nil {
		return nil, nil, err
	}
	filter.Page, filter.PageSize = page, size

	records, total, err := s.errorRecords.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list error vehicles")
	}
	return records, models.NewPagination(page, size, total), nil
}

// GetError returns the error record held for vin.
func (s *VehicleService) GetError(ctx context.Context, vin string) (*models.VehicleError, error) {
	record, err := s.errorRecords.FindByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Error vehicle with VIN %s not found.", vin))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load error vehicle")
	}
	return record, nil
}

// normalizePage rejects non-positive values and caps the page size.
func normalizePage(page, size int) (int, int, error) {
	if page < 1 || size < 1 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "Page number and page size must be greater than 0")
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page > MaxPageNumber {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Page number must not exceed %d", MaxPageNumber))
	}
	return page, size, nil
}
