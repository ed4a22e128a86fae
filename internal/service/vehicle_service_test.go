package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
)

func newVehicleServiceForTest(db *memoryDB) *VehicleService {
	return NewVehicleService(fakeVehicleRepo{db: db}, fakeErrorRepo{db: db}, zap.NewNop())
}

func TestVehicleServiceList(t *testing.T) {
	db := &memoryDB{}
	for day := 1; day <= 15; day++ {
		db.addVehicle(models.Vehicle{VIN: fmt.Sprintf("VIN%014d", day), DealerID: day % 2, ModifiedDate: models.NewDate(2023, 1, day)})
	}
	svc := newVehicleServiceForTest(db)

	vehicles, pagination, err := svc.List(context.Background(), models.VehicleFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, vehicles, 5)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 10, TotalCount: 15, TotalPages: 2}, pagination)
	assert.Equal(t, "2023-01-05", vehicles[0].ModifiedDate.String())

	dealer := 1
	since := models.NewDate(2023, 1, 10)
	vehicles, pagination, err = svc.List(context.Background(), models.VehicleFilter{DealerID: &dealer, ModifiedSince: &since, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, pagination.TotalCount)
	for _, v := range vehicles {
		assert.Equal(t, 1, v.DealerID)
	}
}

func TestVehicleServiceListRejectsBadPaging(t *testing.T) {
	svc := newVehicleServiceForTest(&memoryDB{})

	for _, filter := range []models.VehicleFilter{{Page: 0, PageSize: 10}, {Page: 1, PageSize: 0}, {Page: -1, PageSize: -1}} {
		_, _, err := svc.List(context.Background(), filter)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
		assert.Contains(t, err.Error(), "Page number and page size must be greater than 0")
	}

	_, _, err := svc.ListErrors(context.Background(), models.VehicleErrorFilter{Page: 0, PageSize: 10})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestVehicleServiceListRejectsHugePageNumber(t *testing.T) {
	svc := newVehicleServiceForTest(&memoryDB{})

	_, _, err := svc.List(context.Background(), models.VehicleFilter{Page: 184467440737095516, PageSize: 100})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "Page number must not exceed")

	_, _, err = svc.ListErrors(context.Background(), models.VehicleErrorFilter{Page: MaxPageNumber + 1, PageSize: 1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.List(context.Background(), models.VehicleFilter{Page: MaxPageNumber, PageSize: MaxPageSize})
	assert.NoError(t, err)
}

func TestVehicleServiceListCapsPageSize(t *testing.T) {
	svc := newVehicleServiceForTest(&memoryDB{})

	_, pagination, err := svc.List(context.Background(), models.VehicleFilter{Page: 1, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, pagination.PageSize)
	assert.Equal(t, 0, pagination.TotalPages)
}

func TestVehicleServiceGet(t *testing.T) {
	db := &memoryDB{}
	db.addVehicle(models.Vehicle{VIN: "VIN00000000000001", DealerID: 1, ModifiedDate: models.NewDate(2023, 1, 1)})
	db.addError(models.VehicleError{VIN: "BAD00000000000001", DealerID: 1, ModifiedDate: models.NewDate(2023, 1, 1)})
	svc := newVehicleServiceForTest(db)

	vehicle, err := svc.Get(context.Background(), "VIN00000000000001")
	require.NoError(t, err)
	assert.Equal(t, 1, vehicle.DealerID)

	_, err = svc.Get(context.Background(), "BAD00000000000001")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "Vehicle with VIN BAD00000000000001 not found.")

	record, err := svc.GetError(context.Background(), "BAD00000000000001")
	require.NoError(t, err)
	assert.Equal(t, "BAD00000000000001", record.VIN)

	_, err = svc.GetError(context.Background(), "VIN00000000000001")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "Error vehicle with VIN VIN00000000000001 not found.")
}

func TestVehicleServiceListErrors(t *testing.T) {
	db := &memoryDB{}
	for i := 0; i < 3; i++ {
		db.addError(models.VehicleError{VIN: fmt.Sprintf("BAD%014d", i), DealerID: i, ModifiedDate: models.NewDate(2023, 2, i+1)})
	}
	svc := newVehicleServiceForTest(db)

	records, pagination, err := svc.ListErrors(context.Background(), models.VehicleErrorFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, pagination.TotalCount)
	assert.Equal(t, 2, pagination.TotalPages)
}
