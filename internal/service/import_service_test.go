package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
	"github.com/noah-isme/vehicle-data-api/pkg/lock"
	"github.com/noah-isme/vehicle-data-api/pkg/storage"
)

type failingArchiver struct{ err error }

func (a failingArchiver) Archive(context.Context, string, string) (string, error) {
	return "", a.err
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newImportServiceForTest(db *memoryDB, archiver storage.Archiver, locker lock.Locker) *ImportService {
	svc := NewImportService(fakeVehicleRepo{db: db}, archiver, locker, nil, nil, zap.NewNop(), ImportConfig{})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestImportServiceImportCSV(t *testing.T) {
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")
	src := writeSource(t, dir, "sample-vin-data.csv", "\xEF\xBB\xBFdealerId,vin,modifiedDate\n"+
		"1,1FTFW1E50MFA00001,2023-01-15\n"+
		"2,,2023-01-16\n"+
		"3,EXISTING00000001,2023-01-17\n"+
		"4,1FTFW1E50MFA00001,2023-01-18\n"+
		"5,2T1BURHE0JC000002,not-a-date\n"+
		"x,3VWDX7AJ5DM000003,2023-01-19\n"+
		"\n"+
		"6, 5YJSA1E26HF000004 ,01/20/2023\n")

	db := &memoryDB{}
	db.addError(models.VehicleError{VIN: "EXISTING00000001", DealerID: 9, ModifiedDate: models.NewDate(2022, 1, 1)})
	svc := newImportServiceForTest(db, storage.NewLocalStorage(archiveDir), nil)

	result, err := svc.Import(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 7, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessfullyImported)
	assert.Equal(t, []string{
		"Missing VIN or ModifiedDate for dealerId 2.",
		"Duplicate VIN EXISTING00000001 for dealerId 3.",
		"Duplicate VIN 1FTFW1E50MFA00001 for dealerId 4.",
		`Failed to import VIN 2T1BURHE0JC000002: unrecognized date "not-a-date"`,
		`Failed to import VIN 3VWDX7AJ5DM000003: invalid dealerId "x"`,
	}, result.Errors)

	first, ok := db.vehicleByVIN("1FTFW1E50MFA00001")
	require.True(t, ok)
	assert.Equal(t, 1, first.DealerID)
	assert.Equal(t, "2023-01-15", first.ModifiedDate.String())
	assert.Nil(t, first.Make)
	assert.Nil(t, first.Model)
	assert.Nil(t, first.Year)

	trimmed, ok := db.vehicleByVIN("5YJSA1E26HF000004")
	require.True(t, ok)
	assert.Equal(t, "2023-01-20", trimmed.ModifiedDate.String())

	_, err = os.Stat(src)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(archiveDir, "sample-vin-data-20240301120000.csv"))
	assert.NoError(t, err)
}

func TestImportServiceImportTwiceReportsDuplicates(t *testing.T) {
	dir := t.TempDir()
	content := "dealerId,vin,modifiedDate\n1,VIN00000000000001,2023-01-15\n"
	db := &memoryDB{}
	svc := newImportServiceForTest(db, nil, nil)

	_, err := svc.Import(context.Background(), writeSource(t, dir, "a.csv", content))
	require.NoError(t, err)
	result, err := svc.Import(context.Background(), writeSource(t, dir, "b.csv", content))
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessfullyImported)
	assert.Equal(t, []string{"Duplicate VIN VIN00000000000001 for dealerId 1."}, result.Errors)
	assert.Len(t, db.vehicles, 1)
}

func TestImportServiceImportXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dealer.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"VIN", "DealerId", "ModifiedDate"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1HGCM82633A004352", "12", "2023-05-01"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	db := &memoryDB{}
	svc := newImportServiceForTest(db, nil, nil)

	result, err := svc.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessfullyImported)
	assert.Empty(t, result.Errors)

	vehicle, ok := db.vehicleByVIN("1HGCM82633A004352")
	require.True(t, ok)
	assert.Equal(t, 12, vehicle.DealerID)
}

func TestImportServiceSourceMissing(t *testing.T) {
	svc := newImportServiceForTest(&memoryDB{}, nil, nil)

	_, err := svc.Import(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "CSV file not found.")
}

func TestImportServiceUnsupportedSource(t *testing.T) {
	src := writeSource(t, t.TempDir(), "vins.json", "[]")
	svc := newImportServiceForTest(&memoryDB{}, nil, nil)

	_, err := svc.Import(context.Background(), src)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestImportServiceArchiveFailureIsReported(t *testing.T) {
	src := writeSource(t, t.TempDir(), "sample.csv", "dealerId,vin,modifiedDate\n1,VIN00000000000001,2023-01-15\n")
	db := &memoryDB{}
	svc := newImportServiceForTest(db, failingArchiver{err: errors.New("disk full")}, nil)

	result, err := svc.Import(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessfullyImported)
	assert.Equal(t, []string{"Failed to archive CSV: disk full"}, result.Errors)
	assert.Len(t, db.vehicles, 1)
}

func TestImportServiceBatchFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sample.csv", "dealerId,vin,modifiedDate\n1,VIN00000000000001,2023-01-15\n")
	db := &memoryDB{insertErr: errors.New("connection reset")}
	svc := newImportServiceForTest(db, storage.NewLocalStorage(filepath.Join(dir, "archive")), nil)

	_, err := svc.Import(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	_, statErr := os.Stat(src)
	assert.NoError(t, statErr)
	assert.Empty(t, db.vehicles)
}

func TestImportServiceBusy(t *testing.T) {
	src := writeSource(t, t.TempDir(), "sample.csv", "dealerId,vin,modifiedDate\n")
	locker := lock.NewLocalLocker()
	release, err := locker.Acquire(context.Background(), importLockKey, time.Minute)
	require.NoError(t, err)
	defer release(context.Background()) //nolint:errcheck

	svc := newImportServiceForTest(&memoryDB{}, nil, locker)
	_, err = svc.Import(context.Background(), src)
	assert.ErrorIs(t, err, appErrors.ErrBusy)
}

func TestImportServiceUsesConfiguredSource(t *testing.T) {
	src := writeSource(t, t.TempDir(), "configured.csv", "DEALERID,VIN,MODIFIEDDATE\n7,VIN00000000000007,2023-02-02\n")
	db := &memoryDB{}
	svc := NewImportService(fakeVehicleRepo{db: db}, nil, nil, nil, nil, nil, ImportConfig{SourcePath: src})

	assert.Equal(t, src, svc.SourcePath())
	result, err := svc.Import(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessfullyImported)
}
