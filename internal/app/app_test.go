package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/service"
	"github.com/noah-isme/vehicle-data-api/pkg/config"
)

type importerStub struct {
	path   string
	result *models.ImportResult
	err    error
	calls  []string
}

func (s *importerStub) SourcePath() string { return s.path }

func (s *importerStub) Import(_ context.Context, path string) (*models.ImportResult, error) {
	s.calls = append(s.calls, path)
	return s.result, s.err
}

func TestSeedImportsExistingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sample-vin-data.csv")
	require.NoError(t, os.WriteFile(src, []byte("dealerId,vin,modifiedDate\n"), 0o644))
	core, logs := observer.New(zapcore.InfoLevel)
	stub := &importerStub{path: src, result: &models.ImportResult{TotalProcessed: 3, SuccessfullyImported: 2, Errors: []string{"Duplicate VIN: X"}}}

	assert.True(t, seed(context.Background(), stub, zap.New(core)))
	assert.Equal(t, []string{src}, stub.calls)

	finished := logs.FilterMessage("startup import finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 2, finished[0].ContextMap()["imported"])
}

func TestSeedSkipsMissingSource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	stub := &importerStub{path: filepath.Join(t.TempDir(), "absent.csv")}

	assert.False(t, seed(context.Background(), stub, zap.New(core)))
	assert.Empty(t, stub.calls)
	assert.Equal(t, 1, logs.FilterMessage("startup import skipped, source not found").Len())
}

func TestSeedLogsImportFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sample-vin-data.csv")
	require.NoError(t, os.WriteFile(src, []byte("dealerId,vin,modifiedDate\n"), 0o644))
	core, logs := observer.New(zapcore.InfoLevel)
	stub := &importerStub{path: src, err: errors.New("database unavailable")}

	assert.True(t, seed(context.Background(), stub, zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("startup import failed").Len())
}

func TestSeedOnStartupDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := &App{Config: &config.Config{}, Logger: zap.New(core)}

	a.SeedOnStartup(context.Background())
	assert.Zero(t, logs.Len())
}

func TestSeedOnStartupEnabledWithoutSource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	missing := filepath.Join(t.TempDir(), "sample-vin-data.csv")
	a := &App{
		Config:   &config.Config{Import: config.ImportConfig{OnStartup: true, SourcePath: missing}},
		Logger:   zap.New(core),
		Importer: service.NewImportService(nil, nil, nil, nil, nil, nil, service.ImportConfig{SourcePath: missing}),
	}

	a.SeedOnStartup(context.Background())
	skipped := logs.FilterMessage("startup import skipped, source not found").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, missing, skipped[0].ContextMap()["path"])
}
