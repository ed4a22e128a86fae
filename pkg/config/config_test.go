package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "https://vpic.nhtsa.dot.gov/api/vehicles", cfg.Decoder.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Decoder.Timeout)
	assert.Equal(t, ArchiveBackendLocal, cfg.Import.ArchiveBackend)
	assert.Equal(t, 4, cfg.Augment.Workers)
	assert.True(t, cfg.Pages.Enabled)
	assert.Equal(t, "us-east-1", cfg.MinIO.Region)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DECODER_BASE_URL", "http://decoder.local/api/")
	t.Setenv("DECODER_TIMEOUT", "bogus")
	t.Setenv("IMPORT_ARCHIVE_BACKEND", "MinIO")
	t.Setenv("AUGMENT_WORKERS", "0")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://decoder.local/api", cfg.Decoder.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Decoder.Timeout)
	assert.Equal(t, ArchiveBackendMinIO, cfg.Import.ArchiveBackend)
	assert.Equal(t, 1, cfg.Augment.Workers)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
