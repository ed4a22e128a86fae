package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vehicle-data-api/pkg/config"
)

// objectServer answers just enough of the S3 API for bucket checks and
// single-part uploads.
type objectServer struct {
	mu       sync.Mutex
	puts     []string
	denyPuts bool
}

func (s *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		if s.denyPuts {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`)
			return
		}
		s.mu.Lock()
		s.puts = append(s.puts, r.URL.Path)
		s.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *objectServer) uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func newTestMinIO(t *testing.T, handler http.Handler) *MinIOStorage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewMinIOStorage(context.Background(), config.MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "vin-archive",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store
}

func writeSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "sample-vin-data.csv")
	require.NoError(t, os.WriteFile(src, []byte("dealerId,vin,modifiedDate\n1,1FAFP404X1F123456,2023-01-01\n"), 0o644))
	return src
}

func TestMinIOStorageArchiveUploadsAndRemovesSource(t *testing.T) {
	server := &objectServer{}
	store := newTestMinIO(t, server)
	src := writeSource(t)

	location, err := store.Archive(context.Background(), src, "sample-vin-data-20240301120000.csv")
	require.NoError(t, err)
	assert.Equal(t, "vin-archive/sample-vin-data-20240301120000.csv", location)
	assert.Equal(t, []string{"/vin-archive/sample-vin-data-20240301120000.csv"}, server.uploaded())

	_, err = os.Stat(src)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMinIOStorageArchiveReportsRemovalFailure(t *testing.T) {
	store := newTestMinIO(t, &objectServer{})
	store.remove = func(string) error { return errors.New("device busy") }
	src := writeSource(t)

	location, err := store.Archive(context.Background(), src, "sample-vin-data-1.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove archived source: device busy")
	assert.Equal(t, "vin-archive/sample-vin-data-1.csv", location)

	_, statErr := os.Stat(src)
	assert.NoError(t, statErr)
}

func TestMinIOStorageArchiveUploadFailureKeepsSource(t *testing.T) {
	store := newTestMinIO(t, &objectServer{denyPuts: true})
	src := writeSource(t)

	_, err := store.Archive(context.Background(), src, "sample-vin-data-1.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload archive object")

	_, statErr := os.Stat(src)
	assert.NoError(t, statErr)
}
