// Package storage archives processed import files.
package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveTimeLayout is appended to archived file names.
const ArchiveTimeLayout = "20060102150405"

// Archiver moves a processed source file out of the intake location and
// returns where it now lives.
type Archiver interface {
	Archive(ctx context.Context, srcPath, name string) (string, error)
}

// ArchiveName stamps the source file name, e.g. sample-vin-data.csv becomes
// sample-vin-data-20240101120000.csv.
func ArchiveName(srcPath string, at time.Time) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "-" + at.Format(ArchiveTimeLayout) + ext
}
