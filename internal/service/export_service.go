package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
	"github.com/noah-isme/vehicle-data-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type errorExportRepository interface {
	ListAll(ctx context.Context) ([]models.VehicleError, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the error collection for download.
type ExportService struct {
	repo      errorExportRepository
	renderers map[string]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs the export service with CSV and PDF renderers.
func NewExportService(repo errorExportRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo: repo,
		renderers: map[string]export.Renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportErrors renders every error record in the requested format.
func (s *ExportService) ExportErrors(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load error vehicles")
	}

	dataset := export.Dataset{
		Title:   "Vehicle decode errors",
		Columns: []string{"VIN", "Dealer ID", "Modified Date", "Error Code", "Error Text"},
		Rows: lo.Map(records, func(r models.VehicleError, _ int) []string {
			return []string{r.VIN, strconv.Itoa(r.DealerID), r.ModifiedDate.String(), deref(r.ErrorCode), deref(r.ErrorText)}
		}),
	}
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("error export rendered", zap.String("format", format), zap.Int("rows", len(records)))
	return &ExportFile{
		Filename:    fmt.Sprintf("vehicle-errors-%s.%s", s.now().UTC().Format("20060102150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
