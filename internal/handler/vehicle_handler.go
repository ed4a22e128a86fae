package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/service"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
	"github.com/noah-isme/vehicle-data-api/pkg/response"
)

type vehicleQueries interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, *models.Pagination, error)
	Get(ctx context.Context, vin string) (*models.Vehicle, error)
	ListErrors(ctx context.Context, filter models.VehicleErrorFilter) ([]models.VehicleError, *models.Pagination, error)
	GetError(ctx context.Context, vin string) (*models.VehicleError, error)
}

type vehicleImporter interface {
	Import(ctx context.Context, sourcePath string) (*models.ImportResult, error)
}

type vehicleAugmenter interface {
	Augment(ctx context.Context, vin string) (*models.Vehicle, error)
	AugmentAll(ctx context.Context) (*models.AugmentSummary, error)
}

type errorCorrector interface {
	CorrectError(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResult, error)
}

type errorExporter interface {
	ExportErrors(ctx context.Context, format string) (*service.ExportFile, error)
}

// VehicleHandler exposes the vehicle API.
type VehicleHandler struct {
	queries   vehicleQueries
	importer  vehicleImporter
	augmenter vehicleAugmenter
	corrector errorCorrector
	exporter  errorExporter
}

// NewVehicleHandler constructs VehicleHandler.
func NewVehicleHandler(queries vehicleQueries, importer vehicleImporter, augmenter vehicleAugmenter, corrector errorCorrector, exporter errorExporter) *VehicleHandler {
	return &VehicleHandler{
		queries:   queries,
		importer:  importer,
		augmenter: augmenter,
		corrector: corrector,
		exporter:  exporter,
	}
}

// List godoc
// @Summary List vehicles
// @Tags Vehicles
// @Produce json
// @Param dealerId query int false "Filter by dealer"
// @Param modifiedDate query string false "Only vehicles modified on or after this date (YYYY-MM-DD)"
// @Param pageNumber query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(10)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /vehicle [get]
func (h *VehicleHandler) List(c *gin.Context) {
	filter, err := vehicleFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	vehicles, pagination, err := h.queries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicles, pagination)
}

// Get godoc
// @Summary Get vehicle by VIN
// @Tags Vehicles
// @Produce json
// @Param vin path string true "VIN"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vehicle/{vin} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.queries.Get(c.Request.Context(), c.Param("vin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// ListErrors godoc
// @Summary List vehicles the decoder rejected
// @Tags Vehicle Errors
// @Produce json
// @Param pageNumber query int false "Page number" default(1)
// @Param pageSize query int false "Page size (max 100)" default(10)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /vehicle/errors [get]
func (h *VehicleHandler) ListErrors(c *gin.Context) {
	page, size, err := pageFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, pagination, err := h.queries.ListErrors(c.Request.Context(), models.VehicleErrorFilter{Page: page, PageSize: size})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// GetError godoc
// @Summary Get error record by VIN
// @Tags Vehicle Errors
// @Produce json
// @Param vin path string true "VIN"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vehicle/errors/{vin} [get]
func (h *VehicleHandler) GetError(c *gin.Context) {
	record, err := h.queries.GetError(c.Request.Context(), c.Param("vin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ExportErrors godoc
// @Summary Download every error record
// @Tags Vehicle Errors
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /vehicle/errors/export [get]
func (h *VehicleHandler) ExportErrors(c *gin.Context) {
	file, err := h.exporter.ExportErrors(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Import godoc
// @Summary Import the configured VIN file
// @Tags Vehicles
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /vehicle/import [post]
func (h *VehicleHandler) Import(c *gin.Context) {
	result, err := h.importer.Import(c.Request.Context(), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Augment godoc
// @Summary Decode one vehicle and store make, model and year
// @Tags Vehicles
// @Produce json
// @Param vin path string true "VIN"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /vehicle/{vin}/augment [post]
func (h *VehicleHandler) Augment(c *gin.Context) {
	vehicle, err := h.augmenter.Augment(c.Request.Context(), c.Param("vin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// AugmentAll godoc
// @Summary Decode every vehicle, moving rejected VINs to the error list
// @Tags Vehicles
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /vehicle/augment [post]
func (h *VehicleHandler) AugmentAll(c *gin.Context) {
	summary, err := h.augmenter.AugmentAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CorrectError godoc
// @Summary Retry an error record under a corrected VIN
// @Tags Vehicle Errors
// @Accept json
// @Produce json
// @Param payload body models.CorrectionRequest true "Correction"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /vehicle/correct-error [post]
func (h *VehicleHandler) CorrectError(c *gin.Context) {
	var req models.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.corrector.CorrectError(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Outcome == models.CorrectionDecodeFailed {
		response.Error(c, appErrors.WithDetails(appErrors.ErrDecodeFailed, service.DecodeFailedMessage(result), result))
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func vehicleFilterFromQuery(c *gin.Context) (models.VehicleFilter, error) {
	var filter models.VehicleFilter
	page, size, err := pageFromQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Page, filter.PageSize = page, size

	if raw := strings.TrimSpace(c.Query("dealerId")); raw != "" {
		dealerID, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "dealerId must be an integer")
		}
		filter.DealerID = &dealerID
	}
	if raw := strings.TrimSpace(c.Query("modifiedDate")); raw != "" {
		since, err := models.ParseDate(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "modifiedDate must be a date such as 2023-01-31")
		}
		filter.ModifiedSince = &since
	}
	return filter, nil
}

func pageFromQuery(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("pageNumber", "1"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "pageNumber must be an integer")
	}
	size, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(service.DefaultPageSize)))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "pageSize must be an integer")
	}
	return page, size, nil
}
