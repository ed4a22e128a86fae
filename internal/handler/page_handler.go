package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vehicle-data-api/internal/models"
	appErrors "github.com/noah-isme/vehicle-data-api/pkg/errors"
)

// pageData is shared by every template so the layout can rely on its fields.
type pageData struct {
	Title        string
	APIPrefix    string
	Filters      url.Values
	Pagination   *models.Pagination
	Vehicles     []models.Vehicle
	Errors       []models.VehicleError
	VehicleCount int
	ErrorCount   int
	Message      string
}

// PageHandler renders the HTML tables.
type PageHandler struct {
	queries   vehicleQueries
	apiPrefix string
}

// NewPageHandler constructs PageHandler.
func NewPageHandler(queries vehicleQueries, apiPrefix string) *PageHandler {
	return &PageHandler{queries: queries, apiPrefix: apiPrefix}
}

// Index shows record counts for both collections.
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	_, vehicles, err := h.queries.List(ctx, models.VehicleFilter{Page: 1, PageSize: 1})
	if err != nil {
		h.fail(c, err)
		return
	}
	_, records, err := h.queries.ListErrors(ctx, models.VehicleErrorFilter{Page: 1, PageSize: 1})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", pageData{
		Title:        "Vehicle data",
		APIPrefix:    h.apiPrefix,
		VehicleCount: vehicles.TotalCount,
		ErrorCount:   records.TotalCount,
	})
}

// Vehicles renders one page of vehicles with the dealer and date filters.
func (h *PageHandler) Vehicles(c *gin.Context) {
	filter, err := vehicleFilterFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	vehicles, pagination, err := h.queries.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "vehicles.html", pageData{
		Title:      "Vehicles",
		APIPrefix:  h.apiPrefix,
		Filters:    filtersFrom(c, "dealerId", "modifiedDate", "pageSize"),
		Pagination: pagination,
		Vehicles:   vehicles,
	})
}

// Errors renders one page of error records.
func (h *PageHandler) Errors(c *gin.Context) {
	page, size, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, pagination, err := h.queries.ListErrors(c.Request.Context(), models.VehicleErrorFilter{Page: page, PageSize: size})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "errors.html", pageData{
		Title:      "Decode errors",
		APIPrefix:  h.apiPrefix,
		Filters:    filtersFrom(c, "pageSize"),
		Pagination: pagination,
		Errors:     records,
	})
}

func (h *PageHandler) fail(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.HTML(appErr.Status, "message.html", pageData{Title: "Something went wrong", APIPrefix: h.apiPrefix, Message: appErr.Message})
}

func filtersFrom(c *gin.Context, keys ...string) url.Values {
	values := url.Values{}
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			values.Set(key, v)
		}
	}
	return values
}
