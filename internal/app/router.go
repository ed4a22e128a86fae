package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/vehicle-data-api/api/swagger"
	"github.com/noah-isme/vehicle-data-api/internal/handler"
	"github.com/noah-isme/vehicle-data-api/internal/middleware"
	"github.com/noah-isme/vehicle-data-api/internal/service"
	"github.com/noah-isme/vehicle-data-api/pkg/config"
	"github.com/noah-isme/vehicle-data-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/vehicle-data-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vehicle-data-api/pkg/middleware/requestid"
	"github.com/noah-isme/vehicle-data-api/web"
)

// Handlers groups the HTTP handlers mounted by NewRouter. Pages may be nil.
type Handlers struct {
	Vehicles *handler.VehicleHandler
	Pages    *handler.PageHandler
	Health   *handler.MetricsHandler
}

// Router builds the HTTP router for the wired services.
func (a *App) Router() (*gin.Engine, error) {
	h := Handlers{
		Vehicles: handler.NewVehicleHandler(a.Vehicles, a.Importer, a.Augmenter, a.Corrector, a.Exporter),
		Health:   handler.NewMetricsHandler(a.Metrics, a.DB),
	}
	if a.Config.Pages.Enabled {
		h.Pages = handler.NewPageHandler(a.Vehicles, a.Config.APIPrefix)
	}
	return NewRouter(a.Config, a.Logger, a.Metrics, h)
}

// NewRouter mounts the API, health, metrics, docs and page routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) (*gin.Engine, error) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	vehicles := api.Group("/vehicle")
	vehicles.GET("", h.Vehicles.List)
	vehicles.GET("/errors", h.Vehicles.ListErrors)
	vehicles.GET("/errors/export", h.Vehicles.ExportErrors)
	vehicles.GET("/errors/:vin", h.Vehicles.GetError)
	vehicles.GET("/:vin", h.Vehicles.Get)
	vehicles.POST("/import", h.Vehicles.Import)
	vehicles.POST("/augment", h.Vehicles.AugmentAll)
	vehicles.POST("/correct-error", h.Vehicles.CorrectError)
	vehicles.POST("/:vin/augment", h.Vehicles.Augment)

	if h.Pages != nil {
		tmpl, err := web.Templates()
		if err != nil {
			return nil, fmt.Errorf("parse page templates: %w", err)
		}
		r.SetHTMLTemplate(tmpl)
		r.GET("/", h.Pages.Index)
		r.GET("/vehicles", h.Pages.Vehicles)
		r.GET("/vehicles/errors", h.Pages.Errors)
	}

	return r, nil
}
