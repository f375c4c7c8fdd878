package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	"billing/internal/infrastructure/http/v1/handlers"
	"billing/internal/infrastructure/http/v1/middleware"
	"billing/pkg/logger"
)

// Version is reported by /health/info.
const Version = "0.1.0"

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// AppName is reported by /health/info
	AppName string

	// Logger for request logging
	Logger *logger.Logger

	// DB backs the readiness check; Driver names it
	DB     handlers.Pinger
	Driver string

	// Numbering serves fiscal-year lookups and next-number previews
	Numbering handlers.NumberingService

	// Document services
	Invoices     *invoice.Service
	Challans     *challan.Service
	Estimates    *estimate.Service
	Certificates *certificate.Service

	// Registry enables request metrics and the metrics endpoint when set
	Registry    *prometheus.Registry
	MetricsPath string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Registry != nil {
		router.Use(middleware.Metrics(middleware.NewHTTPMetrics(cfg.Registry)))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Driver, cfg.AppName, Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Registry != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})))
	}

	api := router.Group("/api/v1")
	{
		registerNumberingRoutes(api, cfg)
		registerDocumentRoutes(api, cfg)
	}

	return router
}

// registerNumberingRoutes registers numbering lookup endpoints.
func registerNumberingRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Numbering == nil {
		return
	}

	handler := handlers.NewNumberingHandler(handlers.NewBaseHandler(), cfg.Numbering)
	numbering := rg.Group("/numbering")
	{
		numbering.GET("/fiscal-year", handler.FiscalYear)
		numbering.GET("/:type/next", handler.Next)
	}
}

// registerDocumentRoutes registers document endpoints for every configured service.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	if cfg.Invoices != nil {
		RegisterDocumentRoutes(rg.Group("/invoices"), handlers.NewInvoiceHandler(base, cfg.Invoices))
	}
	if cfg.Challans != nil {
		RegisterDocumentRoutes(rg.Group("/challans"), handlers.NewChallanHandler(base, cfg.Challans))
	}
	if cfg.Estimates != nil {
		RegisterDocumentRoutes(rg.Group("/estimates"), handlers.NewEstimateHandler(base, cfg.Estimates))
	}
	if cfg.Certificates != nil {
		RegisterDocumentRoutes(rg.Group("/certificates"), handlers.NewCertificateHandler(base, cfg.Certificates))
	}
}
