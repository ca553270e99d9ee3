package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/qbexport/internal/api/handler"
	"github.com/timmy/qbexport/internal/api/middleware"
	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/repository"
	"github.com/timmy/qbexport/internal/soap"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	svc *soap.Service,
	mappings *repository.MappingRepository,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	soapHandler := handler.NewSoapHandler(svc)
	qwcHandler := handler.NewQWCHandler(cfg)
	adminHandler := handler.NewAdminHandler(svc, mappings)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Web Connector endpoints
	r.POST("/soap", soapHandler.Handle)
	r.GET("/quickbooks.qwc", qwcHandler.Download)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Export bookkeeping
		v1.GET("/progress", adminHandler.GetProgress)
		v1.GET("/messages", adminHandler.ListMessages)
		v1.POST("/requeue-failed", adminHandler.RequeueFailed)
	}

	return r
}
