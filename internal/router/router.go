package router

import (
	"github.com/gin-gonic/gin"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
	"github.com/marlinspike/mistral-doc-ai/internal/handler"
	"github.com/marlinspike/mistral-doc-ai/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	ocrH *handler.OCRHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.POST("/ocr", ocrH.Process)

	return r
}
