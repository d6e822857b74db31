package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ocr *config.OCRConfig
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(ocr *config.OCRConfig) *HealthHandler {
	return &HealthHandler{ocr: ocr}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.ocr.Endpoint == "" || h.ocr.APIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "OCR provider not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
