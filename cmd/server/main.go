package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
	"github.com/marlinspike/mistral-doc-ai/internal/handler"
	"github.com/marlinspike/mistral-doc-ai/internal/ocr/mistral"
	"github.com/marlinspike/mistral-doc-ai/internal/router"
	"github.com/marlinspike/mistral-doc-ai/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize OCR client
	ocrClient := mistral.NewClient(&cfg.OCR)

	// Initialize services
	batchSvc := service.NewBatchService(ocrClient, service.BatchConfig{
		MaxFiles:         cfg.Upload.MaxFiles,
		MaxFileSizeBytes: cfg.Upload.MaxFileSizeBytes(),
		MaxConcurrency:   int64(cfg.OCR.MaxConcurrency),
	})

	// Initialize handlers
	ocrH := handler.NewOCRHandler(batchSvc, cfg.Upload)
	healthH := handler.NewHealthHandler(&cfg.OCR)

	// Setup router
	r := router.Setup(cfg, ocrH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s (model=%s, concurrency=%d)",
		cfg.Server.Port, cfg.OCR.Model, cfg.OCR.MaxConcurrency)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
