package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
	"github.com/marlinspike/mistral-doc-ai/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "mistral-document-ai-2505", cfg.OCR.Model)
	assert.Equal(t, domain.AuthStyleBoth, cfg.OCR.AuthHeaderStyle)
	assert.Equal(t, 60, cfg.OCR.TimeoutSecs)
	assert.Equal(t, 4, cfg.OCR.MaxAttempts)
	assert.Equal(t, 3, cfg.OCR.MaxConcurrency)
	assert.Equal(t, int64(5), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCAI_OCR_MODEL", "mistral-ocr-latest")
	t.Setenv("DOCAI_OCR_MAX_CONCURRENCY", "7")
	t.Setenv("DOCAI_UPLOAD_MAX_FILES", "20")
	t.Setenv("DOCAI_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "mistral-ocr-latest", cfg.OCR.Model)
	assert.Equal(t, 7, cfg.OCR.MaxConcurrency)
	assert.Equal(t, 20, cfg.Upload.MaxFiles)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestMaxFileSizeBytes(t *testing.T) {
	u := config.UploadConfig{MaxFileSizeMB: 5}
	assert.Equal(t, int64(5*1024*1024), u.MaxFileSizeBytes())
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{}
	cfg.OCR.AuthHeaderStyle = domain.AuthStyleBoth
	assert.Error(t, cfg.Validate())

	cfg.OCR.Endpoint = "https://ocr.example/v1/ocr"
	assert.Error(t, cfg.Validate())

	cfg.OCR.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg.OCR.AuthHeaderStyle = "basic"
	assert.Error(t, cfg.Validate())
}
