package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	Upload UploadConfig
	CORS   CORSConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// OCRConfig holds OCR provider settings.
type OCRConfig struct {
	Endpoint        string                 `mapstructure:"endpoint"`
	APIKey          string                 `mapstructure:"api_key"`
	Model           string                 `mapstructure:"model"`
	AuthHeaderStyle domain.AuthHeaderStyle `mapstructure:"auth_header_style"`
	TimeoutSecs     int                    `mapstructure:"request_timeout_secs"`
	MaxAttempts     int                    `mapstructure:"max_attempts"`
	MaxConcurrency  int                    `mapstructure:"max_concurrency"`
}

// UploadConfig holds batch upload policy settings.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxFiles      int   `mapstructure:"max_files"`
}

// MaxFileSizeBytes returns the per-file size cap in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCAI_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// OCR provider defaults
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.model", "mistral-document-ai-2505")
	v.SetDefault("ocr.auth_header_style", "both")
	v.SetDefault("ocr.request_timeout_secs", 60)
	v.SetDefault("ocr.max_attempts", 4)
	v.SetDefault("ocr.max_concurrency", 3)

	// Upload policy defaults
	v.SetDefault("upload.max_file_size_mb", 5)
	v.SetDefault("upload.max_files", 10)

	// CORS defaults (dev frontend origin)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "DOCAI_SERVER_PORT",
		"server.read_timeout":      "DOCAI_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "DOCAI_SERVER_WRITE_TIMEOUT",
		"server.environment":       "DOCAI_SERVER_ENVIRONMENT",
		"ocr.endpoint":             "DOCAI_OCR_ENDPOINT",
		"ocr.api_key":              "DOCAI_OCR_API_KEY",
		"ocr.model":                "DOCAI_OCR_MODEL",
		"ocr.auth_header_style":    "DOCAI_OCR_AUTH_HEADER_STYLE",
		"ocr.request_timeout_secs": "DOCAI_OCR_REQUEST_TIMEOUT_SECS",
		"ocr.max_attempts":         "DOCAI_OCR_MAX_ATTEMPTS",
		"ocr.max_concurrency":      "DOCAI_OCR_MAX_CONCURRENCY",
		"upload.max_file_size_mb":  "DOCAI_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_files":         "DOCAI_UPLOAD_MAX_FILES",
		"cors.allowed_origins":     "DOCAI_CORS_ALLOWED_ORIGINS",
		"log.level":                "DOCAI_LOG_LEVEL",
		"log.format":               "DOCAI_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCAI_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCAI_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.OCR = OCRConfig{
		Endpoint:        v.GetString("ocr.endpoint"),
		APIKey:          v.GetString("ocr.api_key"),
		Model:           v.GetString("ocr.model"),
		AuthHeaderStyle: domain.AuthHeaderStyle(v.GetString("ocr.auth_header_style")),
		TimeoutSecs:     v.GetInt("ocr.request_timeout_secs"),
		MaxAttempts:     v.GetInt("ocr.max_attempts"),
		MaxConcurrency:  v.GetInt("ocr.max_concurrency"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}

// Validate checks that required provider settings are present.
func (c *Config) Validate() error {
	if c.OCR.Endpoint == "" {
		return fmt.Errorf("DOCAI_OCR_ENDPOINT is required")
	}
	if c.OCR.APIKey == "" {
		return fmt.Errorf("DOCAI_OCR_API_KEY is required")
	}
	switch c.OCR.AuthHeaderStyle {
	case domain.AuthStyleBoth, domain.AuthStyleBearer, domain.AuthStyleAPIKey:
	default:
		return fmt.Errorf("invalid auth header style %q (allowed: both, bearer, api-key)", c.OCR.AuthHeaderStyle)
	}
	return nil
}
