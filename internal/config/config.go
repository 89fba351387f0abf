package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Analyzer AnalyzerConfig
	Session  SessionConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	Env         string `validate:"required"`
	LogLevel    string `validate:"omitempty,oneof=trace debug info warn error"`
	MaxUploadMB int64  `validate:"gte=1,lte=1024"`
}

// AnalyzerConfig points at the external analysis service.
type AnalyzerConfig struct {
	URL        string `validate:"required,url"`
	UploadPath string `validate:"required,startswith=/"`
}

// SessionConfig controls in-memory page sessions.
type SessionConfig struct {
	IdleTimeout time.Duration `validate:"gte=1s"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string `validate:"min=1,dive,required"`
}

var validate = validator.New()

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("MAX_UPLOAD_MB", 32)
	v.SetDefault("ANALYZER_URL", "http://localhost:8000")
	v.SetDefault("ANALYZER_UPLOAD_PATH", "/upload")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         v.GetString("ENV"),
			LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
			MaxUploadMB: v.GetInt64("MAX_UPLOAD_MB"),
		},
		Analyzer: AnalyzerConfig{
			URL:        strings.TrimRight(v.GetString("ANALYZER_URL"), "/"),
			UploadPath: v.GetString("ANALYZER_UPLOAD_PATH"),
		},
		Session: SessionConfig{
			IdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envNames maps struct fields to the variables they are read from.
var envNames = map[string]string{
	"Port":        "PORT",
	"Env":         "ENV",
	"LogLevel":    "LOG_LEVEL",
	"MaxUploadMB": "MAX_UPLOAD_MB",
	"URL":         "ANALYZER_URL",
	"UploadPath":  "ANALYZER_UPLOAD_PATH",
	"IdleTimeout": "SESSION_IDLE_TIMEOUT",
	"Origins":     "CORS_ORIGINS",
}

// Validate checks that required configuration is present and valid.
// The first failing field is reported by its environment variable name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	name := fe.StructField()
	if strings.HasPrefix(fe.Field(), "Origins[") {
		name = "Origins"
	}
	if env, ok := envNames[name]; ok {
		name = env
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "min":
		return fmt.Errorf("%s is required", name)
	default:
		return fmt.Errorf("%s is invalid (%s)", name, fe.Tag())
	}
}

// MaxUploadBytes is the multipart memory limit for uploaded files.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
