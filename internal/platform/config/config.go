package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Avatar storage backends selectable via AVATAR_BACKEND.
const (
	AvatarBackendFilesystem = "fs"
	AvatarBackendS3         = "s3"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	AvatarBackend   string `env:"AVATAR_BACKEND" default:"fs"`
	AvatarDir       string `env:"AVATAR_DIR" default:"uploads"`
	AvatarPublicURL string `env:"AVATAR_PUBLIC_URL" default:"/uploads"`
	UploadBodyLimit string `env:"UPLOAD_BODY_LIMIT" default:"4M"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	OracleURL     string        `env:"ORACLE_API_URL"`
	OracleAPIKey  string        `env:"ORACLE_API_KEY"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" default:"15s"`

	AuthRatePerSecond float64 `env:"AUTH_RATE_PER_SECOND" default:"2"`
	AuthRateBurst     int     `env:"AUTH_RATE_BURST" default:"10"`

	OracleRatePerSecond float64 `env:"ORACLE_RATE_PER_SECOND" default:"1"`
	OracleRateBurst     int     `env:"ORACLE_RATE_BURST" default:"5"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":   cfg.DatabaseURL,
		"REDIS_URL":      cfg.RedisURL,
		"SESSION_SECRET": cfg.SessionSecret,
		"ORACLE_API_URL": cfg.OracleURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}

	switch cfg.AvatarBackend {
	case AvatarBackendFilesystem:
		if cfg.AvatarDir == "" {
			return errors.New("AVATAR_DIR is required for the fs avatar backend")
		}
	case AvatarBackendS3:
		s3Required := map[string]string{
			"S3_BUCKET":     cfg.S3Bucket,
			"S3_REGION":     cfg.S3Region,
			"S3_ACCESS_KEY": cfg.S3AccessKey,
			"S3_SECRET_KEY": cfg.S3SecretKey,
			"S3_PUBLIC_URL": cfg.S3PublicURL,
		}
		for name, value := range s3Required {
			if value == "" {
				return fmt.Errorf("%s is required for the s3 avatar backend", name)
			}
		}
	default:
		return fmt.Errorf("AVATAR_BACKEND must be %q or %q, got %q", AvatarBackendFilesystem, AvatarBackendS3, cfg.AvatarBackend)
	}

	return nil
}
