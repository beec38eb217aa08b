package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting the api, worker and migrate processes read.
type Config struct {
	HTTPAddr   string
	DBDSN      string
	CORSOrigin string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	JWTTokenTTL time.Duration

	AdminEmail string
	MailFrom   string
	MailAPIURL string
	MailAPIKey string

	WorkerConcurrency int
	TaskResultTTL     time.Duration
	TaskMaxRetries    int
	ExportSchedule    string

	LogLevel  string
	LogFormat string
}

// Load reads an optional dotenv file and then the process environment.
// A missing file is not an error; a missing required variable is.
func Load(path string) (*Config, error) {
	// 0. --- Load Environment Variables (.env) ---
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: load %s: %w", path, err)
			}
			log.Debug().Str("path", path).Msg("no dotenv file, relying on the environment")
		}
	}

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBDSN:          os.Getenv("DB_DSN"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:5173"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@localhost"),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@localhost"),
		MailAPIURL:     os.Getenv("MAIL_API_URL"),
		MailAPIKey:     os.Getenv("MAIL_API_KEY"),
		ExportSchedule: os.Getenv("EXPORT_SCHEDULE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	// 1. --- Required settings ---
	if cfg.DBDSN == "" {
		return nil, errors.New("config: DB_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is not set")
	}

	// 2. --- Numeric settings ---
	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("config: WORKER_CONCURRENCY must be at least 1, got %d", cfg.WorkerConcurrency)
	}
	if cfg.TaskMaxRetries, err = getInt("TASK_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.TaskResultTTL, err = getDuration("TASK_RESULT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWTTokenTTL, err = getDuration("JWT_TOKEN_TTL", 72*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
