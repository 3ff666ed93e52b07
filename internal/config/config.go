// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port      string
	DB        DBConfig
	UploadDir string
	PublicDir string
	Location  *time.Location
	OpenAI    OpenAIConfig
	Log       LogConfig
}

type DBConfig struct {
	Driver      string // "postgres" or "sqlite"
	URL         string
	AutoMigrate bool
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads .env (if present) and the process environment. DB_URL is the only
// required variable.
func Load(log *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system env")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	dbURL, ok := os.LookupEnv("DB_URL")
	if !ok || dbURL == "" {
		return nil, fmt.Errorf("missing required environment variable: DB_URL")
	}

	driver := getEnv("DB_DRIVER", "postgres")
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", driver)
	}

	// SQLite databases are created on the fly, so migrate them by default.
	autoMigrate, err := strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", strconv.FormatBool(driver == "sqlite")))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	loc := time.Local
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
		}
	}

	return &Config{
		Port: getEnv("PORT", "3001"),
		DB: DBConfig{
			Driver:      driver,
			URL:         dbURL,
			AutoMigrate: autoMigrate,
		},
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		PublicDir: getEnv("PUBLIC_DIR", "./public"),
		Location:  loc,
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return fallback
}
