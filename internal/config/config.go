package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultPort             = "8080"
	DefaultAutoSaveDebounce = 1000 * time.Millisecond
	DefaultSprintLengthDays = 10

	MaxAutoSaveDebounce = time.Minute
	MaxSprintLengthDays = 365
)

var ErrMissingDatabase = errors.New("--db flag, DB_URL or complete DB_* env vars (DB_USERNAME, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME) required")

// Config is the runtime configuration of the sprint service.
type Config struct {
	DBConnStr        string
	Port             string
	LogLevel         string
	AutoSaveDebounce time.Duration
	SprintLength     time.Duration
	UploadTasks      []string
}

// Load reads .env if present and then the process environment.
func Load() Config {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to defaults.
func FromEnv() Config {
	cfg := Config{
		DBConnStr:        databaseURL(),
		Port:             DefaultPort,
		LogLevel:         os.Getenv("LOG_LEVEL"),
		AutoSaveDebounce: DefaultAutoSaveDebounce,
		SprintLength:     DefaultSprintLengthDays * 24 * time.Hour,
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if ms := getEnvInt("AUTOSAVE_DEBOUNCE_MS"); ms > 0 {
		cfg.AutoSaveDebounce = time.Duration(min(ms, int(MaxAutoSaveDebounce/time.Millisecond))) * time.Millisecond
	}
	if days := getEnvInt("SPRINT_LENGTH_DAYS"); days > 0 {
		cfg.SprintLength = time.Duration(min(days, MaxSprintLengthDays)) * 24 * time.Hour
	}
	for _, id := range strings.Split(os.Getenv("CUSTOM_UPLOAD_TASKS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.UploadTasks = append(cfg.UploadTasks, id)
		}
	}
	return cfg
}

// Validate reports configuration that prevents the service from starting.
func (c Config) Validate() error {
	if c.DBConnStr == "" {
		return ErrMissingDatabase
	}
	return nil
}

func databaseURL() string {
	if url := os.Getenv("DB_URL"); url != "" {
		return url
	}
	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	if dbUsername == "" || dbPassword == "" || dbHost == "" || dbPort == "" || dbName == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUsername, dbPassword, dbHost, dbPort, dbName)
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
