package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds runtime settings for the API process.
type Config struct {
	Port               string   // HTTP listen port (e.g., "8080")
	LogDir             string   // Directory to write application logs
	LogFile            string   // log file name inside LogDir
	FilesLocation      string   // base directory holding one subdirectory per user
	FileSizeLimitBytes int64    // uploads larger than this are rejected
	UsersFile          string   // YAML file with registered users (optional if DatabaseURL is set)
	DatabaseURL        string   // PostgreSQL DSN for the users table; empty disables it
	RedisURL           string   // Redis URL for operation counters; empty disables metrics
	AllowedOrigins     []string // allowed origins for CORS origin check

	BootstrapUserEnabled bool   // create an initial user when no users are configured
	InitialPasswordPath  string // where to write the generated password (if empty -> log output)
}

// StorageOptions is the process-wide storage configuration.
type StorageOptions struct {
	BasePath           string
	FileSizeLimitBytes int64
}

const (
	defaultFileSizeLimitBytes = 10 * 1024 * 1024
	defaultLogFile            = "simplefile.log"
)

// Load populates Config from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:               firstNonEmpty(os.Getenv("PORT"), "8080"),
		LogDir:             firstNonEmpty(os.Getenv("LOG_DIR"), "./logs"),
		LogFile:            firstNonEmpty(os.Getenv("LOG_FILE"), defaultLogFile),
		FilesLocation:      firstNonEmpty(os.Getenv("FILES_LOCATION"), "./files"),
		FileSizeLimitBytes: int64FromEnv("FILE_SIZE_LIMIT_BYTES", defaultFileSizeLimitBytes),
		UsersFile:          firstNonEmpty(os.Getenv("USERS_FILE"), "./users.yaml"),
		DatabaseURL:        firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL")),
		RedisURL:           os.Getenv("REDIS_URL"),
		AllowedOrigins:     parseCSV(os.Getenv("ALLOWED_ORIGINS")),

		BootstrapUserEnabled: boolFromEnv("BOOTSTRAP_USER", true),
		InitialPasswordPath:  os.Getenv("INITIAL_PASSWORD_PATH"),
	}
}

// StorageOptions validates the storage settings and resolves the base path to an absolute one.
func (c Config) StorageOptions() (StorageOptions, error) {
	if strings.TrimSpace(c.FilesLocation) == "" {
		return StorageOptions{}, errors.New("files location is empty")
	}
	if c.FileSizeLimitBytes < 0 {
		return StorageOptions{}, fmt.Errorf("file size limit must be >= 0, got %d", c.FileSizeLimitBytes)
	}
	abs, err := filepath.Abs(c.FilesLocation)
	if err != nil {
		return StorageOptions{}, err
	}
	return StorageOptions{BasePath: abs, FileSizeLimitBytes: c.FileSizeLimitBytes}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// int64FromEnv reads an int64 from env var name, falling back to defaultVal when empty or invalid.
func int64FromEnv(name string, defaultVal int64) int64 {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
