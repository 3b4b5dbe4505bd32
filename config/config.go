// Package config loads service configuration from the environment and the
// layout calibration from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/tables"
)

// Config holds all configuration for the timetable service
type Config struct {
	// Source
	SchedulesURL       string
	PDFBaseURL         string
	DefaultStandardURL string
	HTTPTimeout        time.Duration
	MaxDownloadBytes   int64

	// Refresh
	RefreshInterval time.Duration
	MaxAge          time.Duration // special PDFs and CSVs older than this are deleted

	// Storage
	DataDir      string
	DatabasePath string

	// HTTP API
	ListenAddr     string
	AllowedOrigins []string

	// Layout calibration
	CalibrationPath string
	Tables          tables.Config

	// Derived paths
	StandardPDFDir    string
	SpecialPDFDir     string
	CSVDir            string
	BundlePath        string
	StandardStatePath string
}

// Load reads .env files and then the environment. The first file is loaded
// without overriding variables already set; later files override (e.g. a
// .env.local). Missing files are ignored.
func Load(files ...string) (*Config, error) {
	for i, file := range files {
		var err error
		if i == 0 {
			err = godotenv.Load(file)
		} else {
			err = godotenv.Overload(file)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		SchedulesURL:       getEnv("TIMETABLE_SCHEDULES_URL", fetch.DefaultSchedulesURL),
		PDFBaseURL:         getEnv("TIMETABLE_PDF_BASE_URL", "https://www.ridepatco.org/pdf/"),
		DefaultStandardURL: getEnv("TIMETABLE_DEFAULT_STANDARD_URL", ""),
		HTTPTimeout:        getEnvDuration("TIMETABLE_HTTP_TIMEOUT", 60*time.Second),
		MaxDownloadBytes:   int64(getEnvInt("TIMETABLE_MAX_DOWNLOAD_MB", fetch.DefaultMaxBytes>>20)) << 20,

		RefreshInterval: getEnvDuration("TIMETABLE_REFRESH_INTERVAL", 6*time.Hour),
		MaxAge:          time.Duration(getEnvInt("TIMETABLE_MAX_AGE_DAYS", 7)) * 24 * time.Hour,

		DataDir:      getEnv("TIMETABLE_DATA_DIR", "data"),
		DatabasePath: getEnv("TIMETABLE_DATABASE", ""),

		ListenAddr:     getEnv("TIMETABLE_LISTEN_ADDR", ":8080"),
		AllowedOrigins: getEnvList("TIMETABLE_ALLOWED_ORIGINS", []string{"*"}),

		CalibrationPath: getEnv("TIMETABLE_CALIBRATION", ""),
		Tables:          tables.DefaultConfig(),
	}

	// Derived paths
	schedules := filepath.Join(cfg.DataDir, "schedules")
	cfg.StandardPDFDir = filepath.Join(schedules, "source_pdfs", "standard")
	cfg.SpecialPDFDir = filepath.Join(schedules, "source_pdfs", "special")
	cfg.CSVDir = filepath.Join(schedules, "parsed_csvs")
	cfg.BundlePath = filepath.Join(cfg.DataDir, "patco_data.json")
	cfg.StandardStatePath = filepath.Join(cfg.DataDir, "standard_pdf.json")
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "timetable.db")
	}

	if cfg.CalibrationPath != "" {
		tc, err := LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			return nil, err
		}
		cfg.Tables = tc
	}

	return cfg, nil
}

// LoadCalibration overlays a JSON calibration file on the default layout
// configuration. Fields absent from the file keep their defaults.
func LoadCalibration(path string) (tables.Config, error) {
	cfg := tables.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read calibration: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse calibration %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid calibration %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "6h") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
