package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PaperSize is a page size in inches.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PostgresConfig locates the API token database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the service configuration as read from YAML.
type Config struct {
	Server struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		Prefork     bool   `yaml:"prefork"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
	} `yaml:"server"`

	Limits struct {
		MaxInputBytes int `yaml:"max_input_bytes"`
		MaxSerials    int `yaml:"max_serials"`
		MaxPDFBytes   int `yaml:"max_pdf_bytes"`
	} `yaml:"limits"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost          string        `yaml:"redis_host"`
		RateLimitDB        int           `yaml:"redis_rate_db"`
		ResultCacheDB      int           `yaml:"redis_result_db"`
		ResultCacheEnabled bool          `yaml:"result_cache_enabled"`
		ResultCacheTTL     time.Duration `yaml:"result_cache_ttl"`
	} `yaml:"cache"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Enabled         bool           `yaml:"enabled"`
		Required        bool           `yaml:"required"`
		RefreshInterval time.Duration  `yaml:"refresh_interval"`
		Postgres        PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	PDF struct {
		DefaultPaper  string               `yaml:"default_paper"`
		PaperSizes    map[string]PaperSize `yaml:"paper_sizes"`
		Margin        float64              `yaml:"margin"`
		Compress      bool                 `yaml:"compress"`
		Annotate      bool                 `yaml:"annotate"`
		CellPaddingMM float64              `yaml:"cell_padding_mm"`
		LabelHeightMM float64              `yaml:"label_height_mm"`
		MaxPerPage    int                  `yaml:"max_per_page"`
		Title         string               `yaml:"title"`
	} `yaml:"pdf"`

	Symbol struct {
		DPI              int     `yaml:"dpi"`
		QuietZoneModules int     `yaml:"quiet_zone_modules"`
		MinDotsPerModule int     `yaml:"min_dots_per_module"`
		MinModuleMM      float64 `yaml:"min_module_mm"`
	} `yaml:"symbol"`

	Pipeline struct {
		Workers     int `yaml:"workers"`
		TimeoutSecs int `yaml:"timeout_secs"`
	} `yaml:"pipeline"`

	Preview struct {
		MaxSymbols int `yaml:"max_symbols"`
		ThumbPx    int `yaml:"thumb_px"`
		Columns    int `yaml:"columns"`
	} `yaml:"preview"`
}

// AppConfig holds the configuration loaded at startup.
var AppConfig = DefaultConfig()

// GetConfig returns the configuration loaded at startup.
func GetConfig() Config {
	return AppConfig
}

// DefaultConfig returns a configuration that runs without Redis or Postgres.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Port = ":8080"
	cfg.Server.BodyLimitMB = 8

	cfg.Limits.MaxInputBytes = 1 << 20
	cfg.Limits.MaxSerials = 2000
	cfg.Limits.MaxPDFBytes = 64 << 20

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28

	cfg.Cache.ResultCacheDB = 1
	cfg.Cache.ResultCacheTTL = 10 * time.Minute

	cfg.RateLimiter.Interval = time.Minute

	cfg.Auth.RefreshInterval = time.Minute
	cfg.Auth.Postgres.Port = 5432
	cfg.Auth.Postgres.SSLMode = "disable"

	cfg.PDF.DefaultPaper = "A4"
	cfg.PDF.PaperSizes = map[string]PaperSize{
		"A4":     {Width: 8.27, Height: 11.69},
		"LETTER": {Width: 8.5, Height: 11},
	}
	cfg.PDF.Margin = 0.4
	cfg.PDF.Compress = true
	cfg.PDF.Annotate = true
	cfg.PDF.CellPaddingMM = 6
	cfg.PDF.LabelHeightMM = 4
	cfg.PDF.Title = "Serial labels"

	cfg.Symbol.DPI = 300
	cfg.Symbol.QuietZoneModules = 2
	cfg.Symbol.MinDotsPerModule = 2
	cfg.Symbol.MinModuleMM = 0.25

	cfg.Pipeline.TimeoutSecs = 30

	cfg.Preview.MaxSymbols = 12
	cfg.Preview.ThumbPx = 160
	cfg.Preview.Columns = 4
	return cfg
}

// LoadConfig reads the file named by CONFIG_PATH (default config.yaml),
// after loading a .env file if one exists. A missing file yields defaults.
func LoadConfig() Config {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		Warn("Config file not found, using defaults", "path", path)
		AppConfig = DefaultConfig()
		return AppConfig
	}
	AppConfig = LoadConfigFrom(path)
	return AppConfig
}

// LoadConfigFrom reads path over the defaults. It panics on unreadable files
// or invalid values so a misconfigured service never starts.
func LoadConfigFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read config %s: %v", path, err))
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("parse config %s: %v", path, err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", path, err))
	}
	return cfg
}

// Validate checks values that would otherwise fail later at request time.
func (c Config) Validate() error {
	switch {
	case c.Symbol.DPI <= 0:
		return errors.New("symbol.dpi must be positive")
	case c.Symbol.QuietZoneModules < 1:
		return errors.New("symbol.quiet_zone_modules must be at least 1")
	case c.Symbol.MinDotsPerModule < 1:
		return errors.New("symbol.min_dots_per_module must be at least 1")
	case c.Symbol.MinModuleMM < 0:
		return errors.New("symbol.min_module_mm must not be negative")
	case c.Limits.MaxSerials <= 0:
		return errors.New("limits.max_serials must be positive")
	case c.Limits.MaxInputBytes <= 0:
		return errors.New("limits.max_input_bytes must be positive")
	case c.Limits.MaxPDFBytes <= 0:
		return errors.New("limits.max_pdf_bytes must be positive")
	case c.PDF.Margin < 0 || c.PDF.CellPaddingMM < 0 || c.PDF.LabelHeightMM < 0:
		return errors.New("pdf margins and paddings must not be negative")
	case c.PDF.MaxPerPage < 0:
		return errors.New("pdf.max_per_page must not be negative")
	case c.RateLimiter.UserLimit < 0:
		return errors.New("rate_limiter.user_limit must not be negative")
	case c.RateLimiter.Interval <= 0:
		return errors.New("rate_limiter.interval must be positive")
	case c.Auth.Enabled && c.Auth.Postgres.Host == "":
		return errors.New("auth.postgres.host is required when auth is enabled")
	case c.Auth.Enabled && c.Auth.RefreshInterval <= 0:
		return errors.New("auth.refresh_interval must be positive")
	case c.Pipeline.Workers < 0 || c.Pipeline.TimeoutSecs < 0:
		return errors.New("pipeline values must not be negative")
	case c.Preview.MaxSymbols <= 0 || c.Preview.ThumbPx <= 0 || c.Preview.Columns <= 0:
		return errors.New("preview values must be positive")
	}
	paper, ok := c.PDF.PaperSizes[c.PDF.DefaultPaper]
	if !ok {
		return fmt.Errorf("pdf.default_paper %q is not in pdf.paper_sizes", c.PDF.DefaultPaper)
	}
	if paper.Width <= 0 || paper.Height <= 0 {
		return fmt.Errorf("paper size %q must be positive", c.PDF.DefaultPaper)
	}
	return nil
}
