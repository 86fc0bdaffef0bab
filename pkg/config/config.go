// Package config holds the pipeline settings: batch size, store location,
// source directory, table names and logging.
//
// Values come from DefaultConfig, then an optional YAML file, then
// VENDORSUM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eunmann/vendor-summary-db/pkg/fileutil"
	"github.com/eunmann/vendor-summary-db/pkg/store"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file read when present in the working directory.
const DefaultFile = "vendorsum.yaml"

// NullFill selects how the summary cleaner fills missing values.
type NullFill string

const (
	// NullFillZero replaces every missing value, text included, with 0.
	NullFillZero NullFill = "zero"
	// NullFillNumericOnly replaces missing numeric values with 0 and missing
	// text values with "".
	NullFillNumericOnly NullFill = "numeric-only"
)

// Config holds every pipeline setting.
type Config struct {
	// BatchSize is the maximum rows per ingest batch.
	BatchSize int `yaml:"batch_size"`

	// StorePath is the SQLite database file.
	StorePath string `yaml:"store_path"`

	// SourceDir is a local directory or an s3://bucket/prefix/ URI.
	SourceDir string `yaml:"source_dir"`

	// Extensions lists the accepted source file suffixes.
	Extensions []string `yaml:"extensions"`

	// SummaryTable is the KPI table name.
	SummaryTable string `yaml:"summary_table"`

	// SummaryParquet, if set, also exports the KPI table to this file.
	SummaryParquet string `yaml:"summary_parquet"`

	// NullFill is the cleaner's missing-value policy.
	NullFill NullFill `yaml:"null_fill"`

	// LogDir receives ingestion_db.log and vendor_summary.log.
	LogDir string `yaml:"log_dir"`

	Debug bool `yaml:"debug"`
	Human bool `yaml:"human"`

	// SQLite tuning
	Synchronous string `yaml:"synchronous"`
	CacheSizeKB int    `yaml:"cache_size_kb"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:    50000,
		StorePath:    "inventory.db",
		SourceDir:    "data",
		Extensions:   []string{".csv"},
		SummaryTable: "VendorSalesSummary",
		NullFill:     NullFillZero,
		LogDir:       "logs",
		Synchronous:  "NORMAL",
		CacheSizeKB:  65536,
	}
}

// Load builds the effective config: defaults, then path (or DefaultFile if
// path is empty and the file exists), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		if fileutil.Exists(DefaultFile) {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile overlays YAML settings from path.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}
	return nil
}

// LoadFromEnv overlays VENDORSUM_* environment variables.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("VENDORSUM_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VENDORSUM_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}
	if v := os.Getenv("VENDORSUM_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("VENDORSUM_SOURCE_DIR"); v != "" {
		c.SourceDir = v
	}
	if v := os.Getenv("VENDORSUM_EXTENSIONS"); v != "" {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.Extensions = exts
	}
	if v := os.Getenv("VENDORSUM_SUMMARY_TABLE"); v != "" {
		c.SummaryTable = v
	}
	if v := os.Getenv("VENDORSUM_SUMMARY_PARQUET"); v != "" {
		c.SummaryParquet = v
	}
	if v := os.Getenv("VENDORSUM_NULL_FILL"); v != "" {
		c.NullFill = NullFill(v)
	}
	if v := os.Getenv("VENDORSUM_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("VENDORSUM_DEBUG"); v != "" {
		c.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("VENDORSUM_HUMAN"); v != "" {
		c.Human = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.SourceDir == "" {
		return errors.New("source_dir is required")
	}
	if c.SummaryTable == "" {
		return errors.New("summary_table is required")
	}
	if len(c.Extensions) == 0 {
		return errors.New("at least one extension is required")
	}
	for _, e := range c.Extensions {
		if !strings.HasPrefix(e, ".") || len(e) < 2 {
			return fmt.Errorf("invalid extension %q: must start with a dot", e)
		}
	}
	switch c.NullFill {
	case NullFillZero, NullFillNumericOnly:
	default:
		return fmt.Errorf("invalid null_fill %q: must be %s or %s", c.NullFill, NullFillZero, NullFillNumericOnly)
	}
	sc := c.StoreConfig()
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// StoreConfig returns the store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Path:        c.StorePath,
		Synchronous: c.Synchronous,
		CacheSizeKB: c.CacheSizeKB,
	}
}

// IngestLogFile is the append-only log for the ingestion pipeline.
func (c *Config) IngestLogFile() string {
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, "ingestion_db.log")
}

// SummaryLogFile is the append-only log for the summary pipeline.
func (c *Config) SummaryLogFile() string {
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, "vendor_summary.log")
}
