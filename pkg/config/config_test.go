package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BatchSize != 50000 {
		t.Errorf("BatchSize = %d, want 50000", cfg.BatchSize)
	}
	if cfg.StorePath != "inventory.db" {
		t.Errorf("StorePath = %q, want inventory.db", cfg.StorePath)
	}
	if cfg.SourceDir != "data" {
		t.Errorf("SourceDir = %q, want data", cfg.SourceDir)
	}
	if cfg.SummaryTable != "VendorSalesSummary" {
		t.Errorf("SummaryTable = %q, want VendorSalesSummary", cfg.SummaryTable)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, true},
		{"negative batch", func(c *Config) { c.BatchSize = -5 }, true},
		{"empty store", func(c *Config) { c.StorePath = "" }, true},
		{"empty table", func(c *Config) { c.SummaryTable = "" }, true},
		{"no extensions", func(c *Config) { c.Extensions = nil }, true},
		{"extension without dot", func(c *Config) { c.Extensions = []string{"csv"} }, true},
		{"bad null fill", func(c *Config) { c.NullFill = "drop" }, true},
		{"numeric-only fill", func(c *Config) { c.NullFill = NullFillNumericOnly }, false},
		{"bad synchronous", func(c *Config) { c.Synchronous = "MAYBE" }, true},
		{"parquet and gzip", func(c *Config) { c.Extensions = []string{".csv", ".csv.gz", ".parquet"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendorsum.yaml")
	content := `
batch_size: 1000
store_path: /tmp/x.db
extensions: [".csv", ".parquet"]
summary_parquet: out/summary.parquet
null_fill: numeric-only
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("BatchSize = %d, want 1000", cfg.BatchSize)
	}
	if cfg.StorePath != "/tmp/x.db" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".parquet" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.NullFill != NullFillNumericOnly {
		t.Errorf("NullFill = %q", cfg.NullFill)
	}
	// Unset keys keep defaults
	if cfg.SummaryTable != "VendorSalesSummary" {
		t.Errorf("SummaryTable = %q, want default", cfg.SummaryTable)
	}
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendorsum.toml")
	if err := os.WriteFile(path, []byte("batch_size = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := DefaultConfig().LoadFromFile(path); err == nil {
		t.Error("expected error for .toml config")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VENDORSUM_BATCH_SIZE", "2")
	t.Setenv("VENDORSUM_SOURCE_DIR", "s3://bucket/raw/")
	t.Setenv("VENDORSUM_EXTENSIONS", ".csv, .csv.gz")
	t.Setenv("VENDORSUM_DEBUG", "true")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.BatchSize != 2 {
		t.Errorf("BatchSize = %d, want 2", cfg.BatchSize)
	}
	if cfg.SourceDir != "s3://bucket/raw/" {
		t.Errorf("SourceDir = %q", cfg.SourceDir)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".csv.gz" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if !cfg.Debug {
		t.Error("Debug not set")
	}
}

func TestLoadFromEnv_BadBatchSize(t *testing.T) {
	t.Setenv("VENDORSUM_BATCH_SIZE", "lots")
	if err := DefaultConfig().LoadFromEnv(); err == nil {
		t.Error("expected error for non-numeric batch size")
	}
}

func TestLogFiles(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.IngestLogFile(); got != filepath.Join("logs", "ingestion_db.log") {
		t.Errorf("IngestLogFile() = %q", got)
	}
	if got := cfg.SummaryLogFile(); got != filepath.Join("logs", "vendor_summary.log") {
		t.Errorf("SummaryLogFile() = %q", got)
	}
	cfg.LogDir = ""
	if got := cfg.IngestLogFile(); got != "" {
		t.Errorf("IngestLogFile() with no dir = %q, want empty", got)
	}
}
