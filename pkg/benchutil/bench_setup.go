package benchutil

import (
	"os"
	"testing"
)

// SkipIfNoLongBench skips the benchmark if VENDORSUM_LONG_BENCH is not set.
// Use this to gate long-running benchmarks that shouldn't run by default.
func SkipIfNoLongBench(b *testing.B) {
	if os.Getenv("VENDORSUM_LONG_BENCH") == "" {
		b.Skip("set VENDORSUM_LONG_BENCH=1 to run scaling benchmark")
	}
}

// WriteDataset generates raw tables into a fresh temp dir.
func WriteDataset(tb testing.TB, cfg GeneratorConfig) Dataset {
	tb.Helper()
	ds, err := WriteRawTables(tb.TempDir(), cfg)
	if err != nil {
		tb.Fatalf("generate dataset: %v", err)
	}
	return ds
}
