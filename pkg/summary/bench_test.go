package summary

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/eunmann/vendor-summary-db/pkg/benchutil"
	"github.com/eunmann/vendor-summary-db/pkg/ingest"
	"github.com/eunmann/vendor-summary-db/pkg/store"
)

func loadDataset(tb testing.TB, rows int) (*store.DB, benchutil.Dataset) {
	tb.Helper()
	ds := benchutil.WriteDataset(tb, benchutil.DefaultConfig(rows))
	db, err := store.Open(store.DefaultConfig(filepath.Join(tb.TempDir(), "inventory.db")))
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { db.Close() })

	loader := ingest.NewLoader(ingest.NewIngestor(db, 1000), nil)
	if _, err := loader.LoadAll(context.Background(), ds.Dir); err != nil {
		tb.Fatal(err)
	}
	return db, ds
}

func TestRun_GeneratedDataset(t *testing.T) {
	db, ds := loadDataset(t, 3000)
	ctx := context.Background()

	if err := Run(ctx, db, Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rs, err := db.Query(ctx, `SELECT * FROM "VendorSalesSummary"`)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != ds.Groups {
		t.Fatalf("summary rows = %d, want one per purchase group (%d)", rs.Len(), ds.Groups)
	}

	for r, row := range rs.Rows {
		for c, v := range row {
			f, ok := v.(float64)
			if ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				t.Fatalf("row %d %s is %v", r, rs.Columns[c], f)
			}
		}
	}
}

func BenchmarkRun(b *testing.B) {
	for _, n := range benchutil.BenchmarkSizes {
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			db, _ := loadDataset(b, n)
			ctx := context.Background()

			b.ResetTimer()
			for b.Loop() {
				if err := Run(ctx, db, Options{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
