package benchutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteRawTables(t *testing.T) {
	cfg := DefaultConfig(500)
	ds := WriteDataset(t, cfg)

	for name, want := range ds.Rows {
		data, err := os.ReadFile(filepath.Join(ds.Dir, name))
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Count(string(data), "\n")
		if lines != want+1 {
			t.Errorf("%s has %d lines, want %d", name, lines, want+1)
		}
	}

	if ds.Groups <= 0 || ds.Groups > cfg.Vendors*cfg.BrandsPerVendor || ds.Groups > cfg.PurchaseRows {
		t.Errorf("Groups = %d out of range", ds.Groups)
	}
}

func TestWriteRawTables_Deterministic(t *testing.T) {
	cfg := DefaultConfig(200)
	a := WriteDataset(t, cfg)
	b := WriteDataset(t, cfg)

	for _, name := range []string{PurchasesFile, PurchasePricesFile, SalesFile, VendorInvoiceFile} {
		da, _ := os.ReadFile(filepath.Join(a.Dir, name))
		db, _ := os.ReadFile(filepath.Join(b.Dir, name))
		if !bytes.Equal(da, db) {
			t.Errorf("%s differs between runs with the same seed", name)
		}
	}
	if a.Groups != b.Groups {
		t.Errorf("Groups differ: %d vs %d", a.Groups, b.Groups)
	}
}

func TestWriteRawTables_InvalidConfig(t *testing.T) {
	if _, err := WriteRawTables(t.TempDir(), GeneratorConfig{}); err == nil {
		t.Fatal("expected error for zero vendors")
	}
}
