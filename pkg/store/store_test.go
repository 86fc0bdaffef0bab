package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/vendor-summary-db/pkg/logging"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/rs/zerolog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "inventory.db")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func batch(cols []string, rows ...[]any) *rowset.Set {
	s := rowset.New(cols, len(rows))
	s.Rows = append(s.Rows, rows...)
	return s
}

func TestOpenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	// Second close is a no-op
	if err := db.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestOpen_InvalidConfigLoggedOnce(t *testing.T) {
	prev := *logging.L()
	defer logging.SetLogger(prev)

	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf))

	if _, err := Open(Config{Path: "x.db", Synchronous: "SOMETIMES"}); err == nil {
		t.Fatal("expected error for invalid config")
	}
	if n := strings.Count(buf.String(), "database connection failed"); n != 1 {
		t.Errorf("failure logged %d times, want once: %s", n, buf.String())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid default config", DefaultConfig("/tmp/test.db"), false},
		{"empty path", Config{}, true},
		{"bad synchronous", Config{Path: "x.db", Synchronous: "SOMETIMES"}, true},
		{"negative cache", Config{Path: "x.db", CacheSizeKB: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteTable_ReplaceThenAppend(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cols := []string{"VendorNumber", "VendorName", "Freight"}

	if err := db.WriteTable(ctx, "vendor_invoice", batch(cols,
		[]any{int64(1), "ACME", 10.5},
		[]any{int64(2), "Beta", nil},
	), Replace); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := db.WriteTable(ctx, "vendor_invoice", batch(cols,
		[]any{int64(3), "Gamma", 7.0},
	), Append); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	n, err := db.RowCount(ctx, "vendor_invoice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("row count = %d, want 3", n)
	}

	// Replace drops previous contents.
	if err := db.WriteTable(ctx, "vendor_invoice", batch(cols,
		[]any{int64(9), "Zeta", 1.0},
	), Replace); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}
	if n, _ := db.RowCount(ctx, "vendor_invoice"); n != 1 {
		t.Errorf("row count after replace = %d, want 1", n)
	}
}

func TestWriteTable_ReplaceChangesSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.WriteTable(ctx, "t", batch([]string{"a"}, []any{int64(1)}), Replace); err != nil {
		t.Fatal(err)
	}
	if err := db.WriteTable(ctx, "t", batch([]string{"x", "y"}, []any{"p", "q"}), Replace); err != nil {
		t.Fatal(err)
	}

	rs, err := db.Query(ctx, "SELECT * FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs.Columns) != 2 || rs.Columns[0] != "x" {
		t.Errorf("columns = %v, want [x y]", rs.Columns)
	}
}

func TestWriteTable_AppendCreatesMissingTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.WriteTable(ctx, "fresh", batch([]string{"a"}, []any{int64(1)}), Append); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	ok, err := db.TableExists(ctx, "fresh")
	if err != nil || !ok {
		t.Errorf("TableExists = %v, %v; want true", ok, err)
	}
}

func TestWriteTable_ManyRowsAcrossStatements(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cols := []string{"a", "b", "c", "d"}
	b := rowset.New(cols, 7000)
	for i := range 7000 {
		b.Rows = append(b.Rows, []any{int64(i), float64(i) / 2, "v", nil})
	}
	if err := db.WriteTable(ctx, "big", b, Replace); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if n, _ := db.RowCount(ctx, "big"); n != 7000 {
		t.Errorf("row count = %d, want 7000", n)
	}
}

func TestWriteTable_Errors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WriteTable(ctx, "", batch([]string{"a"}, []any{int64(1)}), Replace)
	var we *WriteError
	if !errors.As(err, &we) || !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("expected WriteError wrapping ErrInvalidIdentifier, got %v", err)
	}

	err = db.WriteTable(ctx, "t", batch([]string{"a", "b"}, []any{int64(1)}), Replace)
	if !errors.As(err, &we) || we.Table != "t" || we.Mode != Replace {
		t.Errorf("expected WriteError for short row, got %v", err)
	}

	// A failed replace leaves no half-created table behind.
	if ok, _ := db.TableExists(ctx, "t"); ok {
		t.Error("failed write left table t behind")
	}
}

func TestWriteTable_QuotedNames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.WriteTable(ctx, `my "odd" table`, batch([]string{"select", "Brand Name"},
		[]any{int64(1), "X"}), Replace); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	rs, err := db.Query(ctx, `SELECT "Brand Name" FROM "my ""odd"" table"`)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 1 || rs.Rows[0][0] != "X" {
		t.Errorf("rows = %v", rs.Rows)
	}
}

func TestQuery_Types(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rs, err := db.Query(ctx, "SELECT 1 AS i, 2.5 AS f, 'txt' AS s, NULL AS n")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	row := rs.Rows[0]
	if row[0] != int64(1) || row[1] != 2.5 || row[2] != "txt" || row[3] != nil {
		t.Errorf("row = %#v", row)
	}
}

func TestQuery_Error(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Query(context.Background(), "SELECT * FROM missing_table")
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Errorf("expected *QueryError, got %T: %v", err, err)
	}
}

func TestColumnType(t *testing.T) {
	b := batch([]string{"i", "f", "mixed", "s", "empty"},
		[]any{int64(1), 1.5, int64(1), "a", nil},
		[]any{nil, int64(2), 2.5, int64(3), nil},
	)
	want := []string{"INTEGER", "REAL", "REAL", "TEXT", "REAL"}
	for i, w := range want {
		if got := columnType(b, i); got != w {
			t.Errorf("columnType(%s) = %s, want %s", b.Columns[i], got, w)
		}
	}
}

func TestModeString(t *testing.T) {
	if Replace.String() != "replace" || Append.String() != "append" {
		t.Errorf("mode strings: %s %s", Replace, Append)
	}
}
