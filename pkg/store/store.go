// Package store is the relational table store backing ingestion and the
// vendor summary. It wraps a single SQLite database file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eunmann/vendor-summary-db/pkg/logging"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLite max variable number (default is 999, but modern SQLite allows 32766)
// We'll use a conservative 10000 to ensure compatibility
const maxSQLiteVariables = 10000

// ErrInvalidIdentifier indicates an empty table name.
var ErrInvalidIdentifier = errors.New("invalid table name")

// Mode selects how WriteTable treats an existing table.
type Mode int

const (
	// Replace drops and recreates the table from the batch schema.
	Replace Mode = iota
	// Append inserts into the table, creating it if absent.
	Append
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Config holds configuration for the store.
type Config struct {
	// Path is the path to the SQLite database file.
	Path string
	// Synchronous sets the SQLite synchronous pragma: OFF, NORMAL or FULL.
	Synchronous string
	// CacheSizeKB is the page cache size in KB.
	CacheSizeKB int
}

// DefaultConfig returns the default store configuration for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Synchronous: "NORMAL",
		CacheSizeKB: 65536, // 64MB
	}
}

// Validate checks configuration values and returns an error for invalid settings.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("Path is required")
	}
	switch c.Synchronous {
	case "", "OFF", "NORMAL", "FULL":
		// Valid values
	default:
		return fmt.Errorf("invalid Synchronous value %q: must be OFF, NORMAL, or FULL", c.Synchronous)
	}
	if c.CacheSizeKB < 0 {
		return fmt.Errorf("CacheSizeKB must be non-negative, got %d", c.CacheSizeKB)
	}
	return nil
}

// DB is a single shared handle to the store. It is not meant for concurrent
// writers; the pipeline has exactly one.
type DB struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the SQLite database at cfg.Path.
func Open(cfg Config) (*DB, error) {
	log := logging.WithPhase("store")

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Str("db_path", cfg.Path).Msg("database connection failed")
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	if cfg.Synchronous == "" {
		cfg.Synchronous = "NORMAL"
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		log.Error().Err(err).Str("db_path", cfg.Path).Msg("database connection failed")
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: the handle is shared by every stage of a run.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA synchronous=%s", cfg.Synchronous),
		"PRAGMA temp_store=MEMORY",
		fmt.Sprintf("PRAGMA cache_size=-%d", cfg.CacheSizeKB),
		"PRAGMA busy_timeout=10000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			log.Error().Err(err).Str("db_path", cfg.Path).Msg("database connection failed")
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}

	log.Info().Str("db_path", cfg.Path).Msg("database connection established")

	return &DB{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// WriteTable writes the batch into table name. Replace drops any existing
// table and recreates it with the batch's columns; Append inserts into the
// existing table, creating it first if it does not exist. Each call is one
// transaction. Errors are returned as *WriteError.
func (s *DB) WriteTable(ctx context.Context, name string, b *rowset.Set, mode Mode) error {
	if err := s.writeTable(ctx, name, b, mode); err != nil {
		return &WriteError{Table: name, Mode: mode, Err: err}
	}
	return nil
}

func (s *DB) writeTable(ctx context.Context, name string, b *rowset.Set, mode Mode) error {
	if name == "" {
		return ErrInvalidIdentifier
	}
	if b == nil || len(b.Columns) == 0 {
		return errors.New("batch has no columns")
	}

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	table := QuoteIdent(name)
	switch mode {
	case Replace:
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, createTableSQL("CREATE TABLE", table, b)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	case Append:
		if _, err := tx.ExecContext(ctx, createTableSQL("CREATE TABLE IF NOT EXISTS", table, b)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	default:
		return fmt.Errorf("unknown write mode %d", int(mode))
	}

	if err := insertRows(ctx, tx, table, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Debug().
		Str("table", name).
		Stringer("mode", mode).
		Int("rows", b.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("wrote batch")
	return nil
}

// insertRows uses multi-row INSERT statements bounded by the variable limit.
func insertRows(ctx context.Context, tx *sql.Tx, table string, b *rowset.Set) error {
	cols := len(b.Columns)
	perStmt := maxSQLiteVariables / cols
	if perStmt < 1 {
		perStmt = 1
	}

	var colList strings.Builder
	for i, c := range b.Columns {
		if i > 0 {
			colList.WriteString(", ")
		}
		colList.WriteString(QuoteIdent(c))
	}

	var (
		stmt     *sql.Stmt
		stmtRows int
	)
	defer func() {
		if stmt != nil {
			stmt.Close()
		}
	}()

	args := make([]any, 0, perStmt*cols)
	for off := 0; off < len(b.Rows); off += perStmt {
		end := off + perStmt
		if end > len(b.Rows) {
			end = len(b.Rows)
		}
		n := end - off

		if stmt == nil || stmtRows != n {
			if stmt != nil {
				stmt.Close()
			}
			var err error
			stmt, err = tx.PrepareContext(ctx, multiInsertSQL(table, colList.String(), cols, n))
			if err != nil {
				return fmt.Errorf("prepare insert: %w", err)
			}
			stmtRows = n
		}

		args = args[:0]
		for _, row := range b.Rows[off:end] {
			if len(row) != cols {
				return fmt.Errorf("row has %d values, want %d", len(row), cols)
			}
			args = append(args, row...)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
	}
	return nil
}

func multiInsertSQL(table, colList string, cols, rows int) string {
	var sb strings.Builder
	sb.Grow(64 + rows*(cols*2+3))
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(colList)
	sb.WriteString(") VALUES ")

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(placeholder)
	}
	return sb.String()
}

func createTableSQL(verb, table string, b *rowset.Set) string {
	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteByte(' ')
	sb.WriteString(table)
	sb.WriteString(" (")
	for i, c := range b.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(QuoteIdent(c))
		sb.WriteByte(' ')
		sb.WriteString(columnType(b, i))
	}
	sb.WriteByte(')')
	return sb.String()
}

// columnType infers a declared SQLite type from the batch values:
// INTEGER when every non-null value is an integer, REAL when values are
// numeric, TEXT otherwise. A column with no values is REAL.
func columnType(b *rowset.Set, col int) string {
	sawInt, sawFloat := false, false
	for _, row := range b.Rows {
		if col >= len(row) {
			continue
		}
		switch row[col].(type) {
		case nil:
		case int64, int, int32, bool:
			sawInt = true
		case float64, float32:
			sawFloat = true
		default:
			return "TEXT"
		}
	}
	if sawInt && !sawFloat {
		return "INTEGER"
	}
	return "REAL"
}

// QuoteIdent quotes a table or column name for SQLite.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
