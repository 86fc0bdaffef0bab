package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eunmann/vendor-summary-db/pkg/rowset"
)

// Query runs a parameterless statement and materializes every row.
// Errors are returned as *QueryError; no partial result is returned.
func (s *DB) Query(ctx context.Context, query string) (*rowset.Set, error) {
	start := time.Now()
	rs, err := s.query(ctx, query)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	s.log.Debug().
		Int("rows", rs.Len()).
		Int("columns", len(rs.Columns)).
		Dur("elapsed", time.Since(start)).
		Msg("query complete")
	return rs, nil
}

func (s *DB) query(ctx context.Context, query string) (*rowset.Set, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := rowset.New(cols, 0)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range raw {
			raw[i] = normalize(v)
		}
		rs.Rows = append(rs.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// normalize maps driver values onto the rowset cell types.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// RowCount returns the number of rows in table name.
func (s *DB) RowCount(ctx context.Context, name string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(name)).Scan(&n); err != nil {
		return 0, &QueryError{Err: fmt.Errorf("count %s: %w", name, err)}
	}
	return n, nil
}

// TableExists reports whether table name exists.
func (s *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return false, &QueryError{Err: fmt.Errorf("lookup table %s: %w", name, err)}
	}
	return n > 0, nil
}
