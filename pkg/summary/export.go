package summary

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/fileutil"
	"github.com/eunmann/vendor-summary-db/pkg/humanfmt"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/parquet-go/parquet-go"
)

type leafKind int

const (
	leafDouble leafKind = iota
	leafInt64
	leafString
)

// ExportParquet writes rs to path as a Parquet file with one optional leaf
// per column. Missing values are written as nulls. Parquet groups order
// their fields by name, so a reader sees the columns sorted.
//
// The file is written to a temporary name in the same directory and renamed
// into place, so a failed export leaves any previous file intact.
func ExportParquet(ctx context.Context, path string, rs *rowset.Set) error {
	log := logctx.FromContext(ctx).With().Str("path", path).Logger()

	if err := exportParquet(path, rs); err != nil {
		log.Error().Err(err).Msg("parquet export failed")
		return err
	}

	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	log.Info().
		Int("rows", rs.Len()).
		Str("size", humanfmt.Bytes(size)).
		Msg("summary exported to parquet")
	return nil
}

func exportParquet(path string, rs *rowset.Set) error {
	kinds := make([]leafKind, len(rs.Columns))
	group := make(parquet.Group, len(rs.Columns))
	for i, name := range rs.Columns {
		kinds[i] = leafKindOf(rs, i)
		switch kinds[i] {
		case leafInt64:
			group[name] = parquet.Optional(parquet.Int(64))
		case leafString:
			group[name] = parquet.Optional(parquet.String())
		default:
			group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		}
	}
	if len(group) != len(rs.Columns) {
		return fmt.Errorf("duplicate column names in %v", rs.Columns)
	}
	schema := parquet.NewSchema("vendor_sales_summary", group)

	// Map each set column onto its leaf position in the schema.
	leafIndex := make(map[string]int, len(rs.Columns))
	for i, p := range schema.Columns() {
		leafIndex[p[0]] = i
	}
	order := make([]int, len(rs.Columns))
	for i, name := range rs.Columns {
		order[leafIndex[name]] = i
	}

	return fileutil.WriteTmpThenMove(path, func(tmpPath string) error {
		f, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("create parquet file: %w", err)
		}
		defer f.Close()

		w := parquet.NewWriter(f, schema)
		rows := make([]parquet.Row, 0, 1024)
		flush := func() error {
			if len(rows) == 0 {
				return nil
			}
			if _, err := w.WriteRows(rows); err != nil {
				return fmt.Errorf("write rows: %w", err)
			}
			rows = rows[:0]
			return nil
		}

		for _, src := range rs.Rows {
			row := make(parquet.Row, len(order))
			for leaf, c := range order {
				row[leaf] = parquetValue(src[c], kinds[c], leaf)
			}
			rows = append(rows, row)
			if len(rows) == cap(rows) {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := flush(); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close parquet writer: %w", err)
		}
		return f.Close()
	})
}

// leafKindOf picks INT64 when every present value is an integer, STRING when
// any value is text, DOUBLE otherwise.
func leafKindOf(rs *rowset.Set, c int) leafKind {
	sawInt, sawFloat := false, false
	for _, row := range rs.Rows {
		switch row[c].(type) {
		case nil:
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		default:
			return leafString
		}
	}
	if sawInt && !sawFloat {
		return leafInt64
	}
	return leafDouble
}

func parquetValue(v any, kind leafKind, leaf int) parquet.Value {
	if v == nil {
		return parquet.NullValue().Level(0, 0, leaf)
	}

	var pv parquet.Value
	switch kind {
	case leafInt64:
		pv = parquet.Int64Value(v.(int64))
	case leafString:
		pv = parquet.ByteArrayValue([]byte(cellText(v)))
	default:
		f, _ := rowset.Float(v)
		pv = parquet.DoubleValue(f)
	}
	return pv.Level(0, 1, leaf)
}

func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
