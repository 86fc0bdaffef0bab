package summary

import (
	"context"
	"strings"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/config"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
)

// Clean returns a cleaned copy of rs:
//   - Volume is cast to float64; text that is not a number becomes missing.
//   - Missing values in every column are filled. Under config.NullFillZero a
//     numeric column gets 0.0 and a text column gets the integer 0, so text
//     columns can hold a literal zero. config.NullFillNumericOnly fills text
//     columns with "" instead.
//   - VendorName has surrounding whitespace trimmed.
func Clean(ctx context.Context, rs *rowset.Set, policy config.NullFill) *rowset.Set {
	log := logctx.FromContext(ctx)
	log.Info().Int("rows", rs.Len()).Str("null_fill", string(policy)).Msg("starting data cleaning")

	out := rs.Clone()

	if vi := out.Index(ColVolume); vi >= 0 {
		for _, row := range out.Rows {
			f, ok := rowset.Float(row[vi])
			if ok {
				row[vi] = f
			} else {
				row[vi] = nil
			}
		}
	}

	filled := 0
	for c := range out.Columns {
		fill := fillValue(out, c, policy)
		for _, row := range out.Rows {
			if row[c] == nil {
				row[c] = fill
				filled++
			}
		}
	}

	if ni := out.Index(ColVendorName); ni >= 0 {
		for _, row := range out.Rows {
			if s, ok := row[ni].(string); ok {
				row[ni] = strings.TrimSpace(s)
			}
		}
	}

	log.Info().Int("filled", filled).Msg("data cleaning completed")
	return out
}

// fillValue picks the replacement for a missing value in column c.
func fillValue(rs *rowset.Set, c int, policy config.NullFill) any {
	if isTextColumn(rs, c) {
		if policy == config.NullFillNumericOnly {
			return ""
		}
		return int64(0)
	}
	return float64(0)
}

// isTextColumn reports whether any value in column c is a string.
func isTextColumn(rs *rowset.Set, c int) bool {
	for _, row := range rs.Rows {
		if _, ok := row[c].(string); ok {
			return true
		}
	}
	return false
}
