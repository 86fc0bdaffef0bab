package summary

import (
	"context"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/eunmann/vendor-summary-db/pkg/store"
)

// Save replaces table with rs. Errors are logged and returned unchanged.
func Save(ctx context.Context, w TableWriter, rs *rowset.Set, table string) error {
	log := logctx.FromContext(ctx).With().Str("table", table).Logger()

	if err := w.WriteTable(ctx, table, rs, store.Replace); err != nil {
		log.Error().Err(err).Msg("failed to save summary table")
		return err
	}

	log.Info().Int("rows", rs.Len()).Msg("summary table saved")
	return nil
}
