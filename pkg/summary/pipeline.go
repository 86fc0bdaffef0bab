package summary

import (
	"context"
	"time"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/config"
	"github.com/eunmann/vendor-summary-db/pkg/humanfmt"
)

// DefaultTable is the table the summary is persisted to.
const DefaultTable = "VendorSalesSummary"

// Options configures Run.
type Options struct {
	// Table receives the summary. Defaults to DefaultTable.
	Table string
	// NullFill is the cleaner's missing-value policy. Defaults to
	// config.NullFillZero.
	NullFill config.NullFill
	// ParquetPath, if set, also exports the summary as a Parquet file.
	ParquetPath string
}

// Run executes the summary pipeline: aggregate, clean, derive KPIs and
// persist. The first failing stage stops the run and its error is returned
// unchanged; no later stage runs.
func Run(ctx context.Context, s Store, opts Options) error {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if opts.NullFill == "" {
		opts.NullFill = config.NullFillZero
	}

	log := logctx.FromContext(ctx)
	start := time.Now()

	raw, err := Summarize(ctx, s)
	if err != nil {
		return err
	}

	cleaned := Clean(ctx, raw, opts.NullFill)

	enriched, err := Engineer(ctx, cleaned)
	if err != nil {
		log.Error().Err(err).Msg("feature engineering failed")
		return err
	}

	if err := Save(ctx, s, enriched, opts.Table); err != nil {
		return err
	}

	if opts.ParquetPath != "" {
		if err := ExportParquet(ctx, opts.ParquetPath, enriched); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	log.Info().
		Int("rows", enriched.Len()).
		Dur("duration", elapsed).
		Str("duration_h", humanfmt.Minutes(elapsed)).
		Msg("vendor summary complete")
	return nil
}
