// Package ingest streams source extracts into the table store in bounded
// batches, one table per file.
package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/memstat"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/eunmann/vendor-summary-db/pkg/source"
	"github.com/eunmann/vendor-summary-db/pkg/store"
)

// TableWriter is the store capability the ingestor needs.
type TableWriter interface {
	WriteTable(ctx context.Context, name string, b *rowset.Set, mode store.Mode) error
}

// Verify interface compliance at compile time.
var _ TableWriter = (*store.DB)(nil)

// FileStats describes one completed ingestion.
type FileStats struct {
	Table   string
	Batches int
	Rows    int64
	Elapsed time.Duration
}

// Ingestor writes one file at a time into its table.
type Ingestor struct {
	w         TableWriter
	batchSize int
}

// NewIngestor creates an ingestor writing batches of at most batchSize rows.
func NewIngestor(w TableWriter, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = source.DefaultBatchSize
	}
	return &Ingestor{w: w, batchSize: batchSize}
}

// BatchSize returns the configured batch bound.
func (in *Ingestor) BatchSize() int {
	return in.batchSize
}

// writeState is the per-file replace/append state. The first write replaces
// the table; every later write appends.
type writeState int

const (
	notStarted writeState = iota
	started
)

// next returns the mode for the upcoming write and advances the state.
func (s *writeState) next() store.Mode {
	if *s == notStarted {
		*s = started
		return store.Replace
	}
	return store.Append
}

// Ingest streams the file at path into table. A header-only file produces no
// batches and leaves the table untouched. Errors are logged with the table
// name and returned unchanged; batches already written stay in the table.
func (in *Ingestor) Ingest(ctx context.Context, path, table string) (FileStats, error) {
	log := logctx.FromContext(ctx)
	log.Info().Str("table", table).Str("file", path).Msg("starting ingestion")

	r, err := source.Open(path, in.batchSize)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("ingestion failed")
		return FileStats{Table: table}, err
	}
	defer r.Close()

	return in.ingest(ctx, r, table)
}

// IngestReader streams an already opened reader into table and closes it.
func (in *Ingestor) IngestReader(ctx context.Context, r source.BatchReader, table string) (FileStats, error) {
	defer r.Close()
	log := logctx.FromContext(ctx)
	log.Info().Str("table", table).Msg("starting ingestion")
	return in.ingest(ctx, r, table)
}

func (in *Ingestor) ingest(ctx context.Context, r source.BatchReader, table string) (FileStats, error) {
	log := logctx.FromContext(ctx).With().Str("table", table).Logger()
	start := time.Now()
	stats := FileStats{Table: table}

	var state writeState
	for {
		batch, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error().Err(err).Int("batches_written", stats.Batches).Msg("ingestion failed")
			return stats, err
		}

		mode := state.next()
		if err := in.w.WriteTable(ctx, table, batch, mode); err != nil {
			log.Error().Err(err).Int("batches_written", stats.Batches).Stringer("mode", mode).Msg("ingestion failed")
			return stats, err
		}

		stats.Batches++
		stats.Rows += int64(batch.Len())

		if e := log.Debug(); e.Enabled() {
			e.Int("batch", stats.Batches).
				Stringer("mode", mode).
				Int("rows", batch.Len()).
				Uint64("heap_alloc", memstat.HeapAlloc()).
				Msg("batch written")
		}
	}

	stats.Elapsed = time.Since(start)
	if state == notStarted {
		log.Warn().Msg("source has no data rows; table not created")
	}
	log.Info().
		Int("batches", stats.Batches).
		Int64("rows", stats.Rows).
		Dur("elapsed", stats.Elapsed).
		Msg("successfully ingested table")
	return stats, nil
}
