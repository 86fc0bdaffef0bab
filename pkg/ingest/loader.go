package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/humanfmt"
	"github.com/eunmann/vendor-summary-db/pkg/logging"
	"github.com/eunmann/vendor-summary-db/pkg/memstat"
	"github.com/eunmann/vendor-summary-db/pkg/s3src"
	"github.com/eunmann/vendor-summary-db/pkg/source"
)

// DefaultExtensions are the source suffixes accepted when none are configured.
var DefaultExtensions = []string{".csv"}

// Result summarizes a loader run.
type Result struct {
	Files   int
	Skipped int
	Rows    int64
	// Tables lists ingested tables in processing order.
	Tables  []string
	Elapsed time.Duration
}

// Loader ingests every matching file in a location, sequentially.
type Loader struct {
	ing  *Ingestor
	exts []string
}

// NewLoader creates a loader accepting files with any of exts.
func NewLoader(ing *Ingestor, exts []string) *Loader {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Loader{ing: ing, exts: exts}
}

// TableName derives the table name by removing the longest matching
// extension. ok is false when no extension matches or nothing is left.
// Names are neither sanitized nor deduplicated.
func TableName(file string, exts []string) (string, bool) {
	best := ""
	for _, ext := range exts {
		if strings.HasSuffix(file, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return "", false
	}
	name := strings.TrimSuffix(file, best)
	return name, name != ""
}

// entry is one candidate file from a directory or an S3 prefix.
type entry struct {
	name  string
	isDir bool
	open  func() (source.BatchReader, error)
}

// LoadAll ingests the files directly inside dir. Non-matching entries are
// skipped with a warning. The first ingestion error stops the run and is
// returned; tables ingested before it remain. Total elapsed time is logged
// on every path.
func (l *Loader) LoadAll(ctx context.Context, dir string) (Result, error) {
	return l.run(ctx, dir, func() ([]entry, error) {
		if s3src.IsURI(dir) {
			return nil, fmt.Errorf("%s is an S3 URI; use LoadS3", dir)
		}
		des, err := os.ReadDir(dir)
		if err != nil {
			return nil, &source.ReadError{Path: dir, Err: err}
		}
		entries := make([]entry, 0, len(des))
		for _, de := range des {
			path := filepath.Join(dir, de.Name())
			entries = append(entries, entry{
				name:  de.Name(),
				isDir: de.IsDir(),
				open:  func() (source.BatchReader, error) { return source.Open(path, l.ing.BatchSize()) },
			})
		}
		return entries, nil
	})
}

// LoadS3 ingests the objects directly under an s3://bucket/prefix/ URI with
// the same rules as LoadAll. CSV objects are streamed; Parquet objects are
// spooled to a temp file first.
func (l *Loader) LoadS3(ctx context.Context, api s3src.API, uri string) (Result, error) {
	return l.run(ctx, uri, func() ([]entry, error) {
		bucket, prefix, err := s3src.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		objs, err := s3src.List(ctx, api, bucket, prefix)
		if err != nil {
			return nil, &source.ReadError{Path: uri, Err: err}
		}
		entries := make([]entry, 0, len(objs))
		for _, obj := range objs {
			entries = append(entries, entry{
				name: obj.Name,
				open: func() (source.BatchReader, error) {
					body, err := s3src.Open(ctx, api, bucket, obj.Key)
					if err != nil {
						return nil, &source.ReadError{Path: "s3://" + bucket + "/" + obj.Key, Err: err}
					}
					if source.DetectFormat(obj.Name) == source.FormatParquet {
						return source.NewParquetReaderFromStream(body, obj.Key, l.ing.BatchSize())
					}
					return source.NewCSVReader(body, obj.Key, l.ing.BatchSize())
				},
			})
		}
		return entries, nil
	})
}

func (l *Loader) run(ctx context.Context, location string, list func() ([]entry, error)) (res Result, err error) {
	log := logctx.FromContext(ctx).With().Str("source", location).Logger()
	ctx = logctx.WithLogger(ctx, log)
	progress := logging.NewFileProgress("ingest", log)

	mem := memstat.Take()
	log.Info().
		Int("batch_size", l.ing.BatchSize()).
		Strs("extensions", l.exts).
		Str("system_memory_h", humanfmt.BytesUint64(mem.SystemTotal)).
		Bool("system_memory_reliable", mem.SystemReliable).
		Str("heap_sys_h", humanfmt.BytesUint64(mem.HeapSys)).
		Msg("loading raw data")

	defer func() {
		res.Files = progress.Completed()
		res.Skipped = progress.Skipped()
		res.Rows = progress.Rows()
		res.Tables = progress.Tables()
		res.Elapsed = progress.Elapsed()
		progress.LogTotal(err)
	}()

	entries, err := list()
	if err != nil {
		log.Error().Err(err).Msg("failed to list source")
		return res, err
	}
	if len(entries) == 0 {
		log.Warn().Msg("no files found in source directory")
		return res, nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	for i, e := range entries {
		if e.isDir {
			progress.RecordSkip(e.name, "skipping directory")
			continue
		}
		table, ok := TableName(e.name, l.exts)
		if !ok {
			progress.RecordSkip(e.name, "skipping non-matching file")
			continue
		}

		log.Info().Str("file", e.name).Str("table", table).Msg("processing file")

		r, err := e.open()
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("ingestion failed")
			return res, err
		}
		fileCtx := logctx.WithInt(logctx.WithStr(ctx, "file", e.name), "file_index", i)
		stats, err := l.ing.IngestReader(fileCtx, r, table)
		if err != nil {
			return res, err
		}
		progress.RecordFile(table, stats.Rows, stats.Elapsed)
	}
	return res, nil
}
