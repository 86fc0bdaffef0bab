package logging

import (
	"time"

	"github.com/eunmann/vendor-summary-db/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// FileProgress tracks files handled by one loader run. It is owned by a
// single goroutine.
type FileProgress struct {
	log       zerolog.Logger
	phase     string
	startTime time.Time

	completed int
	skipped   int
	rows      int64
	tables    []string
}

// NewFileProgress starts tracking now.
func NewFileProgress(phase string, log zerolog.Logger) *FileProgress {
	return &FileProgress{
		log:       log,
		phase:     phase,
		startTime: time.Now(),
	}
}

// RecordFile records a file ingested into table.
func (fp *FileProgress) RecordFile(table string, rows int64, d time.Duration) {
	fp.completed++
	fp.rows += rows
	fp.tables = append(fp.tables, table)

	fp.log.Info().
		Str("event", "file_completed").
		Str("phase", fp.phase).
		Str("table", table).
		Int64("rows", rows).
		Int64("duration_ms", d.Milliseconds()).
		Str("elapsed_h", humanfmt.Duration(d)).
		Str("rate_h", humanfmt.RowRate(rows, d)).
		Int("files_completed", fp.completed).
		Msg("file ingested")
}

// RecordSkip records a skipped entry and logs a warning with the reason.
func (fp *FileProgress) RecordSkip(name, reason string) {
	fp.skipped++
	fp.log.Warn().
		Str("event", "file_skipped").
		Str("phase", fp.phase).
		Str("file", name).
		Msg(reason)
}

// Completed returns the number of ingested files.
func (fp *FileProgress) Completed() int {
	return fp.completed
}

// Skipped returns the number of skipped entries.
func (fp *FileProgress) Skipped() int {
	return fp.skipped
}

// Rows returns the total rows ingested.
func (fp *FileProgress) Rows() int64 {
	return fp.rows
}

// Tables returns ingested table names in order.
func (fp *FileProgress) Tables() []string {
	return fp.tables
}

// Elapsed returns time since tracking started.
func (fp *FileProgress) Elapsed() time.Duration {
	return time.Since(fp.startTime)
}

// LogTotal emits the run's elapsed time and outcome. It is called on success
// and failure. The error itself was already logged where it occurred.
func (fp *FileProgress) LogTotal(err error) {
	elapsed := fp.Elapsed()
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	fp.log.Info().
		Str("event", "phase_completed").
		Str("outcome", outcome).
		Str("phase", fp.phase).
		Int("files_completed", fp.completed).
		Int("files_skipped", fp.skipped).
		Int64("rows", fp.rows).
		Int64("duration_ms", elapsed.Milliseconds()).
		Str("duration_h", humanfmt.Minutes(elapsed)).
		Msg("ingestion complete")
}
