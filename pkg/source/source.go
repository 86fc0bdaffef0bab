// Package source reads delimited and columnar extracts as a lazy sequence of
// bounded row batches.
package source

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eunmann/vendor-summary-db/pkg/rowset"
)

// DefaultBatchSize is the maximum number of rows per batch.
const DefaultBatchSize = 50000

var (
	// ErrNoHeader indicates the file has no header row.
	ErrNoHeader = errors.New("missing header row")
	// ErrUnsupportedFormat indicates the file extension has no reader.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// ReadError reports a failure to read or parse a source file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read source %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// BatchReader yields row batches in file order.
type BatchReader interface {
	// Next returns the next batch of at most the configured size.
	// Returns io.EOF when the file is exhausted. A returned batch is owned by
	// the caller and never reused by the reader.
	Next() (*rowset.Set, error)

	// Columns returns the header schema.
	Columns() []string

	// Close releases the underlying file.
	Close() error
}

// Format identifies how a source file is decoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatCSVGzip
	FormatParquet
)

// DetectFormat picks a format from the file name.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv.gz"):
		return FormatCSVGzip
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".parquet"):
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// Open opens path with a reader chosen from its extension.
// Every error returned is a *ReadError.
func Open(path string, batchSize int) (BatchReader, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	switch DetectFormat(path) {
	case FormatCSV, FormatCSVGzip:
		f, err := os.Open(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		return NewCSVReader(f, path, batchSize)
	case FormatParquet:
		f, err := os.Open(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, &ReadError{Path: path, Err: err}
		}
		return NewParquetReader(f, info.Size(), path, batchSize)
	default:
		return nil, &ReadError{Path: path, Err: ErrUnsupportedFormat}
	}
}
