package source

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eunmann/vendor-summary-db/pkg/rowset"
)

// csvBatchReader reads a delimited stream with a header row.
type csvBatchReader struct {
	name      string
	csvReader *csv.Reader
	columns   []string
	batchSize int
	closers   []io.Closer
	done      bool
}

// NewCSVReader creates a batch reader over r. The header row is read
// immediately. Gzip decompression is applied when name ends in .gz.
// On error r is closed.
func NewCSVReader(r io.ReadCloser, name string, batchSize int) (BatchReader, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var reader io.Reader = r
	closers := []io.Closer{r}

	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			r.Close()
			return nil, &ReadError{Path: name, Err: fmt.Errorf("create gzip reader: %w", err)}
		}
		closers = append(closers, gzr)
		reader = gzr
	}

	csvr := csv.NewReader(reader)
	// Rows are retained in the batch, so records are not reused.
	csvr.ReuseRecord = false

	br := &csvBatchReader{
		name:      name,
		csvReader: csvr,
		batchSize: batchSize,
		closers:   closers,
	}

	header, err := csvr.Read()
	if err != nil {
		br.Close()
		if errors.Is(err, io.EOF) {
			return nil, &ReadError{Path: name, Err: ErrNoHeader}
		}
		return nil, &ReadError{Path: name, Err: fmt.Errorf("read header: %w", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	br.columns = dedupeColumns(header)

	return br, nil
}

// dedupeColumns renames repeated header names the way dataframe readers do:
// the second "A" becomes "A.1", the third "A.2", skipping names already in
// use.
func dedupeColumns(cols []string) []string {
	out := make([]string, len(cols))
	counts := make(map[string]int, len(cols))
	for i, col := range cols {
		n := counts[col]
		for n > 0 {
			counts[col] = n + 1
			col = col + "." + strconv.Itoa(n)
			n = counts[col]
		}
		out[i] = col
		counts[col] = n + 1
	}
	return out
}

func (r *csvBatchReader) Columns() []string {
	return r.columns
}

// Next returns up to batchSize rows. A header-only file yields io.EOF on the
// first call.
func (r *csvBatchReader) Next() (*rowset.Set, error) {
	if r.done {
		return nil, io.EOF
	}

	batch := rowset.New(r.columns, r.batchSize)
	for batch.Len() < r.batchSize {
		fields, err := r.csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
				break
			}
			return nil, &ReadError{Path: r.name, Err: fmt.Errorf("read CSV row: %w", err)}
		}

		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = rowset.ParseCell(f)
		}
		batch.Rows = append(batch.Rows, row)
	}

	if batch.Len() == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Close releases resources.
func (r *csvBatchReader) Close() error {
	var firstErr error
	// Close in reverse order (gzip reader before underlying file)
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
