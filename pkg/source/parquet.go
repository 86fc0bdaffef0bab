package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/parquet-go/parquet-go"
)

// parquetBatchReader reads a Parquet file by iterating its row groups.
type parquetBatchReader struct {
	name      string
	file      *parquet.File
	closer    io.Closer
	tempFile  *os.File // Spool file for streamed input (only if created by us)
	columns   []string
	batchSize int

	// Row group iteration state
	rowGroups    []parquet.RowGroup
	currentRGIdx int
	currentRows  parquet.Rows
	rowBuf       []parquet.Row
}

// NewParquetReader creates a batch reader from an io.ReaderAt. If r is also an
// io.Closer it is closed by Close.
func NewParquetReader(r io.ReaderAt, size int64, name string, batchSize int) (BatchReader, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
		return nil, &ReadError{Path: name, Err: fmt.Errorf("open parquet file: %w", err)}
	}

	pr := newParquetReader(file, name, batchSize)
	if c, ok := r.(io.Closer); ok {
		pr.closer = c
	}
	return pr, nil
}

// NewParquetReaderFromStream buffers a stream to a temp file and reads it.
// Parquet needs random access to the footer, so the stream cannot be read
// in place. The temp file is removed by Close.
func NewParquetReaderFromStream(r io.ReadCloser, name string, batchSize int) (BatchReader, error) {
	tempFile, err := os.CreateTemp("", "vendorsum-*.parquet")
	if err != nil {
		r.Close()
		return nil, &ReadError{Path: name, Err: fmt.Errorf("create temp file: %w", err)}
	}

	written, err := io.Copy(tempFile, r)
	r.Close()
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, &ReadError{Path: name, Err: fmt.Errorf("buffer parquet data: %w", err)}
	}

	file, err := parquet.OpenFile(tempFile, written)
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, &ReadError{Path: name, Err: fmt.Errorf("open parquet file: %w", err)}
	}

	pr := newParquetReader(file, name, batchSize)
	pr.tempFile = tempFile
	return pr, nil
}

func newParquetReader(file *parquet.File, name string, batchSize int) *parquetBatchReader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	paths := file.Schema().Columns()
	columns := make([]string, len(paths))
	for i, p := range paths {
		columns[i] = strings.Join(p, ".")
	}

	bufSize := 1024
	if batchSize < bufSize {
		bufSize = batchSize
	}

	return &parquetBatchReader{
		name:         name,
		file:         file,
		columns:      columns,
		batchSize:    batchSize,
		rowGroups:    file.RowGroups(),
		currentRGIdx: -1,
		rowBuf:       make([]parquet.Row, bufSize),
	}
}

func (r *parquetBatchReader) Columns() []string {
	return r.columns
}

// Next returns up to batchSize rows, crossing row group boundaries as needed.
func (r *parquetBatchReader) Next() (*rowset.Set, error) {
	batch := rowset.New(r.columns, r.batchSize)

	for batch.Len() < r.batchSize {
		if r.currentRows == nil {
			r.currentRGIdx++
			if r.currentRGIdx >= len(r.rowGroups) {
				break
			}
			r.currentRows = r.rowGroups[r.currentRGIdx].Rows()
		}

		want := r.batchSize - batch.Len()
		if want > len(r.rowBuf) {
			want = len(r.rowBuf)
		}

		n, err := r.currentRows.ReadRows(r.rowBuf[:want])
		for _, row := range r.rowBuf[:n] {
			batch.Rows = append(batch.Rows, r.convertRow(row))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, &ReadError{Path: r.name, Err: fmt.Errorf("read parquet rows: %w", err)}
			}
			// Current row group exhausted
			r.currentRows.Close()
			r.currentRows = nil
		}
	}

	if batch.Len() == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// convertRow maps leaf values onto cell values by column index.
func (r *parquetBatchReader) convertRow(row parquet.Row) []any {
	out := make([]any, len(r.columns))
	for _, val := range row {
		col := val.Column()
		if col < 0 || col >= len(out) || val.IsNull() {
			continue
		}
		out[col] = cellFromValue(val)
	}
	return out
}

func cellFromValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return int64(1)
		}
		return int64(0)
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

// Close releases resources.
func (r *parquetBatchReader) Close() error {
	if r.currentRows != nil {
		r.currentRows.Close()
		r.currentRows = nil
	}

	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}

	// Clean up temp file if we created one
	if r.tempFile != nil {
		name := r.tempFile.Name()
		r.tempFile.Close()
		os.Remove(name)
		r.tempFile = nil
	}
	return err
}
