package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/seqcat/column"
)

// valueBufferSize is the number of values decoded per ReadValues call
const valueBufferSize = 1024

// Reader reads Parquet files as column batches.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewReader creates a new parquet reader for the specified file path.
//
// The file is opened and validated as a parquet file. Returns an error if
// the file doesn't exist or is not a valid parquet file.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &Reader{
		file:   file,
		pqFile: pqFile,
	}, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// NumRows returns the total row count from the file metadata
func (r *Reader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// Fields lists the readable leaf columns. Nested leaves use dot notation;
// repeated and unsupported leaves are left out.
func (r *Reader) Fields() []column.Field {
	var fields []column.Field
	schema := r.pqFile.Schema()
	for _, path := range schema.Columns() {
		leaf, ok := schema.Lookup(path...)
		if !ok || leaf.MaxRepetitionLevel > 0 {
			continue
		}
		t, err := leafType(leaf)
		if err != nil {
			continue
		}
		fields = append(fields, column.Field{Name: strings.Join(path, "."), Type: t})
	}
	return fields
}

// ReadBatches decodes the requested columns one row group at a time. Only
// the projected column chunks are read.
func (r *Reader) ReadBatches(columns []string, fn func(*column.Batch) error) error {
	schema := r.pqFile.Schema()

	if columns == nil {
		for _, f := range r.Fields() {
			columns = append(columns, f.Name)
		}
	}

	leaves := make([]parquet.LeafColumn, len(columns))
	types := make([]column.DataType, len(columns))
	for i, name := range columns {
		leaf, ok := schema.Lookup(strings.Split(name, ".")...)
		if !ok {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		if leaf.MaxRepetitionLevel > 0 {
			return fmt.Errorf("column %s is repeated and cannot be read as a flat column", name)
		}
		t, err := leafType(leaf)
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		leaves[i] = leaf
		types[i] = t
	}

	for g, rg := range r.pqFile.RowGroups() {
		chunks := rg.ColumnChunks()
		cols := make([]column.Column, len(leaves))
		for i, leaf := range leaves {
			col, err := readChunk(chunks[leaf.ColumnIndex], types[i], int(rg.NumRows()))
			if err != nil {
				return fmt.Errorf("row group %d, column %s: %w", g, columns[i], err)
			}
			cols[i] = col
		}

		batch, err := column.NewBatch(columns, cols)
		if err != nil {
			return fmt.Errorf("row group %d: %w", g, err)
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the parquet reader and releases associated resources.
//
// It is safe to call Close multiple times.
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

func leafType(leaf parquet.LeafColumn) (column.DataType, error) {
	switch kind := leaf.Node.Type().Kind(); kind {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return column.Utf8, nil
	case parquet.Int32, parquet.Int64:
		return column.Int64, nil
	case parquet.Float, parquet.Double:
		return column.Float64, nil
	case parquet.Boolean:
		return column.Boolean, nil
	default:
		return 0, fmt.Errorf("%w: unsupported physical type %v", column.ErrTypeMismatch, kind)
	}
}

// readChunk decodes every page of a column chunk. Values below the maximum
// definition level arrive as nulls.
func readChunk(chunk parquet.ColumnChunk, t column.DataType, numRows int) (column.Column, error) {
	b, err := column.NewBuilder(t, numRows)
	if err != nil {
		return nil, err
	}

	pages := chunk.Pages()
	defer func() { _ = pages.Close() }()

	buf := make([]parquet.Value, valueBufferSize)
	for {
		page, err := pages.ReadPage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read page: %w", err)
		}

		values := page.Values()
		for {
			n, err := values.ReadValues(buf)
			for _, v := range buf[:n] {
				appendParquetValue(b, v)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("failed to read values: %w", err)
			}
		}
	}

	if b.Len() != numRows {
		return nil, fmt.Errorf("decoded %d values, expected %d", b.Len(), numRows)
	}
	return b.Build(), nil
}

func appendParquetValue(b column.Builder, v parquet.Value) {
	if v.IsNull() {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *column.StringsBuilder:
		b.Append(v.ByteArray())
	case *column.Int64sBuilder:
		if v.Kind() == parquet.Int32 {
			b.Append(int64(v.Int32()))
		} else {
			b.Append(v.Int64())
		}
	case *column.Float64sBuilder:
		if v.Kind() == parquet.Float {
			b.Append(float64(v.Float()))
		} else {
			b.Append(v.Double())
		}
	case *column.BoolsBuilder:
		b.Append(v.Boolean())
	}
}
