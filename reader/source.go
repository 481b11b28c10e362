package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vegasq/seqcat/column"
)

// ErrColumnNotFound is returned when a projected column is not in the file.
var ErrColumnNotFound = errors.New("column not found")

// DefaultBatchSize is the number of records per batch for sequence files.
const DefaultBatchSize = 8192

// maxFiles caps glob expansion to prevent resource exhaustion
const maxFiles = 1000

// Options control how sources are read.
type Options struct {
	// BatchSize is the number of records per batch for sequence files.
	// Parquet sources always produce one batch per row group.
	BatchSize int
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// Source produces column batches from one input file.
type Source interface {
	// Fields lists the columns the source can produce
	Fields() []column.Field
	// ReadBatches calls fn for every batch, in file order, containing only
	// the named columns. A nil columns slice selects every column. Reading
	// stops at the first error returned by fn.
	ReadBatches(columns []string, fn func(*column.Batch) error) error
	Close() error
}

// Open opens path as a Parquet file or, based on its extension, as a FASTQ
// or FASTA file.
func Open(path string, opts Options) (Source, error) {
	if format, ok := DetectSequenceFormat(path); ok {
		return NewSequenceReader(path, format, opts)
	}
	return NewReader(path)
}

// ReadMultipleFiles reads every file matching pattern and calls fn for each
// batch. The pattern may contain glob wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
//
// When the pattern is a glob, each batch carries an extra "_file" column with
// the source path. A plain path is read as-is, without "_file".
//
// It returns the number of files read.
func ReadMultipleFiles(pattern string, columns []string, opts Options, fn func(*column.Batch) error) (int, error) {
	if !IsGlob(pattern) {
		src, err := Open(pattern, opts)
		if err != nil {
			return 0, err
		}
		readErr := src.ReadBatches(columns, fn)
		closeErr := src.Close()
		if readErr != nil {
			return 1, readErr
		}
		return 1, closeErr
	}

	matches, err := expandGlob(pattern)
	if err != nil {
		return 0, err
	}

	fileCols, wantFile := splitFileColumn(columns)

	for i, path := range matches {
		src, err := Open(path, opts)
		if err != nil {
			return i, fmt.Errorf("failed to read %s: %w", path, err)
		}

		readErr := src.ReadBatches(fileCols, func(b *column.Batch) error {
			if wantFile {
				tagged, err := withFileColumn(b, path, columns)
				if err != nil {
					return err
				}
				b = tagged
			}
			return fn(b)
		})
		closeErr := src.Close()

		// Preserve the first error encountered
		if readErr != nil {
			return i + 1, fmt.Errorf("failed to read rows from %s: %w", path, readErr)
		}
		if closeErr != nil {
			return i + 1, fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}
	return len(matches), nil
}

// Fields returns the columns ReadMultipleFiles produces for pattern, taken
// from the first matching file. Glob patterns add "_file".
func Fields(pattern string, opts Options) ([]column.Field, error) {
	path := pattern
	if IsGlob(pattern) {
		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, err
		}
		path = matches[0]
	}

	src, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fields := src.Fields()
	if IsGlob(pattern) {
		fields = append(fields, column.Field{Name: "_file", Type: column.Utf8})
	}
	return fields, nil
}

func expandGlob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}
	return matches, nil
}

// IsGlob reports whether pattern contains wildcard characters
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]")
}

// splitFileColumn removes "_file" from a projection. wantFile is true when
// the caller selected every column or named "_file" explicitly.
func splitFileColumn(columns []string) (rest []string, wantFile bool) {
	if columns == nil {
		return nil, true
	}
	rest = make([]string, 0, len(columns))
	for _, c := range columns {
		if c == "_file" {
			wantFile = true
			continue
		}
		rest = append(rest, c)
	}
	return rest, wantFile
}

// withFileColumn appends the "_file" column, keeping the requested order
// when the caller projected it explicitly.
func withFileColumn(b *column.Batch, path string, columns []string) (*column.Batch, error) {
	file, err := column.Broadcast(column.Utf8, path, b.NumRows())
	if err != nil {
		return nil, err
	}

	if columns == nil {
		names := append(b.Names(), "_file")
		cols := make([]column.Column, 0, len(names))
		for i := 0; i < b.NumColumns(); i++ {
			cols = append(cols, b.Column(i))
		}
		return column.NewBatch(names, append(cols, file))
	}

	cols := make([]column.Column, len(columns))
	for i, name := range columns {
		if name == "_file" {
			cols[i] = file
			continue
		}
		c, ok := b.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		cols[i] = c
	}
	return column.NewBatch(columns, cols)
}
