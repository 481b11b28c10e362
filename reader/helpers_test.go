package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/seqcat/column"
)

type readRow struct {
	ID       int64   `parquet:"id"`
	Sequence *string `parquet:"sequence,optional"`
	Score    float32 `parquet:"score"`
	Paired   bool    `parquet:"paired"`
}

func strPtr(s string) *string { return &s }

// writeParquet writes rows to dir/name, one row group per call to Flush
// after every groupSize rows (0 means a single row group).
func writeParquet[T any](t *testing.T, dir, name string, rows []T, groupSize int) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	writer := parquet.NewGenericWriter[T](f)
	if groupSize <= 0 {
		groupSize = len(rows)
	}
	for start := 0; start < len(rows); start += groupSize {
		end := start + groupSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := writer.Write(rows[start:end]); err != nil {
			t.Fatalf("failed to write test data: %v", err)
		}
		if err := writer.Flush(); err != nil {
			t.Fatalf("failed to flush row group: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
	return path
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// collect reads every batch and concatenates them.
func collect(t *testing.T, read func(fn func(*column.Batch) error) error) (*column.Batch, int) {
	t.Helper()
	var batches []*column.Batch
	if err := read(func(b *column.Batch) error {
		batches = append(batches, b)
		return nil
	}); err != nil {
		t.Fatalf("read error = %v", err)
	}
	all, err := column.ConcatBatches(batches)
	if err != nil {
		t.Fatalf("ConcatBatches() error = %v", err)
	}
	return all, len(batches)
}
