package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// SequenceRow is a sequencing read stored in Parquet
type SequenceRow struct {
	ID       string  `parquet:"id"`
	Sample   string  `parquet:"sample"`
	Sequence *string `parquet:"sequence,optional"`
	Quality  int64   `parquet:"quality"`
}

func strPtr(s string) *string { return &s }

// createSequenceParquetFile writes rows to dir/name, starting a new row group
// every groupSize rows (0 writes a single row group)
func createSequenceParquetFile(t *testing.T, dir, name string, rows []SequenceRow, groupSize int) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer func() { _ = f.Close() }()

	writer := parquet.NewGenericWriter[SequenceRow](f)
	if groupSize <= 0 {
		groupSize = len(rows)
	}
	for start := 0; start < len(rows); start += groupSize {
		end := min(start+groupSize, len(rows))
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

	return path
}

// basicSequenceRows has two samples and one null sequence
func basicSequenceRows() []SequenceRow {
	return []SequenceRow{
		{ID: "r1", Sample: "s1", Sequence: strPtr("GCGCGC"), Quality: 30},
		{ID: "r2", Sample: "s1", Sequence: nil, Quality: 12},
		{ID: "r3", Sample: "s2", Sequence: strPtr("ATATAT"), Quality: 35},
		{ID: "r4", Sample: "s2", Sequence: strPtr("GATTACA"), Quality: 28},
	}
}

func createTextFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// run executes sql in a fresh session and returns the rows
func run(t *testing.T, opts Options, sql string) *Result {
	t.Helper()
	res, err := NewSession(opts).Execute(context.Background(), sql)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", sql, err)
	}
	return res
}
