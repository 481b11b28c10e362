package reader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/vegasq/seqcat/column"
)

const testFASTQ = `@read1 sample=A
GCGCGC
+
IIIIII
@read2
ATATAT
+read2
IIIIII

@read3 lane 2
GATTACA
+
IIIIIII
`

const testFASTA = `>chr1 first contig
GATT
ACA
>chr2
NNNN
>empty
`

func TestDetectSequenceFormat(t *testing.T) {
	tests := []struct {
		path   string
		want   SequenceFormat
		wantOk bool
	}{
		{"reads.fastq", FASTQ, true},
		{"reads.FQ.gz", FASTQ, true},
		{"genome.fa.zst", FASTA, true},
		{"genome.fna", FASTA, true},
		{"contigs.fasta.lz4", FASTA, true},
		{"table.parquet", 0, false},
		{"reads.gz", 0, false},
	}
	for _, tt := range tests {
		got, ok := DetectSequenceFormat(tt.path)
		if ok != tt.wantOk || (ok && got != tt.want) {
			t.Errorf("DetectSequenceFormat(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOk)
		}
	}
}

func readSequenceFile(t *testing.T, path string, columns []string, opts Options) (*column.Batch, int) {
	t.Helper()
	src, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = src.Close() }()
	return collect(t, func(fn func(*column.Batch) error) error {
		return src.ReadBatches(columns, fn)
	})
}

func TestSequenceReader_FASTQ(t *testing.T) {
	path := writeText(t, t.TempDir(), "reads.fastq", testFASTQ)

	got, _ := readSequenceFile(t, path, nil, Options{})
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}

	want := []map[string]interface{}{
		{"id": "read1", "description": "sample=A", "sequence": "GCGCGC", "quality": "IIIIII"},
		{"id": "read2", "description": "", "sequence": "ATATAT", "quality": "IIIIII"},
		{"id": "read3", "description": "lane 2", "sequence": "GATTACA", "quality": "IIIIIII"},
	}
	for i, w := range want {
		row := got.Row(i)
		for k, v := range w {
			if row[k] != v {
				t.Errorf("row %d %s = %v, want %v", i, k, row[k], v)
			}
		}
	}
}

func TestSequenceReader_FASTA(t *testing.T) {
	path := writeText(t, t.TempDir(), "contigs.fa", testFASTA)

	got, _ := readSequenceFile(t, path, []string{"id", "sequence"}, Options{})
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}
	seq := got.Column(1)
	if seq.Value(0) != "GATTACA" {
		t.Errorf("chr1 sequence = %v, want GATTACA (lines joined)", seq.Value(0))
	}
	if seq.Value(2) != "" {
		t.Errorf("empty record sequence = %q, want empty", seq.Value(2))
	}
	if _, ok := got.ColumnByName("quality"); ok {
		t.Errorf("FASTA projection should not contain quality")
	}
}

func TestSequenceReader_Batching(t *testing.T) {
	path := writeText(t, t.TempDir(), "reads.fq", testFASTQ)

	got, batches := readSequenceFile(t, path, []string{"id"}, Options{BatchSize: 2})
	if batches != 2 {
		t.Errorf("batches = %d, want 2", batches)
	}
	if got.NumRows() != 3 {
		t.Errorf("rows = %d, want 3", got.NumRows())
	}
}

func TestSequenceReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		columns []string
		want    error
	}{
		{"missing plus", "bad.fastq", "@r1\nACGT\nIIII\n", nil, nil},
		{"quality length", "bad.fastq", "@r1\nACGT\n+\nII\n", nil, nil},
		{"no header", "bad.fastq", "ACGT\n", nil, nil},
		{"fasta data before header", "bad.fa", "ACGT\n>r1\n", nil, nil},
		{"unknown column", "ok.fa", ">r1\nAC\n", []string{"quality"}, ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeText(t, t.TempDir(), tt.file, tt.content)
			src, err := Open(path, Options{})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer func() { _ = src.Close() }()

			err = src.ReadBatches(tt.columns, func(*column.Batch) error { return nil })
			if err == nil {
				t.Fatal("ReadBatches() expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ReadBatches() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSequenceReader_Compressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(testFASTQ))
	_ = gw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatalf("zstd.NewWriter() error = %v", err)
	}
	_, _ = zw.Write([]byte(testFASTQ))
	_ = zw.Close()

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, _ = lw.Write([]byte(testFASTQ))
	_ = lw.Close()

	files := map[string][]byte{
		"reads.fastq.gz":  gz.Bytes(),
		"reads.fq.zst":    zs.Bytes(),
		"reads.fastq.lz4": lz.Bytes(),
		// gzip content without the suffix is still detected by magic number
		"sniffed.fastq": gz.Bytes(),
	}

	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			got, _ := readSequenceFile(t, path, []string{"sequence"}, Options{})
			if got.NumRows() != 3 || got.Column(0).Value(2) != "GATTACA" {
				t.Errorf("rows = %d, last = %v; want 3, GATTACA", got.NumRows(), got.Column(0).Value(2))
			}
		})
	}
}
