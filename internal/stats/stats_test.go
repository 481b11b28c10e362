package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/vegasq/seqcat/query"
)

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seqcat.prom")

	s := query.Stats{
		QueryID:      "0b6c4a1e-6d1f-4d0e-9d3c-1f2e3a4b5c6d",
		Files:        3,
		Batches:      12,
		RowsScanned:  4096,
		RowsReturned: 10,
		Duration:     1500 * time.Millisecond,
	}
	if err := Write(path, "runs/*.fastq.gz", s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		t.Fatalf("output is not valid exposition format: %v", err)
	}

	want := map[string]float64{
		"seqcat_query_duration_seconds": 1.5,
		"seqcat_query_files":            3,
		"seqcat_query_batches":          12,
		"seqcat_query_rows_scanned":     4096,
		"seqcat_query_rows_returned":    10,
	}
	for name, v := range want {
		mf, ok := families[name]
		if !ok {
			t.Errorf("missing family %s", name)
			continue
		}
		m := mf.GetMetric()[0]
		if got := m.GetGauge().GetValue(); got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
		if l := m.GetLabel(); len(l) != 1 || l[0].GetName() != "table" || l[0].GetValue() != "runs/*.fastq.gz" {
			t.Errorf("%s labels = %v", name, l)
		}
	}
	if _, ok := families["seqcat_query_last_run_timestamp_seconds"]; !ok {
		t.Error("missing last run timestamp")
	}

	// No temporary files are left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWrite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "seqcat.prom")
	if err := Write(path, "t", query.Stats{}); err == nil {
		t.Error("expected error for missing directory")
	}
}
