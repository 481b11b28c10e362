package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/composition"
	"github.com/vegasq/seqcat/reader"
)

func assertFloat(t *testing.T, label string, got interface{}, want float64) {
	t.Helper()
	v, ok := got.(float64)
	if !ok || math.Abs(v-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

func TestSession_ScalarGCContent(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	res := run(t, Options{}, fmt.Sprintf("SELECT id, gc_content(sequence) AS gc FROM '%s'", path))
	rows := res.Rows()
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if res.Columns[0] != "id" || res.Columns[1] != "gc" {
		t.Errorf("columns = %v", res.Columns)
	}

	assertFloat(t, "r1", rows[0]["gc"], 100)
	if rows[1]["gc"] != nil {
		t.Errorf("r2 = %v, want NULL", rows[1]["gc"])
	}
	assertFloat(t, "r3", rows[2]["gc"], 0)
	assertFloat(t, "r4", rows[3]["gc"], 200.0/7.0)
}

func TestSession_AggregateGCContent(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	t.Run("whole table", func(t *testing.T) {
		res := run(t, Options{}, fmt.Sprintf("SELECT gc_content(sequence) AS gc, COUNT(*) AS n FROM '%s'", path))
		rows := res.Rows()
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		// 8 G/C among 19 informative bases
		assertFloat(t, "gc", rows[0]["gc"], 800.0/19.0)
		if rows[0]["n"] != int64(4) {
			t.Errorf("n = %v, want 4", rows[0]["n"])
		}
	})

	t.Run("grouped", func(t *testing.T) {
		res := run(t, Options{}, fmt.Sprintf(
			"SELECT sample, gc_content(sequence) AS gc FROM '%s' GROUP BY sample ORDER BY sample", path))
		rows := res.Rows()
		if len(rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(rows))
		}
		if rows[0]["sample"] != "s1" || rows[1]["sample"] != "s2" {
			t.Errorf("samples = %v, %v", rows[0]["sample"], rows[1]["sample"])
		}
		assertFloat(t, "s1", rows[0]["gc"], 100)
		assertFloat(t, "s2", rows[1]["gc"], 200.0/13.0)
	})
}

func TestSession_AggregateIsPooledNotMean(t *testing.T) {
	rows := []SequenceRow{
		{ID: "a", Sample: "s", Sequence: strPtr("GC")},
		{ID: "b", Sample: "s", Sequence: strPtr("AAAA")},
	}
	path := createSequenceParquetFile(t, t.TempDir(), "pooled.parquet", rows, 0)

	res := run(t, Options{}, fmt.Sprintf("SELECT gc_content(sequence) AS gc FROM '%s' GROUP BY sample", path))
	assertFloat(t, "gc", res.Rows()[0]["gc"], 100.0/3.0)
}

func TestSession_UndefinedPolicy(t *testing.T) {
	rows := []SequenceRow{{ID: "n", Sample: "s", Sequence: strPtr("NNNN")}}
	path := createSequenceParquetFile(t, t.TempDir(), "n.parquet", rows, 0)

	scalar := fmt.Sprintf("SELECT gc_content(sequence) AS gc FROM '%s'", path)
	aggregate := fmt.Sprintf("SELECT gc_content(sequence) AS gc, COUNT(*) AS n FROM '%s'", path)

	for _, sql := range []string{scalar, aggregate} {
		if got := run(t, Options{Policy: composition.PolicyNull}, sql).Rows()[0]["gc"]; got != nil {
			t.Errorf("PolicyNull: %q = %v, want NULL", sql, got)
		}
		if got := run(t, Options{Policy: composition.PolicyZero}, sql).Rows()[0]["gc"]; got != 0.0 {
			t.Errorf("PolicyZero: %q = %v, want 0", sql, got)
		}
	}
}

func TestSession_EmptyInput(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	res := run(t, Options{}, fmt.Sprintf(
		"SELECT COUNT(*) AS n, gc_content(sequence) AS gc FROM '%s' WHERE quality > 100", path))
	rows := res.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["n"] != int64(0) || rows[0]["gc"] != nil {
		t.Errorf("row = %v, want n=0 gc=NULL", rows[0])
	}

	res = run(t, Options{}, fmt.Sprintf(
		"SELECT sample, gc_content(sequence) FROM '%s' WHERE quality > 100 GROUP BY sample", path))
	if n := res.Batch.NumRows(); n != 0 {
		t.Errorf("grouped empty input returned %d rows, want 0", n)
	}
}

func TestSession_ParallelDeterminism(t *testing.T) {
	var rows []SequenceRow
	seqs := []string{"GCGCGC", "ATATAT", "GATTACA", "NNNN", "GGGGCA", "ATGCATGC", "CCCA"}
	for i := 0; i < 70; i++ {
		rows = append(rows, SequenceRow{
			ID:       fmt.Sprintf("r%02d", i),
			Sample:   fmt.Sprintf("s%d", i%3),
			Sequence: strPtr(seqs[i%len(seqs)]),
			Quality:  int64(i),
		})
	}
	path := createSequenceParquetFile(t, t.TempDir(), "many.parquet", rows, 4)

	queries := []string{
		fmt.Sprintf("SELECT id, gc_content(sequence) FROM '%s' WHERE quality > 10", path),
		fmt.Sprintf("SELECT sample, gc_content(sequence), COUNT(*) FROM '%s' GROUP BY sample", path),
		fmt.Sprintf("SELECT gc_content(sequence) FROM '%s' GROUP BY sample HAVING COUNT(*) > 20", path),
	}
	for _, sql := range queries {
		serial := run(t, Options{Parallelism: 1}, sql).Rows()
		parallel := run(t, Options{Parallelism: 4}, sql).Rows()
		if len(serial) != len(parallel) {
			t.Fatalf("%q: %d rows serially, %d in parallel", sql, len(serial), len(parallel))
		}
		for i := range serial {
			if fmt.Sprint(serial[i]) != fmt.Sprint(parallel[i]) {
				t.Errorf("%q row %d: serial %v, parallel %v", sql, i, serial[i], parallel[i])
			}
		}
	}
}

func TestSession_TypeMismatch(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	queries := []string{
		fmt.Sprintf("SELECT gc_content(quality) FROM '%s'", path),
		fmt.Sprintf("SELECT gc_content(quality) FROM '%s' GROUP BY sample", path),
		fmt.Sprintf("SELECT gc_content('GC') FROM '%s'", path),
	}
	for _, sql := range queries {
		_, err := NewSession(Options{}).Execute(context.Background(), sql)
		if !errors.Is(err, column.ErrTypeMismatch) {
			t.Errorf("%q error = %v, want ErrTypeMismatch", sql, err)
		}
	}
}

func TestSession_PlanErrors(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	tests := []struct {
		name string
		sql  string
	}{
		{"unknown function", "SELECT nope(sequence) FROM '%s'"},
		{"ungrouped column", "SELECT id, COUNT(*) FROM '%s' GROUP BY sample"},
		{"star with aggregate", "SELECT *, COUNT(*) FROM '%s'"},
		{"nested aggregate", "SELECT SUM(COUNT(*)) FROM '%s'"},
		{"aggregate in WHERE", "SELECT id FROM '%s' WHERE COUNT(*) > 1"},
		{"scalar star", "SELECT UPPER(*) FROM '%s'"},
		{"wrong arity", "SELECT gc_content(sequence, id) FROM '%s'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(Options{}).Execute(context.Background(), fmt.Sprintf(tt.sql, path)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := NewSession(Options{}).Execute(context.Background(), fmt.Sprintf("SELECT missing FROM '%s'", path))
	if !errors.Is(err, reader.ErrColumnNotFound) {
		t.Errorf("missing column error = %v, want ErrColumnNotFound", err)
	}
}

func TestSession_Isolation(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	custom := NewSession(Options{})
	custom.Registry().RegisterScalar(stringFunc("shout", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
		return args[0].(string) + "!", nil
	}))

	sql := fmt.Sprintf("SELECT shout(id) AS s FROM '%s' LIMIT 1", path)
	res, err := custom.Execute(context.Background(), sql)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := res.Rows()[0]["s"]; got != "r1!" {
		t.Errorf("shout(id) = %v, want r1!", got)
	}

	if _, err := NewSession(Options{}).Execute(context.Background(), sql); err == nil {
		t.Error("function registered in one session is visible in another")
	}
}

func TestSession_FilterOrderLimit(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"gc filter", "SELECT id FROM '%s' WHERE gc_content(sequence) > 20", []string{"r1", "r4"}},
		{"null sequence", "SELECT id FROM '%s' WHERE sequence IS NULL", []string{"r2"}},
		{"like", "SELECT id FROM '%s' WHERE sequence LIKE 'GA%%'", []string{"r4"}},
		{"in", "SELECT id FROM '%s' WHERE sample IN ('s2')", []string{"r3", "r4"}},
		{"between", "SELECT id FROM '%s' WHERE quality BETWEEN 20 AND 30", []string{"r1", "r4"}},
		{"order desc limit", "SELECT id, gc_content(sequence) AS gc FROM '%s' ORDER BY gc DESC LIMIT 2", []string{"r1", "r4"}},
		{"order by unselected", "SELECT id FROM '%s' ORDER BY quality", []string{"r2", "r4", "r1", "r3"}},
		{"offset", "SELECT id FROM '%s' LIMIT 2 OFFSET 1", []string{"r2", "r3"}},
		{"or", "SELECT id FROM '%s' WHERE id = 'r1' OR quality < 20", []string{"r1", "r2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := run(t, Options{}, fmt.Sprintf(tt.sql, path)).Rows()
			var got []string
			for _, r := range rows {
				got = append(got, r["id"].(string))
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_HavingAlias(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	res := run(t, Options{}, fmt.Sprintf(
		"SELECT sample, gc_content(sequence) AS gc FROM '%s' GROUP BY sample HAVING gc > 50", path))
	rows := res.Rows()
	if len(rows) != 1 || rows[0]["sample"] != "s1" {
		t.Errorf("rows = %v, want only s1", rows)
	}
}

func TestSession_ScalarInsideAggregate(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	res := run(t, Options{}, fmt.Sprintf(
		"SELECT sample, AVG(gc_content(sequence)) AS mean FROM '%s' GROUP BY sample ORDER BY sample", path))
	rows := res.Rows()
	assertFloat(t, "s1", rows[0]["mean"], 100)
	assertFloat(t, "s2", rows[1]["mean"], 100.0/7.0)
}

func TestSession_SequenceFilesGlob(t *testing.T) {
	dir := t.TempDir()
	createTextFile(t, dir, "a.fastq", "@a1 lane1\nGCGC\n+\nIIII\n@a2\nATAT\n+\nIIII\n")
	createTextFile(t, dir, "b.fastq", "@b1\nGGGA\n+\nIIII\n")

	pattern := filepath.Join(dir, "*.fastq")
	res := run(t, Options{}, fmt.Sprintf(
		"SELECT _file, gc_content(sequence) AS gc, COUNT(*) AS n FROM '%s' GROUP BY _file ORDER BY _file", pattern))
	rows := res.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["_file"] != filepath.Join(dir, "a.fastq") {
		t.Errorf("_file = %v", rows[0]["_file"])
	}
	assertFloat(t, "a.fastq", rows[0]["gc"], 50)
	assertFloat(t, "b.fastq", rows[1]["gc"], 75)
	if rows[0]["n"] != int64(2) || rows[1]["n"] != int64(1) {
		t.Errorf("counts = %v, %v", rows[0]["n"], rows[1]["n"])
	}
	if res.Stats.Files != 2 {
		t.Errorf("Stats.Files = %d, want 2", res.Stats.Files)
	}
}

func TestSession_GCReport(t *testing.T) {
	dir := t.TempDir()
	path := createTextFile(t, dir, "reads.fa", ">chr1 test\nGCGC\nAATT\n>chr2\nNNNN\n")

	res := run(t, Options{}, GCReportQuery(path))
	if fmt.Sprint(res.Columns) != fmt.Sprint(GCReportColumns) {
		t.Errorf("columns = %v, want %v", res.Columns, GCReportColumns)
	}
	rows := res.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	first := rows[0]
	if first["id"] != "chr1" || first["G_count"] != int64(2) || first["C_count"] != int64(2) ||
		first["GC_count"] != int64(4) || first["len"] != int64(8) {
		t.Errorf("chr1 = %v", first)
	}
	assertFloat(t, "chr1 GC_content", first["GC_content"], 50)
	if rows[1]["GC_content"] != nil {
		t.Errorf("chr2 GC_content = %v, want NULL", rows[1]["GC_content"])
	}
}

func TestSession_Cancelled(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSession(Options{}).Execute(ctx, fmt.Sprintf("SELECT id FROM '%s'", path))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSession_Stats(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 2)

	res := run(t, Options{}, fmt.Sprintf("SELECT id FROM '%s' WHERE quality > 20", path))
	if _, err := uuid.Parse(res.Stats.QueryID); err != nil {
		t.Errorf("QueryID %q is not a UUID: %v", res.Stats.QueryID, err)
	}
	if res.Stats.Files != 1 {
		t.Errorf("Files = %d, want 1", res.Stats.Files)
	}
	if res.Stats.Batches < 2 {
		t.Errorf("Batches = %d, want one per row group", res.Stats.Batches)
	}
	if res.Stats.RowsScanned != 4 || res.Stats.RowsReturned != 3 {
		t.Errorf("RowsScanned = %d, RowsReturned = %d; want 4, 3", res.Stats.RowsScanned, res.Stats.RowsReturned)
	}
}

func TestSession_SelectStar(t *testing.T) {
	path := createSequenceParquetFile(t, t.TempDir(), "reads.parquet", basicSequenceRows(), 0)

	res := run(t, Options{}, fmt.Sprintf("SELECT * FROM '%s'", path))
	if fmt.Sprint(res.Columns) != "[id sample sequence quality]" {
		t.Errorf("columns = %v", res.Columns)
	}
	if res.Batch.NumRows() != 4 {
		t.Errorf("rows = %d, want 4", res.Batch.NumRows())
	}
}
