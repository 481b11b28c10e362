package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	if err != nil {
		t.Fatalf("Format() produced invalid CSV: %v", err)
	}
	return records
}

func TestCSVFormatter_Format(t *testing.T) {
	columns := []string{"id", "gc", "len"}
	tests := []struct {
		name      string
		rows      []map[string]interface{}
		wantLines int
	}{
		{
			name:      "empty rows",
			rows:      []map[string]interface{}{},
			wantLines: 1, // header only
		},
		{
			name: "single row",
			rows: []map[string]interface{}{
				{"id": "r1", "gc": 50.0, "len": int64(4)},
			},
			wantLines: 2,
		},
		{
			name: "multiple rows",
			rows: []map[string]interface{}{
				{"id": "r1", "gc": 50.0, "len": int64(4)},
				{"id": "r2", "gc": nil, "len": int64(0)},
			},
			wantLines: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewCSVFormatter(&buf).Format(columns, tt.rows); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			records := readCSV(t, buf.String())
			if len(records) != tt.wantLines {
				t.Errorf("Format() produced %d lines, want %d", len(records), tt.wantLines)
			}
		})
	}
}

func TestCSVFormatter_ColumnOrder(t *testing.T) {
	// Columns follow the select order, not map order
	columns := []string{"z_last", "a_first", "m_middle"}
	rows := []map[string]interface{}{
		{"z_last": "value1", "a_first": "value2", "m_middle": "value3"},
	}

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(columns, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	records := readCSV(t, buf.String())
	if strings.Join(records[0], ",") != "z_last,a_first,m_middle" {
		t.Errorf("header = %v", records[0])
	}
	if strings.Join(records[1], ",") != "value1,value2,value3" {
		t.Errorf("row = %v", records[1])
	}
}

func TestCSVFormatter_TypeFormatting(t *testing.T) {
	columns := []string{"string", "int", "float", "bool", "nil"}
	rows := []map[string]interface{}{
		{"string": "alice", "int": int64(42), "float": 28.125, "bool": true, "nil": nil},
	}

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(columns, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := readCSV(t, buf.String())[1]
	want := []string{"alice", "42", "28.125", "true", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %q, want %q", columns[i], got[i], want[i])
		}
	}
}

func TestCSVFormatter_SpecialCharacters(t *testing.T) {
	columns := []string{"name", "quote", "newline"}
	rows := []map[string]interface{}{
		{"name": "Alice, Bob", "quote": `He said "hello"`, "newline": "line1\nline2"},
	}

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(columns, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := readCSV(t, buf.String())[1]
	if got[0] != "Alice, Bob" {
		t.Errorf("comma in value not handled correctly: %q", got[0])
	}
	if got[1] != `He said "hello"` {
		t.Errorf("quotes in value not handled correctly: %q", got[1])
	}
	if got[2] != "line1\nline2" {
		t.Errorf("newline in value not handled correctly: %q", got[2])
	}
}

func TestCSVFormatter_Injection(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+1", "'+1"},
		{"-ACGT", "'-ACGT"},
		{"@cmd", "'@cmd"},
		{"|x'y", "'|x''y"},
		{"ACGT", "ACGT"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCSVFormatter_SetOutput(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	formatter := NewCSVFormatter(&buf1)

	columns := []string{"id"}
	rows := []map[string]interface{}{{"id": "r1"}}

	if err := formatter.Format(columns, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf1.Len() == 0 {
		t.Error("First buffer should have content")
	}

	formatter.SetOutput(&buf2)
	if err := formatter.Format(columns, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf2.Len() == 0 {
		t.Error("Second buffer should have content")
	}
}
