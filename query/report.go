package query

import (
	"fmt"
	"strings"
)

// GCReportColumns are the columns produced by GCReportQuery
var GCReportColumns = []string{"id", "G_count", "C_count", "GC_count", "len", "GC_content"}

// GCReportQuery returns a query listing, for every record of a sequence
// file, its G, C and GC counts, its length and its GC content.
func GCReportQuery(path string) string {
	return fmt.Sprintf("SELECT id, g_count(sequence) AS G_count, c_count(sequence) AS C_count, "+
		"gc_count(sequence) AS GC_count, seq_length(sequence) AS len, gc_content(sequence) AS GC_content "+
		"FROM %s", quoteTable(path))
}

// SelectAllQuery returns a query reading every column of path
func SelectAllQuery(path string) string {
	return "SELECT * FROM " + quoteTable(path)
}

func quoteTable(path string) string {
	return "'" + strings.ReplaceAll(path, "'", "''") + "'"
}
