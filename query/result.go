package query

import (
	"time"

	"github.com/vegasq/seqcat/column"
)

// Result is the output of one query
type Result struct {
	// Columns lists the output column names in select order
	Columns []string
	Batch   *column.Batch
	Stats   Stats
}

// Rows returns the result as one map per row, keyed by column name. NULL
// values are nil.
func (r *Result) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, r.Batch.NumRows())
	for i := range rows {
		rows[i] = r.Batch.Row(i)
	}
	return rows
}

// Stats describes one query execution
type Stats struct {
	QueryID      string
	Files        int
	Batches      int
	RowsScanned  int64
	RowsReturned int64
	Duration     time.Duration
}
