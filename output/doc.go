// Package output writes query results in the formats supported by seqcat.
//
// Every formatter receives the output column names in select order and the
// rows as maps keyed by those names:
//
//   - jsonl: one JSON object per line (suitable for streaming)
//   - json: a single JSON array
//   - csv: a header row followed by one record per row
//   - table: an aligned text table for terminals
//
// Example usage:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(res.Columns, res.Rows()); err != nil {
//	    log.Fatal(err)
//	}
//
// NULL values are written as JSON null, an empty CSV field, or NULL in a
// table. CSV string fields that a spreadsheet would evaluate as a formula
// are prefixed with a single quote.
package output
