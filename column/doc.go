// Package column provides the columnar data model used by the query engine.
//
// A Column holds the values of one field for a run of rows together with a
// validity mask. Variable-length text is stored Arrow-style: a single
// contiguous byte buffer plus an offsets slice, so that reading element i
// yields a view into the buffer rather than a freshly allocated string.
//
// # Types
//
//   - Utf8: variable-length text (Strings)
//   - Int64: signed 64-bit integers (Int64s)
//   - Float64: double precision floats (Float64s)
//   - Boolean: booleans (Bools)
//
// # Building Columns
//
//	b := column.NewStringsBuilder(3)
//	b.AppendString("GCGC")
//	b.AppendNull()
//	b.Append([]byte("ATAT"))
//	seqs := b.Finish()
//
// # Batches
//
// A Batch groups equally sized columns with their field names and types.
// Readers produce batches; the executor filters, projects and aggregates
// them; formatters consume the final batch row by row.
//
// # Datums
//
// Function arguments and results are passed as Datums: either a Column or a
// single scalar value that applies to every row.
package column
