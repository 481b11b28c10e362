// Package composition computes the GC content of nucleotide sequences.
//
// Every byte of a sequence is classified before it is counted:
//
//   - G, g, C, c count toward both the GC count and the total
//   - N, n are unknown bases and are excluded from both counts
//   - line feeds and carriage returns are separators and are excluded
//   - any other byte counts toward the total only
//
// GC content is GC/total*100. A sequence with no informative bases has no
// defined GC content; Compute reports this with ok == false so that callers
// can tell it apart from a genuine 0%.
//
// # Scalar Form
//
// ComputeColumn maps a text column to a float column element by element.
// Null inputs produce null outputs. The Policy decides whether an undefined
// result is emitted as NULL (the default) or as 0.0.
//
// # Aggregate Form
//
// An Accumulator folds many sequences into one result. Partial accumulators
// built over disjoint batches may be merged in any order and grouping; the
// final value is the ratio of the summed counts, not the mean of per-row
// ratios:
//
//	var a, b composition.Accumulator
//	a.Update([]byte("GC"))
//	b.Update([]byte("AAAA"))
//	a.Merge(&b)
//	pct, ok, err := a.Finalize() // 33.33..., true, nil
package composition
