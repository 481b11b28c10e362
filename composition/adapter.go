package composition

import (
	"fmt"

	"github.com/vegasq/seqcat/column"
)

// ComputeColumn returns the GC content of every element of col. The output
// has the same length and order as col; null inputs give null outputs.
// col must be a text column.
func ComputeColumn(col column.Column, policy Policy) (*column.Float64s, error) {
	seqs, ok := col.(*column.Strings)
	if !ok {
		return nil, fmt.Errorf("%w: gc_content expects %v, got %v", column.ErrTypeMismatch, column.Utf8, col.Type())
	}

	n := seqs.Len()
	out := column.NewFloat64sBuilder(n)
	for i := 0; i < n; i++ {
		if seqs.IsNull(i) {
			out.AppendNull()
			continue
		}
		v, valid := policy.Resolve(Compute(seqs.Bytes(i)))
		if !valid {
			out.AppendNull()
			continue
		}
		out.Append(v)
	}
	return out.Finish(), nil
}

// CountColumn returns the per-element base counts of a text column. The
// returned valid slice is false at null positions.
func CountColumn(col column.Column) (counts []Counts, valid []bool, err error) {
	seqs, ok := col.(*column.Strings)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected %v, got %v", column.ErrTypeMismatch, column.Utf8, col.Type())
	}

	n := seqs.Len()
	counts = make([]Counts, n)
	valid = make([]bool, n)
	for i := 0; i < n; i++ {
		if seqs.IsNull(i) {
			continue
		}
		counts[i] = Count(seqs.Bytes(i))
		valid[i] = true
	}
	return counts, valid, nil
}
