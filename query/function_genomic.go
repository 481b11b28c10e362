package query

import (
	"fmt"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/composition"
)

// gcContentFunc is the scalar form of gc_content: the percentage of G and C
// among the informative bases of each sequence.
type gcContentFunc struct {
	policy composition.Policy
}

func (f *gcContentFunc) Name() string           { return "gc_content" }
func (f *gcContentFunc) MinArity() int          { return 1 }
func (f *gcContentFunc) MaxArity() int          { return 1 }
func (f *gcContentFunc) Volatility() Volatility { return Immutable }

func (f *gcContentFunc) ReturnType(args []column.DataType) (column.DataType, error) {
	if args[0] != column.Utf8 {
		return 0, fmt.Errorf("%w: expected %v argument, got %v", column.ErrTypeMismatch, column.Utf8, args[0])
	}
	return column.Float64, nil
}

func (f *gcContentFunc) Invoke(args []column.Datum, numRows int) (column.Datum, error) {
	if len(args) != 1 {
		return column.Datum{}, fmt.Errorf("gc_content: expected 1 argument, got %d", len(args))
	}
	if args[0].IsScalar() {
		return column.Datum{}, fmt.Errorf("%w: gc_content expected column, got scalar", column.ErrTypeMismatch)
	}
	out, err := composition.ComputeColumn(args[0].Column, f.policy)
	if err != nil {
		return column.Datum{}, err
	}
	return column.ColumnDatum(out), nil
}

// countFunc returns one Int64 measurement per sequence
type countFunc struct {
	name    string
	measure func(seq []byte) uint64
}

func (f *countFunc) Name() string           { return f.name }
func (f *countFunc) MinArity() int          { return 1 }
func (f *countFunc) MaxArity() int          { return 1 }
func (f *countFunc) Volatility() Volatility { return Immutable }

func (f *countFunc) ReturnType(args []column.DataType) (column.DataType, error) {
	if args[0] != column.Utf8 {
		return 0, fmt.Errorf("%w: expected %v argument, got %v", column.ErrTypeMismatch, column.Utf8, args[0])
	}
	return column.Int64, nil
}

func (f *countFunc) Invoke(args []column.Datum, numRows int) (column.Datum, error) {
	col, err := args[0].Expand(numRows)
	if err != nil {
		return column.Datum{}, err
	}
	seqs, ok := col.(*column.Strings)
	if !ok {
		return column.Datum{}, fmt.Errorf("%w: %s expects %v, got %v", column.ErrTypeMismatch, f.name, column.Utf8, col.Type())
	}

	b := &column.Int64sBuilder{}
	for i := 0; i < seqs.Len(); i++ {
		if seqs.IsNull(i) {
			b.AppendNull()
			continue
		}
		b.Append(int64(f.measure(seqs.Bytes(i))))
	}
	return column.ColumnDatum(b.Finish()), nil
}

var complement [256]byte

func init() {
	for _, pair := range []string{"AT", "CG", "RY", "SS", "WW", "KM", "BV", "DH", "NN"} {
		a, b := pair[0], pair[1]
		complement[a], complement[b] = b, a
		complement[a+'a'-'A'], complement[b+'a'-'A'] = b+'a'-'A', a+'a'-'A'
	}
	complement['U'], complement['u'] = 'A', 'a'
}

// reverseComplement returns the reverse complement of seq, preserving case.
// Unknown bytes become N.
func reverseComplement(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

func genomicFunctions(policy composition.Policy) []Function {
	return []Function{
		&gcContentFunc{policy: policy},
		&countFunc{name: "gc_count", measure: func(seq []byte) uint64 { return composition.Count(seq).GC() }},
		&countFunc{name: "g_count", measure: func(seq []byte) uint64 { return composition.Count(seq).G }},
		&countFunc{name: "c_count", measure: func(seq []byte) uint64 { return composition.Count(seq).C }},
		&countFunc{name: "seq_length", measure: composition.Length},
		stringFunc("reverse_complement", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
			seq, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected %v, got %T", column.ErrTypeMismatch, column.Utf8, args[0])
			}
			return reverseComplement(seq), nil
		}),
	}
}

// RegisterBuiltins registers every built-in scalar and aggregate function in
// r. policy controls how gc_content reports sequences with no informative
// bases.
func RegisterBuiltins(r *FunctionRegistry, policy composition.Policy) {
	for _, f := range stringFunctions() {
		r.RegisterScalar(f)
	}
	for _, f := range mathFunctions() {
		r.RegisterScalar(f)
	}
	r.RegisterScalar(coalesceFunc())
	r.RegisterScalar(nullIfFunc())
	for _, f := range genomicFunctions(policy) {
		r.RegisterScalar(f)
	}

	for _, f := range aggregateFunctions(policy) {
		r.RegisterAggregate(f)
	}
}
