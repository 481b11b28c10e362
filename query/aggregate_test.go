package query

import (
	"math"
	"testing"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/composition"
)

func aggregateByName(t *testing.T, policy composition.Policy, name string) AggregateFunction {
	t.Helper()
	r := NewFunctionRegistry()
	RegisterBuiltins(r, policy)
	f, ok := r.Aggregate(name)
	if !ok {
		t.Fatalf("aggregate %s not registered", name)
	}
	return f
}

func TestGCContentAggregate_PooledRatio(t *testing.T) {
	f := aggregateByName(t, composition.PolicyNull, "gc_content")
	acc := f.NewAccumulator()

	// 2 GC out of 6 informative bases, not the mean of 100% and 0%
	in := column.NewStrings([]string{"GC", "", "AAAA"}, []bool{true, false, true})
	if err := acc.Update(in, in.Len()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if v, _ := got.(float64); math.Abs(v-100.0/3.0) > 1e-9 {
		t.Errorf("gc_content = %v, want %v", got, 100.0/3.0)
	}
}

func TestGCContentAggregate_MergeMatchesSingleUpdate(t *testing.T) {
	f := aggregateByName(t, composition.PolicyNull, "gc_content")
	seqs := []string{"GGGC", "ATAT", "GATTACA", "NNGC", "CCAT"}

	whole := f.NewAccumulator()
	if err := whole.Update(column.NewStrings(seqs, nil), len(seqs)); err != nil {
		t.Fatal(err)
	}

	left := f.NewAccumulator()
	right := f.NewAccumulator()
	if err := left.Update(column.NewStrings(seqs[:2], nil), 2); err != nil {
		t.Fatal(err)
	}
	if err := right.Update(column.NewStrings(seqs[2:], nil), 3); err != nil {
		t.Fatal(err)
	}
	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	a, _ := whole.Finalize()
	b, _ := left.Finalize()
	if a != b {
		t.Errorf("merged = %v, single = %v", b, a)
	}
}

func TestGCContentAggregate_Undefined(t *testing.T) {
	in := column.NewStrings([]string{"NNNN", ""}, []bool{true, false})

	for _, tt := range []struct {
		policy composition.Policy
		want   interface{}
	}{
		{composition.PolicyNull, nil},
		{composition.PolicyZero, 0.0},
	} {
		acc := aggregateByName(t, tt.policy, "gc_content").NewAccumulator()
		if err := acc.Update(in, in.Len()); err != nil {
			t.Fatal(err)
		}
		got, err := acc.Finalize()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("policy %v: gc_content = %v, want %v", tt.policy, got, tt.want)
		}
	}
}

func TestAggregate_MergeRejectsForeign(t *testing.T) {
	gc := aggregateByName(t, composition.PolicyNull, "gc_content").NewAccumulator()
	count := aggregateByName(t, composition.PolicyNull, "COUNT").NewAccumulator()
	if err := gc.Merge(count); err == nil {
		t.Error("merging COUNT state into gc_content succeeded")
	}
}

func TestBasicAggregates(t *testing.T) {
	ints := column.NewInt64s([]int64{3, 0, 9, 4}, []bool{true, false, true, true})

	tests := []struct {
		name string
		col  column.Column
		want interface{}
	}{
		{"COUNT", ints, int64(3)},
		{"SUM", ints, 16.0},
		{"AVG", ints, 16.0 / 3.0},
		{"MIN", ints, int64(3)},
		{"MAX", ints, int64(9)},
		{"MAX", column.NewStrings([]string{"b", "c", "a"}, nil), "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := aggregateByName(t, composition.PolicyNull, tt.name)
			first := f.NewAccumulator()
			second := f.NewAccumulator()
			// Split updates across two accumulators to exercise Merge
			if err := first.Update(column.Take(tt.col, []int{0, 1}), 2); err != nil {
				t.Fatal(err)
			}
			rest := make([]int, 0, tt.col.Len()-2)
			for i := 2; i < tt.col.Len(); i++ {
				rest = append(rest, i)
			}
			if err := second.Update(column.Take(tt.col, rest), len(rest)); err != nil {
				t.Fatal(err)
			}
			if err := first.Merge(second); err != nil {
				t.Fatal(err)
			}
			got, err := first.Finalize()
			if err != nil {
				t.Fatal(err)
			}
			if g, ok := got.(float64); ok {
				if math.Abs(g-tt.want.(float64)) > 1e-9 {
					t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestEmptyAggregates(t *testing.T) {
	for _, name := range []string{"SUM", "AVG", "MIN", "MAX", "gc_content"} {
		got, err := aggregateByName(t, composition.PolicyNull, name).NewAccumulator().Finalize()
		if err != nil || got != nil {
			t.Errorf("%s over no rows = %v, %v; want NULL", name, got, err)
		}
	}
	got, _ := aggregateByName(t, composition.PolicyNull, "COUNT").NewAccumulator().Finalize()
	if got != int64(0) {
		t.Errorf("COUNT over no rows = %v, want 0", got)
	}
}

func TestComputeGroupKey(t *testing.T) {
	keys := []column.Column{
		column.NewStrings([]string{"1", "1"}, nil),
		column.NewInt64s([]int64{1, 1}, []bool{true, false}),
	}
	names := []string{"a", "b"}
	if computeGroupKey(keys, names, 0) == computeGroupKey(keys, names, 1) {
		t.Error("NULL and 1 produced the same group key")
	}

	strKey := computeGroupKey([]column.Column{column.NewStrings([]string{"1"}, nil)}, []string{"a"}, 0)
	intKey := computeGroupKey([]column.Column{column.NewInt64s([]int64{1}, nil)}, []string{"a"}, 0)
	if strKey == intKey {
		t.Error("string and integer values produced the same group key")
	}
}
