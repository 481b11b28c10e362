package column

import "testing"

func TestNewBatch_LengthMismatch(t *testing.T) {
	_, err := NewBatch(
		[]string{"id", "sequence"},
		[]Column{NewInt64s([]int64{1, 2}, nil), NewStrings([]string{"GC"}, nil)},
	)
	if err == nil {
		t.Fatal("NewBatch() expected error for unequal column lengths")
	}

	if _, err := NewBatch([]string{"id"}, nil); err == nil {
		t.Fatal("NewBatch() expected error for name/column count mismatch")
	}
}

func TestBatch_FilterAndRow(t *testing.T) {
	b, err := NewBatch(
		[]string{"id", "sequence"},
		[]Column{
			NewInt64s([]int64{1, 2, 3}, nil),
			NewStrings([]string{"GC", "", "AT"}, []bool{true, false, true}),
		},
	)
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	got := b.Filter([]bool{false, true, true})
	if got.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", got.NumRows())
	}
	row := got.Row(0)
	if row["id"] != int64(2) || row["sequence"] != nil {
		t.Errorf("Row(0) = %v, want id=2 sequence=nil", row)
	}

	if _, ok := b.ColumnByName("SEQUENCE"); !ok {
		t.Errorf("ColumnByName() should match case-insensitively")
	}
}

func TestConcatBatches(t *testing.T) {
	mk := func(ids ...int64) *Batch {
		b, err := NewBatch([]string{"id"}, []Column{NewInt64s(ids, nil)})
		if err != nil {
			t.Fatalf("NewBatch() error = %v", err)
		}
		return b
	}

	got, err := ConcatBatches([]*Batch{mk(1, 2), mk(3)})
	if err != nil {
		t.Fatalf("ConcatBatches() error = %v", err)
	}
	if got.NumRows() != 3 || got.Column(0).Value(2) != int64(3) {
		t.Errorf("ConcatBatches() rows = %d, last = %v", got.NumRows(), got.Column(0).Value(2))
	}

	empty, err := ConcatBatches(nil)
	if err != nil || empty.NumRows() != 0 {
		t.Errorf("ConcatBatches(nil) = %v rows, err %v", empty.NumRows(), err)
	}
}
