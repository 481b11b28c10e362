package composition

import (
	"errors"
	"fmt"

	"github.com/vegasq/seqcat/column"
)

// ErrFinalized is returned when an Accumulator is used after Finalize.
var ErrFinalized = errors.New("accumulator already finalized")

// State is the lifecycle state of an Accumulator.
type State uint8

const (
	Empty State = iota
	Accumulating
	Finalized
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Finalized:
		return "finalized"
	default:
		return "empty"
	}
}

// Accumulator folds sequences into running GC counts. The zero value is an
// empty accumulator. An Accumulator has a single owner; it is not safe for
// concurrent use.
type Accumulator struct {
	counts Counts
	state  State
}

// NewAccumulator returns an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// State returns the lifecycle state
func (a *Accumulator) State() State { return a.state }

// Counts returns the counts accumulated so far
func (a *Accumulator) Counts() Counts { return a.counts }

// Update adds one non-null sequence.
func (a *Accumulator) Update(seq []byte) error {
	if a.state == Finalized {
		return ErrFinalized
	}
	a.counts.Add(seq)
	a.state = Accumulating
	return nil
}

// UpdateColumn adds every non-null element of a text column. Nulls leave the
// state unchanged.
func (a *Accumulator) UpdateColumn(col column.Column) error {
	if a.state == Finalized {
		return ErrFinalized
	}
	seqs, ok := col.(*column.Strings)
	if !ok {
		return fmt.Errorf("%w: gc_content expects %v, got %v", column.ErrTypeMismatch, column.Utf8, col.Type())
	}
	for i := 0; i < seqs.Len(); i++ {
		if seqs.IsNull(i) {
			continue
		}
		a.counts.Add(seqs.Bytes(i))
		a.state = Accumulating
	}
	return nil
}

// Merge adds the counts of other into a. other is not modified and must not
// be finalized.
func (a *Accumulator) Merge(other *Accumulator) error {
	if a.state == Finalized || other.state == Finalized {
		return ErrFinalized
	}
	if other.state == Empty {
		return nil
	}
	a.counts.Merge(other.counts)
	a.state = Accumulating
	return nil
}

// Finalize returns the GC content of everything accumulated. ok is false when
// no informative bases were seen. The accumulator cannot be used afterwards.
func (a *Accumulator) Finalize() (pct float64, ok bool, err error) {
	if a.state == Finalized {
		return 0, false, ErrFinalized
	}
	a.state = Finalized
	pct, ok = a.counts.Percent()
	return pct, ok, nil
}
