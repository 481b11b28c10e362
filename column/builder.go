package column

import (
	"fmt"
	"math"
	"strconv"
)

// Builder accumulates values into a new column of a fixed type.
type Builder interface {
	// Type returns the type of the column being built
	Type() DataType
	// AppendNull appends a null element
	AppendNull()
	// AppendValue appends a boxed value, converting compatible Go types.
	// A nil value appends a null.
	AppendValue(v interface{}) error
	// Len returns the number of elements appended so far
	Len() int
	// Build returns the finished column. The builder must not be reused.
	Build() Column
}

// NewBuilder returns a Builder for the given type.
func NewBuilder(t DataType, capacity int) (Builder, error) {
	switch t {
	case Utf8:
		return NewStringsBuilder(capacity), nil
	case Int64:
		return &Int64sBuilder{values: make([]int64, 0, capacity)}, nil
	case Float64:
		return &Float64sBuilder{values: make([]float64, 0, capacity)}, nil
	case Boolean:
		return &BoolsBuilder{values: make([]bool, 0, capacity)}, nil
	default:
		return nil, fmt.Errorf("%w: no builder for %v", ErrTypeMismatch, t)
	}
}

// validityBuilder tracks nulls lazily: the mask is only allocated once the
// first null arrives.
type validityBuilder struct {
	valid validity
}

func (v *validityBuilder) appendValid(n int) {
	if v.valid != nil {
		v.valid = append(v.valid, true)
	}
}

func (v *validityBuilder) appendNull(n int) {
	if v.valid == nil {
		v.valid = make(validity, n, n+1)
		for i := range v.valid {
			v.valid[i] = true
		}
	}
	v.valid = append(v.valid, false)
}

// StringsBuilder builds a Strings column.
type StringsBuilder struct {
	validityBuilder
	offsets []int
	data    []byte
}

// NewStringsBuilder returns a builder sized for capacity elements
func NewStringsBuilder(capacity int) *StringsBuilder {
	offsets := make([]int, 1, capacity+1)
	return &StringsBuilder{offsets: offsets}
}

func (b *StringsBuilder) Type() DataType { return Utf8 }
func (b *StringsBuilder) Len() int       { return len(b.offsets) - 1 }

// Append copies v into the column buffer
func (b *StringsBuilder) Append(v []byte) {
	b.appendValid(b.Len())
	b.data = append(b.data, v...)
	b.offsets = append(b.offsets, len(b.data))
}

// AppendString copies s into the column buffer
func (b *StringsBuilder) AppendString(s string) {
	b.appendValid(b.Len())
	b.data = append(b.data, s...)
	b.offsets = append(b.offsets, len(b.data))
}

func (b *StringsBuilder) AppendNull() {
	b.appendNull(b.Len())
	b.offsets = append(b.offsets, len(b.data))
}

func (b *StringsBuilder) AppendValue(v interface{}) error {
	switch val := v.(type) {
	case nil:
		b.AppendNull()
	case string:
		b.AppendString(val)
	case []byte:
		b.Append(val)
	case int64:
		b.AppendString(strconv.FormatInt(val, 10))
	case float64:
		b.AppendString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		b.AppendString(strconv.FormatBool(val))
	default:
		return fmt.Errorf("%w: cannot append %T to %v column", ErrTypeMismatch, v, Utf8)
	}
	return nil
}

// Finish returns the built Strings column
func (b *StringsBuilder) Finish() *Strings {
	return &Strings{offsets: b.offsets, data: b.data, valid: b.valid}
}

func (b *StringsBuilder) Build() Column { return b.Finish() }

// Int64sBuilder builds an Int64s column.
type Int64sBuilder struct {
	validityBuilder
	values []int64
}

func (b *Int64sBuilder) Type() DataType { return Int64 }
func (b *Int64sBuilder) Len() int       { return len(b.values) }

// Append appends a non-null integer
func (b *Int64sBuilder) Append(v int64) {
	b.appendValid(len(b.values))
	b.values = append(b.values, v)
}

func (b *Int64sBuilder) AppendNull() {
	b.appendNull(len(b.values))
	b.values = append(b.values, 0)
}

func (b *Int64sBuilder) AppendValue(v interface{}) error {
	switch val := v.(type) {
	case nil:
		b.AppendNull()
	case int64:
		b.Append(val)
	case int:
		b.Append(int64(val))
	case int32:
		b.Append(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return fmt.Errorf("%w: %d overflows %v", ErrTypeMismatch, val, Int64)
		}
		b.Append(int64(val))
	case float64:
		if val != math.Trunc(val) {
			return fmt.Errorf("%w: %v is not an integer", ErrTypeMismatch, val)
		}
		b.Append(int64(val))
	default:
		return fmt.Errorf("%w: cannot append %T to %v column", ErrTypeMismatch, v, Int64)
	}
	return nil
}

func (b *Int64sBuilder) Finish() *Int64s {
	return &Int64s{values: b.values, valid: b.valid}
}

func (b *Int64sBuilder) Build() Column { return b.Finish() }

// Float64sBuilder builds a Float64s column.
type Float64sBuilder struct {
	validityBuilder
	values []float64
}

// NewFloat64sBuilder returns a builder sized for capacity elements
func NewFloat64sBuilder(capacity int) *Float64sBuilder {
	return &Float64sBuilder{values: make([]float64, 0, capacity)}
}

func (b *Float64sBuilder) Type() DataType { return Float64 }
func (b *Float64sBuilder) Len() int       { return len(b.values) }

// Append appends a non-null float
func (b *Float64sBuilder) Append(v float64) {
	b.appendValid(len(b.values))
	b.values = append(b.values, v)
}

func (b *Float64sBuilder) AppendNull() {
	b.appendNull(len(b.values))
	b.values = append(b.values, 0)
}

func (b *Float64sBuilder) AppendValue(v interface{}) error {
	switch val := v.(type) {
	case nil:
		b.AppendNull()
	case float64:
		b.Append(val)
	case float32:
		b.Append(float64(val))
	case int64:
		b.Append(float64(val))
	case int:
		b.Append(float64(val))
	case uint64:
		b.Append(float64(val))
	default:
		return fmt.Errorf("%w: cannot append %T to %v column", ErrTypeMismatch, v, Float64)
	}
	return nil
}

func (b *Float64sBuilder) Finish() *Float64s {
	return &Float64s{values: b.values, valid: b.valid}
}

func (b *Float64sBuilder) Build() Column { return b.Finish() }

// BoolsBuilder builds a Bools column.
type BoolsBuilder struct {
	validityBuilder
	values []bool
}

func (b *BoolsBuilder) Type() DataType { return Boolean }
func (b *BoolsBuilder) Len() int       { return len(b.values) }

func (b *BoolsBuilder) Append(v bool) {
	b.appendValid(len(b.values))
	b.values = append(b.values, v)
}

func (b *BoolsBuilder) AppendNull() {
	b.appendNull(len(b.values))
	b.values = append(b.values, false)
}

func (b *BoolsBuilder) AppendValue(v interface{}) error {
	switch val := v.(type) {
	case nil:
		b.AppendNull()
	case bool:
		b.Append(val)
	default:
		return fmt.Errorf("%w: cannot append %T to %v column", ErrTypeMismatch, v, Boolean)
	}
	return nil
}

func (b *BoolsBuilder) Finish() *Bools {
	return &Bools{values: b.values, valid: b.valid}
}

func (b *BoolsBuilder) Build() Column { return b.Finish() }
