package column

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned when a column or value does not have the type
// an operation requires.
var ErrTypeMismatch = errors.New("type mismatch")

// DataType identifies the logical type of a column
type DataType int

const (
	Utf8 DataType = iota
	Int64
	Float64
	Boolean
)

// String returns the SQL-style name of the type
func (t DataType) String() string {
	switch t {
	case Utf8:
		return "TEXT"
	case Int64:
		return "INT64"
	case Float64:
		return "FLOAT64"
	case Boolean:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// Column is a typed sequence of nullable values.
type Column interface {
	// Type returns the logical type of the column
	Type() DataType
	// Len returns the number of elements, nulls included
	Len() int
	// IsNull reports whether element i is null
	IsNull(i int) bool
	// Value returns element i boxed, or nil when it is null
	Value(i int) interface{}
}

// NullCount returns the number of null elements in c.
func NullCount(c Column) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// validity is the shared null mask. A nil mask means every element is valid.
type validity []bool

func (v validity) isNull(i int) bool {
	return v != nil && !v[i]
}

// Strings is a column of variable-length text.
type Strings struct {
	offsets []int
	data    []byte
	valid   validity
}

// NewStrings builds a Strings column from values. valid may be nil when no
// element is null; otherwise it must have the same length as values.
func NewStrings(values []string, valid []bool) *Strings {
	b := NewStringsBuilder(len(values))
	for i, v := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		b.AppendString(v)
	}
	return b.Finish()
}

func (s *Strings) Type() DataType    { return Utf8 }
func (s *Strings) Len() int          { return len(s.offsets) - 1 }
func (s *Strings) IsNull(i int) bool { return s.valid.isNull(i) }

// Bytes returns element i as a view into the column buffer. The caller must
// not modify or retain it beyond the lifetime of the column.
func (s *Strings) Bytes(i int) []byte {
	return s.data[s.offsets[i]:s.offsets[i+1]:s.offsets[i+1]]
}

// String returns element i as a string (empty for nulls)
func (s *Strings) String(i int) string {
	return string(s.Bytes(i))
}

func (s *Strings) Value(i int) interface{} {
	if s.IsNull(i) {
		return nil
	}
	return s.String(i)
}

// Int64s is a column of 64-bit integers.
type Int64s struct {
	values []int64
	valid  validity
}

// NewInt64s wraps values; valid may be nil when nothing is null.
func NewInt64s(values []int64, valid []bool) *Int64s {
	return &Int64s{values: values, valid: valid}
}

func (c *Int64s) Type() DataType     { return Int64 }
func (c *Int64s) Len() int           { return len(c.values) }
func (c *Int64s) IsNull(i int) bool  { return c.valid.isNull(i) }
func (c *Int64s) Int64(i int) int64  { return c.values[i] }
func (c *Int64s) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.values[i]
}

// Float64s is a column of double precision floats.
type Float64s struct {
	values []float64
	valid  validity
}

// NewFloat64s wraps values; valid may be nil when nothing is null.
func NewFloat64s(values []float64, valid []bool) *Float64s {
	return &Float64s{values: values, valid: valid}
}

func (c *Float64s) Type() DataType        { return Float64 }
func (c *Float64s) Len() int              { return len(c.values) }
func (c *Float64s) IsNull(i int) bool     { return c.valid.isNull(i) }
func (c *Float64s) Float64(i int) float64 { return c.values[i] }
func (c *Float64s) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.values[i]
}

// Bools is a column of booleans.
type Bools struct {
	values []bool
	valid  validity
}

// NewBools wraps values; valid may be nil when nothing is null.
func NewBools(values []bool, valid []bool) *Bools {
	return &Bools{values: values, valid: valid}
}

func (c *Bools) Type() DataType    { return Boolean }
func (c *Bools) Len() int          { return len(c.values) }
func (c *Bools) IsNull(i int) bool { return c.valid.isNull(i) }
func (c *Bools) Bool(i int) bool   { return c.values[i] }
func (c *Bools) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.values[i]
}
