package column

import "fmt"

// Take gathers the elements of c at the given indices into a new column.
func Take(c Column, indices []int) Column {
	switch src := c.(type) {
	case *Strings:
		b := NewStringsBuilder(len(indices))
		for _, i := range indices {
			if src.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(src.Bytes(i))
		}
		return b.Finish()
	case *Int64s:
		values := make([]int64, len(indices))
		valid := takeValidity(src.valid, indices)
		for j, i := range indices {
			values[j] = src.values[i]
		}
		return &Int64s{values: values, valid: valid}
	case *Float64s:
		values := make([]float64, len(indices))
		valid := takeValidity(src.valid, indices)
		for j, i := range indices {
			values[j] = src.values[i]
		}
		return &Float64s{values: values, valid: valid}
	case *Bools:
		values := make([]bool, len(indices))
		valid := takeValidity(src.valid, indices)
		for j, i := range indices {
			values[j] = src.values[i]
		}
		return &Bools{values: values, valid: valid}
	}

	// Foreign implementations go through the boxed path
	b, err := NewBuilder(c.Type(), len(indices))
	if err != nil {
		panic(err)
	}
	for _, i := range indices {
		_ = b.AppendValue(c.Value(i))
	}
	return b.Build()
}

func takeValidity(v validity, indices []int) validity {
	if v == nil {
		return nil
	}
	out := make(validity, len(indices))
	for j, i := range indices {
		out[j] = v[i]
	}
	return out
}

// Filter keeps the elements of c whose mask entry is true.
func Filter(c Column, mask []bool) Column {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	if len(indices) == c.Len() {
		return c
	}
	return Take(c, indices)
}

// Concat appends columns of the same type end to end.
func Concat(t DataType, cols ...Column) (Column, error) {
	n := 0
	for _, c := range cols {
		if c.Type() != t {
			return nil, fmt.Errorf("%w: cannot concat %v column into %v", ErrTypeMismatch, c.Type(), t)
		}
		n += c.Len()
	}

	if t == Utf8 {
		b := NewStringsBuilder(n)
		for _, c := range cols {
			s := c.(*Strings)
			for i := 0; i < s.Len(); i++ {
				if s.IsNull(i) {
					b.AppendNull()
					continue
				}
				b.Append(s.Bytes(i))
			}
		}
		return b.Finish(), nil
	}

	b, err := NewBuilder(t, n)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		for i := 0; i < c.Len(); i++ {
			if err := b.AppendValue(c.Value(i)); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// Broadcast repeats a scalar value n times. A nil value yields an all-null
// column of type t.
func Broadcast(t DataType, value interface{}, n int) (Column, error) {
	b, err := NewBuilder(t, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := b.AppendValue(value); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// TypeOf returns the column type that holds v. ok is false for nil and for
// unsupported Go types.
func TypeOf(v interface{}) (DataType, bool) {
	switch v.(type) {
	case string, []byte:
		return Utf8, true
	case int64, int, int32, uint64:
		return Int64, true
	case float64, float32:
		return Float64, true
	case bool:
		return Boolean, true
	}
	return 0, false
}

// FromValues builds a column from boxed values. The type is taken from the
// first non-nil value; fallback is used when every value is nil. Mixed
// integer and float values widen to Float64, any other mix is an error.
func FromValues(values []interface{}, fallback DataType) (Column, error) {
	t, found := fallback, false
	for _, v := range values {
		if v == nil {
			continue
		}
		vt, ok := TypeOf(v)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported value type %T", ErrTypeMismatch, v)
		}
		switch {
		case !found:
			t, found = vt, true
		case vt == t:
		case (vt == Int64 && t == Float64) || (vt == Float64 && t == Int64):
			t = Float64
		default:
			return nil, fmt.Errorf("%w: mixed %v and %v values", ErrTypeMismatch, t, vt)
		}
	}

	b, err := NewBuilder(t, len(values))
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := b.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
