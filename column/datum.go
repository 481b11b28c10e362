package column

// Datum is either a column or a single scalar applying to every row.
type Datum struct {
	Column Column
	Scalar interface{}
	// Type is the logical type of the datum. For a column datum it matches
	// Column.Type().
	Type DataType
	scalar bool
}

// ColumnDatum wraps a column
func ColumnDatum(c Column) Datum {
	return Datum{Column: c, Type: c.Type()}
}

// ScalarDatum wraps a scalar value of type t. A nil value is a typed NULL.
func ScalarDatum(t DataType, v interface{}) Datum {
	return Datum{Scalar: v, Type: t, scalar: true}
}

// IsScalar reports whether d holds a scalar
func (d Datum) IsScalar() bool { return d.scalar }

// Value returns the value for row i
func (d Datum) Value(i int) interface{} {
	if d.scalar {
		return d.Scalar
	}
	return d.Column.Value(i)
}

// IsNull reports whether row i is null
func (d Datum) IsNull(i int) bool {
	if d.scalar {
		return d.Scalar == nil
	}
	return d.Column.IsNull(i)
}

// Expand materializes d as a column of n rows.
func (d Datum) Expand(n int) (Column, error) {
	if !d.scalar {
		return d.Column, nil
	}
	return Broadcast(d.Type, d.Scalar, n)
}
