package column

import (
	"fmt"
	"strings"
)

// Field names and types one column of a batch.
type Field struct {
	Name string
	Type DataType
}

// Batch is a set of named columns of equal length.
type Batch struct {
	fields  []Field
	columns []Column
	rows    int
}

// NewBatch validates that names and columns line up and share one length.
func NewBatch(names []string, columns []Column) (*Batch, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("batch has %d names but %d columns", len(names), len(columns))
	}
	b := &Batch{
		fields:  make([]Field, len(names)),
		columns: columns,
	}
	for i, c := range columns {
		if i == 0 {
			b.rows = c.Len()
		} else if c.Len() != b.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", names[i], c.Len(), b.rows)
		}
		b.fields[i] = Field{Name: names[i], Type: c.Type()}
	}
	return b, nil
}

// EmptyBatch returns a batch with no rows and no columns.
func EmptyBatch() *Batch {
	return &Batch{}
}

func (b *Batch) NumRows() int    { return b.rows }
func (b *Batch) NumColumns() int { return len(b.columns) }
func (b *Batch) Fields() []Field { return b.fields }
func (b *Batch) Column(i int) Column {
	return b.columns[i]
}

// ColumnByName finds a column by name, case-insensitively.
func (b *Batch) ColumnByName(name string) (Column, bool) {
	for i, f := range b.fields {
		if f.Name == name {
			return b.columns[i], true
		}
	}
	for i, f := range b.fields {
		if strings.EqualFold(f.Name, name) {
			return b.columns[i], true
		}
	}
	return nil, false
}

// Names returns the field names in order
func (b *Batch) Names() []string {
	names := make([]string, len(b.fields))
	for i, f := range b.fields {
		names[i] = f.Name
	}
	return names
}

// Take gathers the rows at indices from every column.
func (b *Batch) Take(indices []int) *Batch {
	out := &Batch{fields: b.fields, columns: make([]Column, len(b.columns)), rows: len(indices)}
	for i, c := range b.columns {
		out.columns[i] = Take(c, indices)
	}
	return out
}

// Filter keeps the rows whose mask entry is true.
func (b *Batch) Filter(mask []bool) *Batch {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	if len(indices) == b.rows {
		return b
	}
	return b.Take(indices)
}

// Row returns row i as a map keyed by field name.
func (b *Batch) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(b.columns))
	for j, c := range b.columns {
		row[b.fields[j].Name] = c.Value(i)
	}
	return row
}

// ConcatBatches appends batches with identical fields.
func ConcatBatches(batches []*Batch) (*Batch, error) {
	if len(batches) == 0 {
		return EmptyBatch(), nil
	}
	if len(batches) == 1 {
		return batches[0], nil
	}
	first := batches[0]
	columns := make([]Column, len(first.columns))
	for j, f := range first.fields {
		parts := make([]Column, len(batches))
		for k, b := range batches {
			if len(b.columns) != len(first.columns) || b.fields[j].Name != f.Name {
				return nil, fmt.Errorf("batch %d does not match schema of batch 0", k)
			}
			parts[k] = b.columns[j]
		}
		c, err := Concat(f.Type, parts...)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		columns[j] = c
	}
	return NewBatch(first.Names(), columns)
}
