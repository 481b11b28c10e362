package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/composition"
)

func aggregateFunctions(policy composition.Policy) []AggregateFunction {
	return []AggregateFunction{
		countAggregate{},
		sumAggregate{},
		avgAggregate{},
		extremeAggregate{name: "MIN", want: -1},
		extremeAggregate{name: "MAX", want: 1},
		gcContentAggregate{policy: policy},
	}
}

// COUNT(*) counts rows, COUNT(x) counts non-null values
type countAggregate struct{}

func (countAggregate) Name() string    { return "COUNT" }
func (countAggregate) AllowStar() bool { return true }
func (countAggregate) ReturnType(column.DataType) (column.DataType, error) {
	return column.Int64, nil
}
func (countAggregate) NewAccumulator() Accumulator { return &countAccumulator{} }

type countAccumulator struct {
	count int64
}

func (a *countAccumulator) Update(col column.Column, numRows int) error {
	if col == nil {
		a.count += int64(numRows)
		return nil
	}
	a.count += int64(col.Len() - column.NullCount(col))
	return nil
}

func (a *countAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*countAccumulator)
	if !ok {
		return fmt.Errorf("COUNT: cannot merge %T", other)
	}
	a.count += o.count
	return nil
}

func (a *countAccumulator) Finalize() (interface{}, error) { return a.count, nil }

func requireNumeric(name string, arg column.DataType) error {
	if arg != column.Int64 && arg != column.Float64 {
		return fmt.Errorf("%w: %s expects a numeric argument, got %v", column.ErrTypeMismatch, name, arg)
	}
	return nil
}

// sumState is shared by SUM and AVG
type sumState struct {
	sum   float64
	count int64
}

func (s *sumState) update(name string, col column.Column) error {
	for i := 0; i < col.Len(); i++ {
		value := col.Value(i)
		if value == nil {
			continue
		}
		num, err := valueToNumber(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		s.sum += num
		s.count++
	}
	return nil
}

type sumAggregate struct{}

func (sumAggregate) Name() string    { return "SUM" }
func (sumAggregate) AllowStar() bool { return false }
func (sumAggregate) ReturnType(arg column.DataType) (column.DataType, error) {
	return column.Float64, requireNumeric("SUM", arg)
}
func (sumAggregate) NewAccumulator() Accumulator { return &sumAccumulator{} }

type sumAccumulator struct{ sumState }

func (a *sumAccumulator) Update(col column.Column, _ int) error { return a.update("SUM", col) }

func (a *sumAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*sumAccumulator)
	if !ok {
		return fmt.Errorf("SUM: cannot merge %T", other)
	}
	a.sum += o.sum
	a.count += o.count
	return nil
}

func (a *sumAccumulator) Finalize() (interface{}, error) {
	if a.count == 0 {
		return nil, nil // NULL if no values
	}
	return a.sum, nil
}

type avgAggregate struct{}

func (avgAggregate) Name() string    { return "AVG" }
func (avgAggregate) AllowStar() bool { return false }
func (avgAggregate) ReturnType(arg column.DataType) (column.DataType, error) {
	return column.Float64, requireNumeric("AVG", arg)
}
func (avgAggregate) NewAccumulator() Accumulator { return &avgAccumulator{} }

type avgAccumulator struct{ sumState }

func (a *avgAccumulator) Update(col column.Column, _ int) error { return a.update("AVG", col) }

func (a *avgAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*avgAccumulator)
	if !ok {
		return fmt.Errorf("AVG: cannot merge %T", other)
	}
	a.sum += o.sum
	a.count += o.count
	return nil
}

func (a *avgAccumulator) Finalize() (interface{}, error) {
	if a.count == 0 {
		return nil, nil
	}
	return a.sum / float64(a.count), nil
}

// extremeAggregate implements MIN (want -1) and MAX (want +1) over any
// orderable type
type extremeAggregate struct {
	name string
	want int
}

func (e extremeAggregate) Name() string   { return e.name }
func (extremeAggregate) AllowStar() bool { return false }
func (extremeAggregate) ReturnType(arg column.DataType) (column.DataType, error) {
	return arg, nil
}
func (e extremeAggregate) NewAccumulator() Accumulator {
	return &extremeAccumulator{name: e.name, want: e.want}
}

type extremeAccumulator struct {
	name  string
	want  int
	value interface{}
}

func (a *extremeAccumulator) offer(v interface{}) {
	if v == nil {
		return
	}
	if a.value == nil || compareValues(v, a.value) == a.want {
		a.value = v
	}
}

func (a *extremeAccumulator) Update(col column.Column, _ int) error {
	for i := 0; i < col.Len(); i++ {
		a.offer(col.Value(i))
	}
	return nil
}

func (a *extremeAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*extremeAccumulator)
	if !ok || o.name != a.name {
		return fmt.Errorf("%s: cannot merge %T", a.name, other)
	}
	a.offer(o.value)
	return nil
}

func (a *extremeAccumulator) Finalize() (interface{}, error) { return a.value, nil }

// gcContentAggregate is the aggregate form of gc_content: the ratio of summed
// GC counts to summed informative bases over every sequence of a group.
type gcContentAggregate struct {
	policy composition.Policy
}

func (gcContentAggregate) Name() string    { return "gc_content" }
func (gcContentAggregate) AllowStar() bool { return false }
func (gcContentAggregate) ReturnType(arg column.DataType) (column.DataType, error) {
	if arg != column.Utf8 {
		return 0, fmt.Errorf("%w: gc_content expects %v, got %v", column.ErrTypeMismatch, column.Utf8, arg)
	}
	return column.Float64, nil
}
func (g gcContentAggregate) NewAccumulator() Accumulator {
	return &gcContentAccumulator{acc: composition.NewAccumulator(), policy: g.policy}
}

type gcContentAccumulator struct {
	acc    *composition.Accumulator
	policy composition.Policy
}

func (a *gcContentAccumulator) Update(col column.Column, _ int) error {
	return a.acc.UpdateColumn(col)
}

func (a *gcContentAccumulator) Merge(other Accumulator) error {
	o, ok := other.(*gcContentAccumulator)
	if !ok {
		return fmt.Errorf("gc_content: cannot merge %T", other)
	}
	return a.acc.Merge(o.acc)
}

func (a *gcContentAccumulator) Finalize() (interface{}, error) {
	pct, ok, err := a.acc.Finalize()
	if err != nil {
		return nil, err
	}
	value, valid := a.policy.Resolve(pct, ok)
	if !valid {
		return nil, nil
	}
	return value, nil
}

// computeGroupKey computes a hash key for the group of row i from the
// GROUP BY columns
func computeGroupKey(keys []column.Column, names []string, i int) string {
	var keyBuilder strings.Builder
	for j, col := range keys {
		if j > 0 {
			keyBuilder.WriteString("\x00||\x00") // Use unlikely separator to avoid collisions
		}
		// Include column name in key to prevent cross-column collisions
		keyBuilder.WriteString(names[j])
		keyBuilder.WriteString("\x00:\x00")
		keyBuilder.WriteString(fmt.Sprintf("%#v", col.Value(i))) // %#v differentiates types
	}
	return keyBuilder.String()
}
