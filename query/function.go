package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vegasq/seqcat/column"
)

// Volatility describes how a function's result depends on its inputs
type Volatility int

const (
	// Immutable functions always return the same output for the same input
	Immutable Volatility = iota
	// Stable functions return the same output within one query
	Stable
	// Volatile functions may return a different output on every call
	Volatile
)

func (v Volatility) String() string {
	switch v {
	case Immutable:
		return "immutable"
	case Stable:
		return "stable"
	default:
		return "volatile"
	}
}

// Function is a scalar function evaluated over whole columns
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	Volatility() Volatility
	// ReturnType checks the argument types and returns the result type
	ReturnType(args []column.DataType) (column.DataType, error)
	// Invoke evaluates the function for numRows rows. Arguments are either
	// columns of numRows elements or scalars.
	Invoke(args []column.Datum, numRows int) (column.Datum, error)
}

// AggregateFunction creates accumulators for one aggregate
type AggregateFunction interface {
	Name() string
	// AllowStar reports whether name(*) is accepted
	AllowStar() bool
	// ReturnType checks the argument type and returns the result type
	ReturnType(arg column.DataType) (column.DataType, error)
	NewAccumulator() Accumulator
}

// Accumulator is the streaming state of one aggregate for one group.
type Accumulator interface {
	// Update folds in numRows rows. col is nil for name(*).
	Update(col column.Column, numRows int) error
	// Merge folds another accumulator of the same aggregate into this one
	Merge(other Accumulator) error
	// Finalize returns the result; nil means NULL
	Finalize() (interface{}, error)
}

// FunctionRegistry holds the scalar and aggregate functions visible to a
// session. A scalar and an aggregate may share a name.
type FunctionRegistry struct {
	mu         sync.RWMutex
	scalars    map[string]Function
	aggregates map[string]AggregateFunction
}

// NewFunctionRegistry creates an empty function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		scalars:    make(map[string]Function),
		aggregates: make(map[string]AggregateFunction),
	}
}

// RegisterScalar registers a scalar function, replacing any scalar of the
// same name
func (r *FunctionRegistry) RegisterScalar(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scalars[strings.ToUpper(f.Name())] = f
}

// RegisterAggregate registers an aggregate function, replacing any aggregate
// of the same name
func (r *FunctionRegistry) RegisterAggregate(f AggregateFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[strings.ToUpper(f.Name())] = f
}

// Scalar retrieves a scalar function by name (case-insensitive)
func (r *FunctionRegistry) Scalar(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.scalars[strings.ToUpper(name)]
	return f, ok
}

// Aggregate retrieves an aggregate function by name (case-insensitive)
func (r *FunctionRegistry) Aggregate(name string) (AggregateFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.aggregates[strings.ToUpper(name)]
	return f, ok
}

// checkArity validates the argument count of a call to f
func checkArity(f Function, n int) error {
	if n < f.MinArity() {
		return fmt.Errorf("%s: expected at least %d argument(s), got %d", f.Name(), f.MinArity(), n)
	}
	if f.MaxArity() >= 0 && n > f.MaxArity() {
		return fmt.Errorf("%s: expected at most %d argument(s), got %d", f.Name(), f.MaxArity(), n)
	}
	return nil
}

// rowFunction adapts a value-at-a-time function to the columnar protocol.
// NULL arguments produce NULL without calling eval unless handlesNulls is set.
type rowFunction struct {
	name         string
	minArity     int
	maxArity     int
	volatility   Volatility
	handlesNulls bool
	returnType   func(args []column.DataType) (column.DataType, error)
	eval         func(args []interface{}) (interface{}, error)
}

func (f *rowFunction) Name() string           { return f.name }
func (f *rowFunction) MinArity() int          { return f.minArity }
func (f *rowFunction) MaxArity() int          { return f.maxArity }
func (f *rowFunction) Volatility() Volatility { return f.volatility }
func (f *rowFunction) ReturnType(args []column.DataType) (column.DataType, error) {
	return f.returnType(args)
}

func (f *rowFunction) Invoke(args []column.Datum, numRows int) (column.Datum, error) {
	types := make([]column.DataType, len(args))
	allScalar := true
	for i, arg := range args {
		types[i] = arg.Type
		allScalar = allScalar && arg.IsScalar()
	}
	outType, err := f.returnType(types)
	if err != nil {
		return column.Datum{}, err
	}

	if allScalar && f.volatility != Volatile {
		value, err := f.evalRow(args, 0)
		if err != nil {
			return column.Datum{}, err
		}
		return column.ScalarDatum(outType, value), nil
	}

	b, err := column.NewBuilder(outType, numRows)
	if err != nil {
		return column.Datum{}, err
	}
	for i := 0; i < numRows; i++ {
		value, err := f.evalRow(args, i)
		if err != nil {
			return column.Datum{}, err
		}
		if err := b.AppendValue(value); err != nil {
			return column.Datum{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return column.ColumnDatum(b.Build()), nil
}

func (f *rowFunction) evalRow(args []column.Datum, i int) (interface{}, error) {
	values := make([]interface{}, len(args))
	for j, arg := range args {
		values[j] = arg.Value(i)
		if values[j] == nil && !f.handlesNulls {
			return nil, nil
		}
	}
	return f.eval(values)
}

// Return type helpers for row functions

func returns(t column.DataType) func([]column.DataType) (column.DataType, error) {
	return func([]column.DataType) (column.DataType, error) { return t, nil }
}

func returnsNumeric(t column.DataType) func([]column.DataType) (column.DataType, error) {
	return func(args []column.DataType) (column.DataType, error) {
		for i, a := range args {
			if a != column.Int64 && a != column.Float64 {
				return 0, fmt.Errorf("%w: argument %d must be numeric, got %v", column.ErrTypeMismatch, i+1, a)
			}
		}
		return t, nil
	}
}

// returnsCommon returns the shared type of all arguments, widening integers
// to floats
func returnsCommon(args []column.DataType) (column.DataType, error) {
	if len(args) == 0 {
		return column.Utf8, nil
	}
	t := args[0]
	for _, a := range args[1:] {
		switch {
		case a == t:
		case (a == column.Int64 && t == column.Float64) || (a == column.Float64 && t == column.Int64):
			t = column.Float64
		default:
			return 0, fmt.Errorf("%w: arguments of type %v and %v", column.ErrTypeMismatch, t, a)
		}
	}
	return t, nil
}

// valueToString converts a value to string
func valueToString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

// valueToNumber converts a value to float64
func valueToNumber(v interface{}) (float64, error) {
	if num, ok := toFloat64(v); ok {
		return num, nil
	}
	if str, ok := v.(string); ok {
		return strconv.ParseFloat(str, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to number", v)
}

// Conditional functions

func coalesceFunc() Function {
	return &rowFunction{
		name: "COALESCE", minArity: 1, maxArity: -1,
		handlesNulls: true,
		returnType:   returnsCommon,
		eval: func(args []interface{}) (interface{}, error) {
			for _, arg := range args {
				if arg != nil {
					return arg, nil
				}
			}
			return nil, nil
		},
	}
}

func nullIfFunc() Function {
	return &rowFunction{
		name: "NULLIF", minArity: 2, maxArity: 2,
		handlesNulls: true,
		returnType: func(args []column.DataType) (column.DataType, error) {
			return args[0], nil
		},
		eval: func(args []interface{}) (interface{}, error) {
			if args[0] == nil || args[1] == nil {
				return args[0], nil
			}
			if compareValues(args[0], args[1]) == 0 {
				return nil, nil
			}
			return args[0], nil
		},
	}
}
