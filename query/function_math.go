package query

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vegasq/seqcat/column"
)

// mathFunc builds an immutable row function over numeric arguments that
// returns a float
func mathFunc(name string, minArity, maxArity int, eval func(nums []float64) (interface{}, error)) Function {
	return &rowFunction{
		name:       name,
		minArity:   minArity,
		maxArity:   maxArity,
		returnType: returnsNumeric(column.Float64),
		eval: func(args []interface{}) (interface{}, error) {
			nums := make([]float64, len(args))
			for i, arg := range args {
				num, err := valueToNumber(arg)
				if err != nil {
					return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
				}
				nums[i] = num
			}
			v, err := eval(nums)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		},
	}
}

func mathFunctions() []Function {
	return []Function{
		mathFunc("ABS", 1, 1, func(n []float64) (interface{}, error) {
			return math.Abs(n[0]), nil
		}),
		// ROUND(x[, decimals])
		mathFunc("ROUND", 1, 2, func(n []float64) (interface{}, error) {
			decimals := 0.0
			if len(n) == 2 {
				decimals = n[1]
			}
			multiplier := math.Pow(10, decimals)
			return math.Round(n[0]*multiplier) / multiplier, nil
		}),
		mathFunc("FLOOR", 1, 1, func(n []float64) (interface{}, error) {
			return math.Floor(n[0]), nil
		}),
		mathFunc("CEIL", 1, 1, func(n []float64) (interface{}, error) {
			return math.Ceil(n[0]), nil
		}),
		mathFunc("MOD", 2, 2, func(n []float64) (interface{}, error) {
			if n[1] == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return math.Mod(n[0], n[1]), nil
		}),
		mathFunc("SQRT", 1, 1, func(n []float64) (interface{}, error) {
			if n[0] < 0 {
				return nil, fmt.Errorf("cannot take square root of negative number")
			}
			return math.Sqrt(n[0]), nil
		}),
		mathFunc("POW", 2, 2, func(n []float64) (interface{}, error) {
			return math.Pow(n[0], n[1]), nil
		}),
		&rowFunction{
			name:       "RANDOM",
			volatility: Volatile,
			returnType: returns(column.Float64),
			eval: func([]interface{}) (interface{}, error) {
				return rand.Float64(), nil
			},
		},
	}
}
