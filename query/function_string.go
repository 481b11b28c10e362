package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/seqcat/column"
)

// stringFunc builds an immutable row function over text arguments
func stringFunc(name string, minArity, maxArity int, out column.DataType, eval func(args []interface{}) (interface{}, error)) Function {
	return &rowFunction{
		name:       name,
		minArity:   minArity,
		maxArity:   maxArity,
		returnType: returns(out),
		eval: func(args []interface{}) (interface{}, error) {
			v, err := eval(args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		},
	}
}

func stringFunctions() []Function {
	return []Function{
		stringFunc("UPPER", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
			str, err := valueToString(args[0])
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(str), nil
		}),
		stringFunc("LOWER", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
			str, err := valueToString(args[0])
			if err != nil {
				return nil, err
			}
			return strings.ToLower(str), nil
		}),
		stringFunc("CONCAT", 1, -1, column.Utf8, func(args []interface{}) (interface{}, error) {
			var builder strings.Builder
			for i, arg := range args {
				str, err := valueToString(arg)
				if err != nil {
					return nil, fmt.Errorf("argument %d: %w", i+1, err)
				}
				builder.WriteString(str)
			}
			return builder.String(), nil
		}),
		stringFunc("LENGTH", 1, 1, column.Int64, func(args []interface{}) (interface{}, error) {
			str, err := valueToString(args[0])
			if err != nil {
				return nil, err
			}
			return int64(len([]rune(str))), nil
		}),
		stringFunc("TRIM", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
			str, err := valueToString(args[0])
			if err != nil {
				return nil, err
			}
			return strings.TrimSpace(str), nil
		}),
		stringFunc("SUBSTRING", 2, 3, column.Utf8, substring),
		stringFunc("REPLACE", 3, 3, column.Utf8, func(args []interface{}) (interface{}, error) {
			strs, err := stringArgs(args)
			if err != nil {
				return nil, err
			}
			return strings.ReplaceAll(strs[0], strs[1], strs[2]), nil
		}),
		stringFunc("REVERSE", 1, 1, column.Utf8, func(args []interface{}) (interface{}, error) {
			str, err := valueToString(args[0])
			if err != nil {
				return nil, err
			}
			runes := []rune(str)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes), nil
		}),
		stringFunc("CONTAINS", 2, 2, column.Boolean, func(args []interface{}) (interface{}, error) {
			strs, err := stringArgs(args)
			if err != nil {
				return nil, err
			}
			return strings.Contains(strs[0], strs[1]), nil
		}),
		stringFunc("STARTS_WITH", 2, 2, column.Boolean, func(args []interface{}) (interface{}, error) {
			strs, err := stringArgs(args)
			if err != nil {
				return nil, err
			}
			return strings.HasPrefix(strs[0], strs[1]), nil
		}),
	}
}

func stringArgs(args []interface{}) ([]string, error) {
	strs := make([]string, len(args))
	for i, arg := range args {
		str, err := valueToString(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		strs[i] = str
	}
	return strs, nil
}

// substring extracts a substring (1-indexed, SQL style)
func substring(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, err
	}

	start, err := valueToNumber(args[1])
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	runes := []rune(str)
	startIdx := int(start) - 1

	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx >= len(runes) {
		return "", nil
	}

	if len(args) == 3 {
		length, err := valueToNumber(args[2])
		if err != nil {
			return nil, fmt.Errorf("length: %w", err)
		}
		if length < 0 {
			return "", nil
		}
		endIdx := min(startIdx+int(length), len(runes))
		return string(runes[startIdx:endIdx]), nil
	}

	return string(runes[startIdx:]), nil
}
