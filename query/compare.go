package query

import (
	"fmt"
	"math"
	"strings"
)

// compare compares two values using the given operator. Comparisons with
// NULL are never true.
func compare(left interface{}, operator TokenType, right interface{}) (bool, error) {
	if left == nil || right == nil {
		return false, nil
	}

	// Try numeric comparison
	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)

	if leftIsNum && rightIsNum {
		return compareNumbers(leftNum, operator, rightNum), nil
	}

	// Try string comparison
	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)

	if leftIsStr && rightIsStr {
		return compareStrings(leftStr, operator, rightStr), nil
	}

	// Try boolean comparison
	leftBool, leftIsBool := left.(bool)
	rightBool, rightIsBool := right.(bool)

	if leftIsBool && rightIsBool {
		return compareBools(leftBool, operator, rightBool), nil
	}

	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// compareNumbers compares two numbers
func compareNumbers(left float64, operator TokenType, right float64) bool {
	const epsilon = 1e-9
	switch operator {
	case TokenEqual, TokenNotEqual:
		// Relative epsilon for large numbers, absolute for small
		diff := math.Abs(left - right)
		threshold := epsilon * max(1.0, math.Abs(left), math.Abs(right))
		if operator == TokenEqual {
			return diff < threshold
		}
		return diff >= threshold
	case TokenLess:
		return left < right
	case TokenGreater:
		return left > right
	case TokenLessEqual:
		return left <= right
	case TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareStrings compares two strings (case-sensitive)
func compareStrings(left string, operator TokenType, right string) bool {
	switch operator {
	case TokenEqual:
		return left == right
	case TokenNotEqual:
		return left != right
	case TokenLess:
		return left < right
	case TokenGreater:
		return left > right
	case TokenLessEqual:
		return left <= right
	case TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareBools compares two booleans
func compareBools(left bool, operator TokenType, right bool) bool {
	switch operator {
	case TokenEqual:
		return left == right
	case TokenNotEqual:
		return left != right
	default:
		return false
	}
}

// compareValues orders two values for ORDER BY and MIN/MAX:
// -1 if a < b, 0 if equal, +1 if a > b. NULL sorts first.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	aNum, aIsNum := toFloat64(a)
	bNum, bIsNum := toFloat64(b)
	if aIsNum && bIsNum {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		}
		return 0
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.Compare(aStr, bStr)
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		switch {
		case !aBool && bBool:
			return -1 // false < true
		case aBool && !bBool:
			return 1
		}
		return 0
	}

	// Type mismatch or unsupported types - treat as equal
	return 0
}

// limitOffsetRange returns the [start, end) row range selected by LIMIT and
// OFFSET over n rows
func limitOffsetRange(n int, limit, offset *int64) (int, int) {
	start := int64(0)
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start >= int64(n) {
		return n, n
	}

	end := int64(n)
	if limit != nil && start+*limit < end {
		end = start + *limit
	}
	return int(start), int(end)
}

// matchLikePattern matches a string against a SQL LIKE pattern
// % matches any sequence of characters
// _ matches any single character
func matchLikePattern(str, pattern string) bool {
	segments := strings.Split(pattern, "%")
	pos := 0

	for i, segment := range segments {
		if segment == "" {
			// Empty segment means % was at start/end or consecutive %%
			continue
		}

		matchPos := findSegmentMatch(str[pos:], segment)
		if matchPos == -1 {
			return false
		}

		// The first segment must match at the start unless the pattern starts with %
		if i == 0 && matchPos != 0 {
			return false
		}

		pos += matchPos + len(segment)
	}

	// The last segment must match at the end unless the pattern ends with %
	if !strings.HasSuffix(pattern, "%") && pos != len(str) {
		// A trailing literal segment may match later in the string
		last := segments[len(segments)-1]
		if len(segments) == 1 || len(str)-len(last) < pos-len(last) {
			return false
		}
		return findSegmentMatch(str[len(str)-len(last):], last) == 0
	}

	return true
}

// findSegmentMatch finds the position where a segment matches in the string.
// Returns -1 if no match found. _ matches any single character.
func findSegmentMatch(str, segment string) int {
	if len(segment) == 0 {
		return 0
	}

	if !strings.Contains(segment, "_") {
		return strings.Index(str, segment)
	}

	for i := 0; i <= len(str)-len(segment); i++ {
		match := true
		for j := 0; j < len(segment); j++ {
			if segment[j] != '_' && str[i+j] != segment[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
