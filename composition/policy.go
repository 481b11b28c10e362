package composition

import (
	"fmt"
	"strings"
)

// Policy decides how an undefined result is reported.
type Policy int

const (
	// PolicyNull reports an undefined result as NULL.
	PolicyNull Policy = iota
	// PolicyZero reports an undefined result as 0.0.
	PolicyZero
)

func (p Policy) String() string {
	if p == PolicyZero {
		return "zero"
	}
	return "null"
}

// ParsePolicy parses "null" or "zero". An empty string is PolicyNull.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null":
		return PolicyNull, nil
	case "zero":
		return PolicyZero, nil
	default:
		return PolicyNull, fmt.Errorf("unknown undefined-result policy %q (want null or zero)", s)
	}
}

// Resolve applies the policy to a computed result. valid is false when the
// result must be emitted as NULL.
func (p Policy) Resolve(pct float64, ok bool) (value float64, valid bool) {
	if ok {
		return pct, true
	}
	if p == PolicyZero {
		return 0, true
	}
	return 0, false
}
