package query

import (
	"fmt"

	"github.com/vegasq/seqcat/column"
)

// predicate selects rows of a batch. Rows where the condition is NULL are
// not selected.
type predicate interface {
	mask(b *column.Batch) ([]bool, error)
}

func (p *planner) bindPredicate(expr Expression, mode bindMode) (predicate, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		left, err := p.bindPredicate(e.Left, mode)
		if err != nil {
			return nil, err
		}
		right, err := p.bindPredicate(e.Right, mode)
		if err != nil {
			return nil, err
		}
		return &logicalPred{op: e.Operator, left: left, right: right}, nil
	case *ComparisonExpr:
		left, err := p.bind(e.Left, mode, false)
		if err != nil {
			return nil, err
		}
		right, err := p.bind(e.Right, mode, false)
		if err != nil {
			return nil, err
		}
		return &comparePred{left: left, op: e.Operator, right: right}, nil
	case *InExpr:
		left, err := p.bind(e.Left, mode, false)
		if err != nil {
			return nil, err
		}
		return &inPred{left: left, values: e.Values, negate: e.Negate}, nil
	case *LikeExpr:
		left, err := p.bind(e.Left, mode, false)
		if err != nil {
			return nil, err
		}
		return &likePred{left: left, pattern: e.Pattern, negate: e.Negate}, nil
	case *BetweenExpr:
		left, err := p.bind(e.Left, mode, false)
		if err != nil {
			return nil, err
		}
		return &betweenPred{left: left, lower: e.Lower, upper: e.Upper, negate: e.Negate}, nil
	case *IsNullExpr:
		left, err := p.bind(e.Left, mode, false)
		if err != nil {
			return nil, err
		}
		return &isNullPred{left: left, negate: e.Negate}, nil
	}
	return nil, fmt.Errorf("unsupported condition: %v", expr)
}

// rowTest evaluates operand and applies test to the value of every row.
// NULL values never match.
func rowTest(b *column.Batch, operand evaluator, test func(v interface{}) (bool, error)) ([]bool, error) {
	d, err := operand.eval(b)
	if err != nil {
		return nil, err
	}
	out := make([]bool, b.NumRows())
	for i := range out {
		v := d.Value(i)
		if v == nil {
			continue
		}
		if out[i], err = test(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type logicalPred struct {
	op          TokenType
	left, right predicate
}

func (p *logicalPred) mask(b *column.Batch) ([]bool, error) {
	left, err := p.left.mask(b)
	if err != nil {
		return nil, err
	}
	right, err := p.right.mask(b)
	if err != nil {
		return nil, err
	}
	for i := range left {
		if p.op == TokenAnd {
			left[i] = left[i] && right[i]
		} else {
			left[i] = left[i] || right[i]
		}
	}
	return left, nil
}

type comparePred struct {
	left  evaluator
	op    TokenType
	right evaluator
}

func (p *comparePred) mask(b *column.Batch) ([]bool, error) {
	left, err := p.left.eval(b)
	if err != nil {
		return nil, err
	}
	right, err := p.right.eval(b)
	if err != nil {
		return nil, err
	}
	out := make([]bool, b.NumRows())
	for i := range out {
		if out[i], err = compare(left.Value(i), p.op, right.Value(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type inPred struct {
	left   evaluator
	values []interface{}
	negate bool
}

func (p *inPred) mask(b *column.Batch) ([]bool, error) {
	return rowTest(b, p.left, func(v interface{}) (bool, error) {
		for _, candidate := range p.values {
			if candidate == nil {
				continue
			}
			if match, err := compare(v, TokenEqual, candidate); err == nil && match {
				return !p.negate, nil
			}
		}
		return p.negate, nil
	})
}

type likePred struct {
	left    evaluator
	pattern string
	negate  bool
}

func (p *likePred) mask(b *column.Batch) ([]bool, error) {
	return rowTest(b, p.left, func(v interface{}) (bool, error) {
		str, ok := v.(string)
		if !ok {
			return false, fmt.Errorf("LIKE requires a string value, got %T", v)
		}
		return matchLikePattern(str, p.pattern) != p.negate, nil
	})
}

type betweenPred struct {
	left         evaluator
	lower, upper interface{}
	negate       bool
}

func (p *betweenPred) mask(b *column.Batch) ([]bool, error) {
	return rowTest(b, p.left, func(v interface{}) (bool, error) {
		geLower, err := compare(v, TokenGreaterEqual, p.lower)
		if err != nil {
			return false, err
		}
		leUpper, err := compare(v, TokenLessEqual, p.upper)
		if err != nil {
			return false, err
		}
		return (geLower && leUpper) != p.negate, nil
	})
}

type isNullPred struct {
	left   evaluator
	negate bool
}

func (p *isNullPred) mask(b *column.Batch) ([]bool, error) {
	d, err := p.left.eval(b)
	if err != nil {
		return nil, err
	}
	out := make([]bool, b.NumRows())
	for i := range out {
		out[i] = d.IsNull(i) != p.negate
	}
	return out, nil
}
