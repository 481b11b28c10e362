package query

import "fmt"

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: TokenOr, Right: right}
	}

	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: TokenAnd, Right: right}
	}

	return left, nil
}

// parseComparison parses a parenthesized condition or a predicate whose
// left side is a column or function call
func (p *Parser) parseComparison() (Expression, error) {
	if p.current().Type == TokenLeftParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, fmt.Errorf("expected ')' to close condition: %w", err)
		}
		return expr, nil
	}

	if p.current().Type != TokenIdent {
		return nil, fmt.Errorf("expected column name or function call, got %s", p.describe())
	}
	left, err := p.parseSelectExpression()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenIn:
		return p.parseInExpr(left, false)
	case TokenLike:
		return p.parseLikeExpr(left, false)
	case TokenBetween:
		return p.parseBetweenExpr(left, false)
	case TokenIs:
		return p.parseIsNullExpr(left)
	case TokenNot:
		p.advance()
		switch p.current().Type {
		case TokenIn:
			return p.parseInExpr(left, true)
		case TokenLike:
			return p.parseLikeExpr(left, true)
		case TokenBetween:
			return p.parseBetweenExpr(left, true)
		default:
			return nil, fmt.Errorf("expected IN, LIKE, or BETWEEN after NOT, got %s", p.describe())
		}
	}

	operator := p.current().Type
	switch operator {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		p.advance()
	default:
		return nil, fmt.Errorf("expected comparison operator, got %s", p.describe())
	}

	// Right side is a literal, a column or a function call
	right, err := p.parseSelectExpression()
	if err != nil {
		return nil, fmt.Errorf("expected value (string, number, bool) or column name: %w", err)
	}
	if ref, ok := right.(*ColumnRef); ok && ref.Column == "*" {
		return nil, fmt.Errorf("* is not valid in a comparison")
	}

	return &ComparisonExpr{Left: left, Operator: operator, Right: right}, nil
}

// parseInExpr parses: expr IN (val1, val2, ...)
func (p *Parser) parseInExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected '(' after IN: %w", err)
	}

	var values []interface{}
	for {
		value, err := p.parseLiteral()
		if err != nil {
			return nil, fmt.Errorf("IN list: %w", err)
		}
		values = append(values, value)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ')' after IN list: %w", err)
	}

	return &InExpr{Left: left, Values: values, Negate: negate}, nil
}

// parseLikeExpr parses: expr LIKE 'pattern'
func (p *Parser) parseLikeExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenLike); err != nil {
		return nil, err
	}
	if p.current().Type != TokenString {
		return nil, fmt.Errorf("expected string pattern after LIKE, got %s", p.describe())
	}
	pattern := p.current().Value
	p.advance()

	return &LikeExpr{Left: left, Pattern: pattern, Negate: negate}, nil
}

// parseBetweenExpr parses: expr BETWEEN lower AND upper
func (p *Parser) parseBetweenExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenBetween); err != nil {
		return nil, err
	}

	lower, err := p.parseLiteral()
	if err != nil {
		return nil, fmt.Errorf("BETWEEN lower bound: %w", err)
	}
	if err := p.expect(TokenAnd); err != nil {
		return nil, fmt.Errorf("expected AND in BETWEEN: %w", err)
	}
	upper, err := p.parseLiteral()
	if err != nil {
		return nil, fmt.Errorf("BETWEEN upper bound: %w", err)
	}

	return &BetweenExpr{Left: left, Lower: lower, Upper: upper, Negate: negate}, nil
}

// parseIsNullExpr parses: expr IS [NOT] NULL
func (p *Parser) parseIsNullExpr(left SelectExpression) (Expression, error) {
	if err := p.expect(TokenIs); err != nil {
		return nil, err
	}

	negate := false
	if p.current().Type == TokenNot {
		negate = true
		p.advance()
	}

	if err := p.expect(TokenNull); err != nil {
		return nil, fmt.Errorf("expected NULL after IS: %w", err)
	}

	return &IsNullExpr{Left: left, Negate: negate}, nil
}
