package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses SQL queries into AST
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		depthCounter: NewExpressionDepthCounter(),
	}
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return fmt.Errorf("expected %v, got %v", tokType, p.describe())
	}
	p.advance()
	return nil
}

// describe names the current token for error messages
func (p *Parser) describe() string {
	tok := p.current()
	switch tok.Type {
	case TokenEOF:
		return "end of query"
	case TokenError:
		return fmt.Sprintf("invalid token %q", tok.Value)
	case TokenString:
		return fmt.Sprintf("'%s'", tok.Value)
	default:
		return fmt.Sprintf("%q", tok.Value)
	}
}

// Parse parses a SQL query
func Parse(query string) (*Query, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	tokens := Tokenize(query)
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	q, err := parser.parseQuery()
	if err != nil {
		return nil, err
	}

	// Validate that we consumed all tokens (should be at EOF)
	if parser.current().Type == TokenError {
		return nil, fmt.Errorf("invalid character in query: %s", parser.current().Value)
	}
	if parser.current().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected trailing tokens after query: %s", parser.current().Value)
	}

	return q, nil
}

// parseQuery parses: SELECT list FROM table [WHERE] [GROUP BY] [HAVING]
// [ORDER BY] [LIMIT] [OFFSET]
func (p *Parser) parseQuery() (*Query, error) {
	if err := p.expect(TokenSelect); err != nil {
		return nil, fmt.Errorf("query must start with SELECT: %w", err)
	}

	selectList, err := p.parseSelectList()
	if err != nil {
		return nil, fmt.Errorf("failed to parse SELECT list: %w", err)
	}

	if err := p.expect(TokenFrom); err != nil {
		return nil, fmt.Errorf("expected FROM after SELECT list: %w", err)
	}

	// Table name may be a quoted path or glob pattern like 'data/*.parquet'
	if p.current().Type != TokenIdent && p.current().Type != TokenString {
		return nil, fmt.Errorf("expected table name after FROM, got %s", p.describe())
	}
	tableName := p.current().Value
	if err := ValidateTableName(tableName); err != nil {
		return nil, err
	}
	p.advance()

	q := &Query{
		TableName:  tableName,
		SelectList: selectList,
	}

	if p.current().Type == TokenWhere {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q.Filter = expr
	}

	if p.current().Type == TokenGroup {
		groupBy, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		q.GroupBy = groupBy
	}

	if p.current().Type == TokenHaving {
		if len(q.GroupBy) == 0 {
			return nil, fmt.Errorf("HAVING clause requires GROUP BY")
		}
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q.Having = expr
	}

	if p.current().Type == TokenOrder {
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = orderBy
	}

	if p.current().Type == TokenLimit {
		limit, err := p.parseCount(TokenLimit)
		if err != nil {
			return nil, err
		}
		q.Limit = limit
	}

	if p.current().Type == TokenOffset {
		offset, err := p.parseCount(TokenOffset)
		if err != nil {
			return nil, err
		}
		q.Offset = offset
	}

	return q, nil
}

func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return items, nil
}

// parseSelectItem parses an expression with an optional alias, with or
// without AS
func (p *Parser) parseSelectItem() (SelectItem, error) {
	expr, err := p.parseSelectExpression()
	if err != nil {
		return SelectItem{}, err
	}

	item := SelectItem{Expr: expr}
	switch p.current().Type {
	case TokenAs:
		p.advance()
		if p.current().Type != TokenIdent && p.current().Type != TokenString {
			return SelectItem{}, fmt.Errorf("expected alias after AS, got %s", p.describe())
		}
		item.Alias = p.current().Value
		p.advance()
	case TokenIdent:
		item.Alias = p.current().Value
		p.advance()
	}

	if item.Alias != "" {
		if err := ValidateColumnName(item.Alias); err != nil {
			return SelectItem{}, err
		}
		if ref, ok := expr.(*ColumnRef); ok && ref.Column == "*" {
			return SelectItem{}, fmt.Errorf("* cannot have an alias")
		}
	}
	return item, nil
}

// parseSelectExpression parses a column reference, *, literal or function
// call
func (p *Parser) parseSelectExpression() (SelectExpression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	switch p.current().Type {
	case TokenStar:
		p.advance()
		return &ColumnRef{Column: "*"}, nil
	case TokenNumber, TokenString, TokenBool, TokenNull:
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Value: value}, nil
	case TokenIdent:
		if p.peek().Type == TokenLeftParen {
			return p.parseFunctionCall()
		}
		column := p.current().Value
		if err := ValidateColumnName(column); err != nil {
			return nil, err
		}
		p.advance()
		return &ColumnRef{Column: column}, nil
	}

	return nil, fmt.Errorf("expected column name, literal, or function call, got %s", p.describe())
}

// parseFunctionCall parses name(args...) and name(*)
func (p *Parser) parseFunctionCall() (SelectExpression, error) {
	call := &FunctionCall{Name: p.current().Value}
	p.advance() // skip function name

	if err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected '(' after function name: %w", err)
	}

	switch p.current().Type {
	case TokenRightParen:
		p.advance()
		return call, nil
	case TokenStar:
		p.advance()
		call.Star = true
		if err := p.expect(TokenRightParen); err != nil {
			return nil, fmt.Errorf("%s(*) takes no other arguments: %w", call.Name, err)
		}
		return call, nil
	}

	for {
		arg, err := p.parseSelectExpression()
		if err != nil {
			return nil, err
		}
		if ref, ok := arg.(*ColumnRef); ok && ref.Column == "*" {
			return nil, fmt.Errorf("%s: * is only valid as the sole argument", call.Name)
		}
		call.Args = append(call.Args, arg)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ')' after function arguments: %w", err)
	}
	return call, nil
}

// parseLiteral parses a number, string, boolean or NULL
func (p *Parser) parseLiteral() (interface{}, error) {
	tok := p.current()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		// Try to parse as int first, then float
		if intVal, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return intVal, nil
		}
		if floatVal, err := strconv.ParseFloat(tok.Value, 64); err == nil {
			return floatVal, nil
		}
		return nil, fmt.Errorf("invalid number: %s", tok.Value)
	case TokenString:
		p.advance()
		return tok.Value, nil
	case TokenBool:
		p.advance()
		return strings.EqualFold(tok.Value, "true"), nil
	case TokenNull:
		p.advance()
		return nil, nil
	}
	return nil, fmt.Errorf("expected literal value, got %s", p.describe())
}

// parseGroupBy parses the GROUP BY clause
func (p *Parser) parseGroupBy() ([]string, error) {
	if err := p.expect(TokenGroup); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, fmt.Errorf("expected BY after GROUP: %w", err)
	}

	var columns []string
	for {
		if p.current().Type != TokenIdent {
			return nil, fmt.Errorf("expected column name in GROUP BY, got %s", p.describe())
		}
		column := p.current().Value
		if err := ValidateColumnName(column); err != nil {
			return nil, err
		}
		columns = append(columns, column)
		p.advance()

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return columns, nil
}

// parseOrderBy parses the ORDER BY clause
func (p *Parser) parseOrderBy() ([]OrderByItem, error) {
	if err := p.expect(TokenOrder); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, fmt.Errorf("expected BY after ORDER: %w", err)
	}

	var items []OrderByItem
	for {
		if p.current().Type != TokenIdent && p.current().Type != TokenString {
			return nil, fmt.Errorf("expected column name in ORDER BY, got %s", p.describe())
		}
		column := p.current().Value
		if err := ValidateColumnName(column); err != nil {
			return nil, err
		}
		item := OrderByItem{Column: column}
		p.advance()

		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Desc = true
			p.advance()
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return items, nil
}

// parseCount parses LIMIT n or OFFSET n
func (p *Parser) parseCount(keyword TokenType) (*int64, error) {
	if err := p.expect(keyword); err != nil {
		return nil, err
	}
	if p.current().Type != TokenNumber {
		return nil, fmt.Errorf("expected number after %v, got %s", keyword, p.describe())
	}

	numStr := p.current().Value
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %v value: %s", keyword, numStr)
	}
	if n < 0 {
		return nil, fmt.Errorf("%v must be non-negative, got %d", keyword, n)
	}

	p.advance()
	return &n, nil
}
