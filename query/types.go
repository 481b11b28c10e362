package query

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenIn
	TokenLike
	TokenBetween
	TokenIs
	TokenNot
	TokenNull

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenBool

	// Delimiters
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
	TokenStar       // *

	// Special
	TokenEOF
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenSelect: "SELECT", TokenFrom: "FROM", TokenWhere: "WHERE",
	TokenAnd: "AND", TokenOr: "OR", TokenAs: "AS", TokenGroup: "GROUP",
	TokenBy: "BY", TokenHaving: "HAVING", TokenOrder: "ORDER", TokenAsc: "ASC",
	TokenDesc: "DESC", TokenLimit: "LIMIT", TokenOffset: "OFFSET", TokenIn: "IN",
	TokenLike: "LIKE", TokenBetween: "BETWEEN", TokenIs: "IS", TokenNot: "NOT",
	TokenNull: "NULL", TokenEqual: "=", TokenNotEqual: "!=", TokenLess: "<",
	TokenGreater: ">", TokenLessEqual: "<=", TokenGreaterEqual: ">=",
	TokenString: "string", TokenNumber: "number", TokenIdent: "identifier",
	TokenBool: "boolean", TokenComma: ",", TokenLeftParen: "(",
	TokenRightParen: ")", TokenStar: "*", TokenEOF: "end of query",
	TokenError: "invalid token",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
}

// Query represents a parsed SQL query
type Query struct {
	TableName  string // Single file path or glob pattern
	SelectList []SelectItem
	Filter     Expression
	GroupBy    []string      // Column names to group by
	Having     Expression    // Post-aggregation filter
	OrderBy    []OrderByItem // Sort keys
	Limit      *int64        // Row limit
	Offset     *int64        // Row offset
}

// OrderByItem represents a column to sort by
type OrderByItem struct {
	Column string // Column name or alias
	Desc   bool   // DESC vs ASC (default)
}

// SelectItem represents a column or expression in the SELECT list
type SelectItem struct {
	Expr  SelectExpression // Column, function, or literal
	Alias string           // Optional alias (AS name)
}

// SelectExpression is a value-producing expression: a column, a literal or
// a function call. Calls are resolved against a session's registry when the
// query is planned.
type SelectExpression interface {
	fmt.Stringer
	selectExpr()
}

// ColumnRef references a column (or * for all columns)
type ColumnRef struct {
	Column string
}

// FunctionCall represents a function invocation. Star is set for COUNT(*).
type FunctionCall struct {
	Name string
	Args []SelectExpression
	Star bool
}

// LiteralExpr represents a literal value (int64, float64, string, bool or
// nil for NULL)
type LiteralExpr struct {
	Value interface{}
}

func (*ColumnRef) selectExpr()    {}
func (*FunctionCall) selectExpr() {}
func (*LiteralExpr) selectExpr()  {}

func (c *ColumnRef) String() string { return c.Column }

func (f *FunctionCall) String() string {
	if f.Star {
		return f.Name + "(*)"
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

func (l *LiteralExpr) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + v + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Expression is a boolean condition in a WHERE or HAVING clause
type Expression interface {
	fmt.Stringer
	expr()
}

// BinaryExpr represents a binary expression (AND/OR)
type BinaryExpr struct {
	Left     Expression
	Operator TokenType // TokenAnd or TokenOr
	Right    Expression
}

// ComparisonExpr compares a column or function result with a literal or
// another column
type ComparisonExpr struct {
	Left     SelectExpression
	Operator TokenType
	Right    SelectExpression
}

// InExpr represents an IN expression (expr IN (val1, val2, ...))
type InExpr struct {
	Left   SelectExpression
	Values []interface{}
	Negate bool // NOT IN
}

// LikeExpr represents a LIKE expression (expr LIKE 'pattern')
type LikeExpr struct {
	Left    SelectExpression
	Pattern string
	Negate  bool // NOT LIKE
}

// BetweenExpr represents a BETWEEN expression (expr BETWEEN lower AND upper)
type BetweenExpr struct {
	Left   SelectExpression
	Lower  interface{}
	Upper  interface{}
	Negate bool // NOT BETWEEN
}

// IsNullExpr represents an IS NULL expression (expr IS NULL / expr IS NOT NULL)
type IsNullExpr struct {
	Left   SelectExpression
	Negate bool // IS NOT NULL
}

func (*BinaryExpr) expr()     {}
func (*ComparisonExpr) expr() {}
func (*InExpr) expr()         {}
func (*LikeExpr) expr()       {}
func (*BetweenExpr) expr()    {}
func (*IsNullExpr) expr()     {}

func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Operator.String() + " " + b.Right.String() + ")"
}

func (c *ComparisonExpr) String() string {
	return c.Left.String() + " " + c.Operator.String() + " " + c.Right.String()
}

func (i *InExpr) String() string {
	vals := make([]string, len(i.Values))
	for j, v := range i.Values {
		vals[j] = (&LiteralExpr{Value: v}).String()
	}
	return i.Left.String() + negated(i.Negate) + " IN (" + strings.Join(vals, ", ") + ")"
}

func (l *LikeExpr) String() string {
	return l.Left.String() + negated(l.Negate) + " LIKE '" + l.Pattern + "'"
}

func (b *BetweenExpr) String() string {
	return fmt.Sprintf("%s%s BETWEEN %v AND %v", b.Left, negated(b.Negate), b.Lower, b.Upper)
}

func (i *IsNullExpr) String() string {
	if i.Negate {
		return i.Left.String() + " IS NOT NULL"
	}
	return i.Left.String() + " IS NULL"
}

func negated(n bool) string {
	if n {
		return " NOT"
	}
	return ""
}
