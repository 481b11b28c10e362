package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/reader"
)

// evaluator computes one datum for every row of a batch
type evaluator interface {
	eval(b *column.Batch) (column.Datum, error)
	dataType() column.DataType
}

// columnEval reads a column of the batch by name
type columnEval struct {
	name string
	t    column.DataType
}

func (e *columnEval) dataType() column.DataType { return e.t }

func (e *columnEval) eval(b *column.Batch) (column.Datum, error) {
	col, ok := b.ColumnByName(e.name)
	if !ok {
		return column.Datum{}, fmt.Errorf("%w: %s", reader.ErrColumnNotFound, e.name)
	}
	return column.ColumnDatum(col), nil
}

// literalEval yields the same scalar for every row
type literalEval struct {
	value interface{}
	t     column.DataType
}

func newLiteral(v interface{}) *literalEval {
	t, ok := column.TypeOf(v)
	if !ok {
		t = column.Utf8 // untyped NULL
	}
	return &literalEval{value: v, t: t}
}

func (e *literalEval) dataType() column.DataType { return e.t }

func (e *literalEval) eval(*column.Batch) (column.Datum, error) {
	return column.ScalarDatum(e.t, e.value), nil
}

// callEval invokes a scalar function on the evaluated arguments
type callEval struct {
	fn   Function
	args []evaluator
	t    column.DataType
}

func (e *callEval) dataType() column.DataType { return e.t }

func (e *callEval) eval(b *column.Batch) (column.Datum, error) {
	args := make([]column.Datum, len(e.args))
	for i, arg := range e.args {
		d, err := arg.eval(b)
		if err != nil {
			return column.Datum{}, err
		}
		args[i] = d
	}
	out, err := e.fn.Invoke(args, b.NumRows())
	if err != nil {
		return column.Datum{}, err
	}
	if !out.IsScalar() && out.Column.Len() != b.NumRows() {
		return column.Datum{}, fmt.Errorf("%s returned %d rows, expected %d", e.fn.Name(), out.Column.Len(), b.NumRows())
	}
	return out, nil
}

// expand evaluates e over b as a full column
func expand(e evaluator, b *column.Batch) (column.Column, error) {
	d, err := e.eval(b)
	if err != nil {
		return nil, err
	}
	return d.Expand(b.NumRows())
}

// aggCall is one aggregate computed per group. Its finalized values are
// exposed to HAVING and the select list as the column slot.
type aggCall struct {
	fn   AggregateFunction
	arg  evaluator // nil for name(*)
	slot string
	t    column.DataType
}

type output struct {
	name string
	eval evaluator
}

// orderKey sorts by an output column (output >= 0) or by eval
type orderKey struct {
	output int
	eval   evaluator
	desc   bool
}

// plan is a query bound to a registry and a source schema
type plan struct {
	aggregate bool
	outputs   []output
	filter    predicate
	groupBy   []column.Field
	aggs      []*aggCall
	having    predicate
	orderBy   []orderKey
	limit     *int64
	offset    *int64
	// columns is the projection pushed down to the reader; nil reads all
	columns []string
}

// bindMode selects what an expression is evaluated against
type bindMode int

const (
	// rowMode expressions see the columns of source batches
	rowMode bindMode = iota
	// groupMode expressions see GROUP BY columns and aggregate slots
	groupMode
)

type planner struct {
	registry  *FunctionRegistry
	fields    []column.Field
	aggregate bool
	groupBy   []column.Field
	aggs      []*aggCall
	aggSlots  map[string]*aggCall
	aliases   map[string]evaluator
	required  []string
	seen      map[string]bool
	readAll   bool
}

// buildPlan resolves names, types and functions of q against the source
// fields
func buildPlan(q *Query, registry *FunctionRegistry, fields []column.Field) (*plan, error) {
	p := &planner{
		registry: registry,
		fields:   fields,
		aggSlots: make(map[string]*aggCall),
		aliases:  make(map[string]evaluator),
		seen:     make(map[string]bool),
	}
	p.aggregate = len(q.GroupBy) > 0 || p.hasAggregateOnlyCall(q)

	pl := &plan{aggregate: p.aggregate, limit: q.Limit, offset: q.Offset}

	for _, name := range q.GroupBy {
		field, err := p.requireField(name)
		if err != nil {
			return nil, fmt.Errorf("GROUP BY: %w", err)
		}
		p.groupBy = append(p.groupBy, field)
	}

	mode := rowMode
	if p.aggregate {
		mode = groupMode
	}
	for i, item := range q.SelectList {
		if ref, ok := item.Expr.(*ColumnRef); ok && ref.Column == "*" {
			if p.aggregate {
				return nil, fmt.Errorf("SELECT * is not allowed with GROUP BY or aggregate functions")
			}
			p.readAll = true
			for _, f := range p.fields {
				pl.outputs = append(pl.outputs, output{name: f.Name, eval: &columnEval{name: f.Name, t: f.Type}})
			}
			continue
		}

		e, err := p.bind(item.Expr, mode, false)
		if err != nil {
			return nil, err
		}
		pl.outputs = append(pl.outputs, output{name: outputName(item, i), eval: e})
		if item.Alias != "" {
			p.aliases[strings.ToLower(item.Alias)] = e
		}
	}

	if q.Filter != nil {
		filter, err := p.bindPredicate(q.Filter, rowMode)
		if err != nil {
			return nil, fmt.Errorf("WHERE: %w", err)
		}
		pl.filter = filter
	}

	if q.Having != nil {
		having, err := p.bindPredicate(q.Having, groupMode)
		if err != nil {
			return nil, fmt.Errorf("HAVING: %w", err)
		}
		pl.having = having
	}

	for _, item := range q.OrderBy {
		key, err := p.bindOrderKey(item, pl.outputs)
		if err != nil {
			return nil, fmt.Errorf("ORDER BY: %w", err)
		}
		pl.orderBy = append(pl.orderBy, key)
	}

	pl.groupBy = p.groupBy
	pl.aggs = p.aggs
	switch {
	case p.readAll:
		pl.columns = nil
	case len(p.required) == 0 && len(p.fields) > 0:
		// Row counts still need one column to be read
		pl.columns = []string{p.fields[0].Name}
	default:
		pl.columns = p.required
	}
	return pl, nil
}

// outputName derives the result column name of a select item
func outputName(item SelectItem, i int) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch e := item.Expr.(type) {
	case *ColumnRef:
		return e.Column
	case *FunctionCall:
		return strings.ToLower(e.Name)
	default:
		return fmt.Sprintf("literal_%d", i)
	}
}

func (p *planner) lookupField(name string) (column.Field, bool) {
	for _, f := range p.fields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range p.fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return column.Field{}, false
}

// requireField resolves a source column and adds it to the projection
func (p *planner) requireField(name string) (column.Field, error) {
	f, ok := p.lookupField(name)
	if !ok {
		return column.Field{}, fmt.Errorf("%w: %s", reader.ErrColumnNotFound, name)
	}
	if !p.seen[f.Name] {
		p.seen[f.Name] = true
		p.required = append(p.required, f.Name)
	}
	return f, nil
}

// hasAggregateOnlyCall reports whether the select list or HAVING calls a
// function that exists only as an aggregate
func (p *planner) hasAggregateOnlyCall(q *Query) bool {
	found := false
	visit := func(e SelectExpression) {
		walkSelectExpression(e, func(call *FunctionCall) {
			_, isScalar := p.registry.Scalar(call.Name)
			_, isAgg := p.registry.Aggregate(call.Name)
			if isAgg && !isScalar {
				found = true
			}
		})
	}
	for _, item := range q.SelectList {
		visit(item.Expr)
	}
	if q.Having != nil {
		walkOperands(q.Having, visit)
	}
	return found
}

func walkSelectExpression(e SelectExpression, fn func(*FunctionCall)) {
	call, ok := e.(*FunctionCall)
	if !ok {
		return
	}
	fn(call)
	for _, arg := range call.Args {
		walkSelectExpression(arg, fn)
	}
}

func walkOperands(expr Expression, fn func(SelectExpression)) {
	switch e := expr.(type) {
	case *BinaryExpr:
		walkOperands(e.Left, fn)
		walkOperands(e.Right, fn)
	case *ComparisonExpr:
		fn(e.Left)
		fn(e.Right)
	case *InExpr:
		fn(e.Left)
	case *LikeExpr:
		fn(e.Left)
	case *BetweenExpr:
		fn(e.Left)
	case *IsNullExpr:
		fn(e.Left)
	}
}

// bind turns a select expression into an evaluator. inAggregate is set while
// binding the argument of an aggregate call.
func (p *planner) bind(expr SelectExpression, mode bindMode, inAggregate bool) (evaluator, error) {
	switch e := expr.(type) {
	case *ColumnRef:
		if e.Column == "*" {
			return nil, fmt.Errorf("* is only valid as a select item or in COUNT(*)")
		}
		if mode == groupMode {
			for _, f := range p.groupBy {
				if strings.EqualFold(f.Name, e.Column) {
					return &columnEval{name: f.Name, t: f.Type}, nil
				}
			}
			// HAVING may refer to select aliases
			if aliased, ok := p.aliases[strings.ToLower(e.Column)]; ok {
				return aliased, nil
			}
			return nil, fmt.Errorf("column %q must appear in GROUP BY clause or be used in an aggregate function", e.Column)
		}
		f, err := p.requireField(e.Column)
		if err != nil {
			return nil, err
		}
		return &columnEval{name: f.Name, t: f.Type}, nil
	case *LiteralExpr:
		return newLiteral(e.Value), nil
	case *FunctionCall:
		return p.bindCall(e, mode, inAggregate)
	}
	return nil, fmt.Errorf("unsupported expression: %v", expr)
}

// bindCall resolves a call to a scalar or an aggregate. A name registered as
// both is an aggregate in group context and a scalar everywhere else.
func (p *planner) bindCall(call *FunctionCall, mode bindMode, inAggregate bool) (evaluator, error) {
	scalar, isScalar := p.registry.Scalar(call.Name)
	agg, isAgg := p.registry.Aggregate(call.Name)

	if isAgg && (mode == groupMode || !isScalar) {
		if mode == rowMode {
			if inAggregate {
				return nil, fmt.Errorf("aggregate function calls cannot be nested: %s", call)
			}
			return nil, fmt.Errorf("aggregate function %s is not allowed in WHERE", call.Name)
		}
		return p.bindAggregate(call, agg)
	}
	if !isScalar {
		return nil, fmt.Errorf("unknown function: %s", call.Name)
	}
	if call.Star {
		return nil, fmt.Errorf("%s(*) is only valid for aggregate functions", call.Name)
	}
	if err := checkArity(scalar, len(call.Args)); err != nil {
		return nil, err
	}

	args := make([]evaluator, len(call.Args))
	types := make([]column.DataType, len(call.Args))
	allLiteral := true
	for i, a := range call.Args {
		e, err := p.bind(a, mode, inAggregate)
		if err != nil {
			return nil, err
		}
		args[i] = e
		types[i] = e.dataType()
		_, lit := e.(*literalEval)
		allLiteral = allLiteral && lit
	}

	t, err := scalar.ReturnType(types)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Name, err)
	}
	// Fold calls whose result cannot change between rows
	if allLiteral && scalar.Volatility() != Volatile {
		datums := make([]column.Datum, len(args))
		for i, a := range args {
			datums[i], _ = a.eval(nil)
		}
		d, err := scalar.Invoke(datums, 1)
		if err != nil {
			return nil, err
		}
		return &literalEval{value: d.Value(0), t: t}, nil
	}
	return &callEval{fn: scalar, args: args, t: t}, nil
}

func (p *planner) bindAggregate(call *FunctionCall, agg AggregateFunction) (evaluator, error) {
	key := call.String()
	if a, ok := p.aggSlots[key]; ok {
		return &columnEval{name: a.slot, t: a.t}, nil
	}

	a := &aggCall{fn: agg, slot: fmt.Sprintf("__agg_%d", len(p.aggs))}
	if call.Star {
		if !agg.AllowStar() {
			return nil, fmt.Errorf("%s(*) is not supported", call.Name)
		}
		t, err := agg.ReturnType(column.Int64)
		if err != nil {
			return nil, err
		}
		a.t = t
	} else {
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("%s expects exactly one argument, got %d", call.Name, len(call.Args))
		}
		arg, err := p.bind(call.Args[0], rowMode, true)
		if err != nil {
			return nil, err
		}
		t, err := agg.ReturnType(arg.dataType())
		if err != nil {
			return nil, err
		}
		a.arg, a.t = arg, t
	}

	p.aggs = append(p.aggs, a)
	p.aggSlots[key] = a
	return &columnEval{name: a.slot, t: a.t}, nil
}

func (p *planner) bindOrderKey(item OrderByItem, outputs []output) (orderKey, error) {
	for i, o := range outputs {
		if o.name == item.Column {
			return orderKey{output: i, desc: item.Desc}, nil
		}
	}
	for i, o := range outputs {
		if strings.EqualFold(o.name, item.Column) {
			return orderKey{output: i, desc: item.Desc}, nil
		}
	}

	if p.aggregate {
		for _, f := range p.groupBy {
			if strings.EqualFold(f.Name, item.Column) {
				return orderKey{output: -1, eval: &columnEval{name: f.Name, t: f.Type}, desc: item.Desc}, nil
			}
		}
		return orderKey{}, fmt.Errorf("column %q must appear in the select list or GROUP BY", item.Column)
	}

	f, err := p.requireField(item.Column)
	if err != nil {
		return orderKey{}, err
	}
	return orderKey{output: -1, eval: &columnEval{name: f.Name, t: f.Type}, desc: item.Desc}, nil
}
