package query

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vegasq/seqcat/column"
	"github.com/vegasq/seqcat/reader"
)

// partial is the result of processing one source batch
type partial struct {
	// projected rows and extra ORDER BY keys, without aggregation
	batch *column.Batch
	keys  []column.Column
	// per-group accumulators, with aggregation
	groups *groupTable
}

// groupTable keeps groups in first-seen order
type groupTable struct {
	order  []string
	groups map[string]*groupState
}

type groupState struct {
	values []interface{} // GROUP BY values
	accs   []Accumulator
}

func newGroupTable() *groupTable {
	return &groupTable{groups: make(map[string]*groupState)}
}

func (t *groupTable) add(key string, st *groupState) {
	t.order = append(t.order, key)
	t.groups[key] = st
}

// merge folds other into t. Groups new to t are adopted and appended in
// other's order.
func (t *groupTable) merge(other *groupTable) error {
	for _, key := range other.order {
		src := other.groups[key]
		dst, ok := t.groups[key]
		if !ok {
			t.add(key, src)
			continue
		}
		for i, acc := range dst.accs {
			if err := acc.Merge(src.accs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (pl *plan) newAccumulators() []Accumulator {
	accs := make([]Accumulator, len(pl.aggs))
	for i, a := range pl.aggs {
		accs[i] = a.fn.NewAccumulator()
	}
	return accs
}

// execute scans the source and runs the plan. Batches are processed by up
// to parallelism workers; their partial results are combined in batch order.
func (pl *plan) execute(ctx context.Context, table string, opts reader.Options, parallelism int, stats *Stats) (*column.Batch, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))

	var partials []*partial
	files, readErr := reader.ReadMultipleFiles(table, pl.columns, opts, func(b *column.Batch) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		slot := &partial{}
		partials = append(partials, slot)
		stats.Batches++
		stats.RowsScanned += int64(b.NumRows())

		g.Go(func() error {
			p, err := pl.processBatch(b)
			if err != nil {
				return err
			}
			*slot = *p
			return nil
		})
		return nil
	})
	stats.Files = files

	// A worker error cancels the scan; report the worker's error first
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, readErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pl.aggregate {
		return pl.finishAggregate(partials)
	}
	return pl.finishRows(partials)
}

// processBatch filters one batch and projects or partially aggregates it
func (pl *plan) processBatch(b *column.Batch) (*partial, error) {
	// Apply WHERE filter
	if pl.filter != nil {
		mask, err := pl.filter.mask(b)
		if err != nil {
			return nil, fmt.Errorf("failed to apply filter: %w", err)
		}
		b = b.Filter(mask)
	}

	if pl.aggregate {
		groups, err := pl.accumulate(b)
		if err != nil {
			return nil, fmt.Errorf("failed to apply aggregation: %w", err)
		}
		return &partial{groups: groups}, nil
	}

	out, err := pl.project(b)
	if err != nil {
		return nil, fmt.Errorf("failed to apply select list: %w", err)
	}
	keys := make([]column.Column, 0, len(pl.orderBy))
	for _, k := range pl.orderBy {
		if k.output >= 0 {
			continue
		}
		col, err := expand(k.eval, b)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate ORDER BY: %w", err)
		}
		keys = append(keys, col)
	}
	return &partial{batch: out, keys: keys}, nil
}

// project evaluates the select list over b
func (pl *plan) project(b *column.Batch) (*column.Batch, error) {
	names := make([]string, len(pl.outputs))
	cols := make([]column.Column, len(pl.outputs))
	for i, o := range pl.outputs {
		col, err := expand(o.eval, b)
		if err != nil {
			return nil, err
		}
		names[i], cols[i] = o.name, col
	}
	return column.NewBatch(names, cols)
}

// emptyOutput is the result of a scan that produced no batches
func (pl *plan) emptyOutput() (*column.Batch, error) {
	names := make([]string, len(pl.outputs))
	cols := make([]column.Column, len(pl.outputs))
	for i, o := range pl.outputs {
		b, err := column.NewBuilder(o.eval.dataType(), 0)
		if err != nil {
			return nil, err
		}
		names[i], cols[i] = o.name, b.Build()
	}
	return column.NewBatch(names, cols)
}

// accumulate groups the rows of b and updates one accumulator set per group
func (pl *plan) accumulate(b *column.Batch) (*groupTable, error) {
	n := b.NumRows()
	table := newGroupTable()
	if n == 0 {
		return table, nil
	}

	keyNames := make([]string, len(pl.groupBy))
	keyCols := make([]column.Column, len(pl.groupBy))
	for i, f := range pl.groupBy {
		col, err := expand(&columnEval{name: f.Name, t: f.Type}, b)
		if err != nil {
			return nil, err
		}
		keyNames[i], keyCols[i] = f.Name, col
	}

	argCols := make([]column.Column, len(pl.aggs))
	for i, a := range pl.aggs {
		if a.arg == nil {
			continue
		}
		col, err := expand(a.arg, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.fn.Name(), err)
		}
		argCols[i] = col
	}

	// Hash-based grouping
	var order []string
	rowsByKey := make(map[string][]int)
	for i := 0; i < n; i++ {
		key := computeGroupKey(keyCols, keyNames, i)
		if _, ok := rowsByKey[key]; !ok {
			order = append(order, key)
		}
		rowsByKey[key] = append(rowsByKey[key], i)
	}

	for _, key := range order {
		indices := rowsByKey[key]
		st := &groupState{
			values: make([]interface{}, len(keyCols)),
			accs:   pl.newAccumulators(),
		}
		for j, col := range keyCols {
			st.values[j] = col.Value(indices[0])
		}
		for j, acc := range st.accs {
			col := argCols[j]
			if col != nil && len(indices) != n {
				col = column.Take(col, indices)
			}
			if err := acc.Update(col, len(indices)); err != nil {
				return nil, fmt.Errorf("%s: %w", pl.aggs[j].fn.Name(), err)
			}
		}
		table.add(key, st)
	}
	return table, nil
}

// groupBatch finalizes every group into a batch of GROUP BY columns followed
// by one column per aggregate slot
func (pl *plan) groupBatch(table *groupTable) (*column.Batch, error) {
	// Without GROUP BY there is always exactly one group
	if len(pl.groupBy) == 0 && len(table.order) == 0 {
		table.add("", &groupState{accs: pl.newAccumulators()})
	}

	names := make([]string, 0, len(pl.groupBy)+len(pl.aggs))
	cols := make([]column.Column, 0, len(pl.groupBy)+len(pl.aggs))

	for j, f := range pl.groupBy {
		values := make([]interface{}, len(table.order))
		for i, key := range table.order {
			values[i] = table.groups[key].values[j]
		}
		col, err := column.FromValues(values, f.Type)
		if err != nil {
			return nil, fmt.Errorf("GROUP BY %s: %w", f.Name, err)
		}
		names, cols = append(names, f.Name), append(cols, col)
	}

	for j, a := range pl.aggs {
		values := make([]interface{}, len(table.order))
		for i, key := range table.order {
			v, err := table.groups[key].accs[j].Finalize()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", a.fn.Name(), err)
			}
			values[i] = v
		}
		col, err := column.FromValues(values, a.t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.fn.Name(), err)
		}
		names, cols = append(names, a.slot), append(cols, col)
	}

	return column.NewBatch(names, cols)
}

// finishAggregate merges partial aggregates, then applies HAVING, the select
// list, ORDER BY and LIMIT/OFFSET
func (pl *plan) finishAggregate(partials []*partial) (*column.Batch, error) {
	merged := newGroupTable()
	for _, p := range partials {
		if err := merged.merge(p.groups); err != nil {
			return nil, fmt.Errorf("failed to merge aggregates: %w", err)
		}
	}

	groups, err := pl.groupBatch(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize aggregates: %w", err)
	}

	// Apply HAVING filter if present
	if pl.having != nil {
		mask, err := pl.having.mask(groups)
		if err != nil {
			return nil, fmt.Errorf("failed to apply HAVING clause: %w", err)
		}
		groups = groups.Filter(mask)
	}

	out, err := pl.project(groups)
	if err != nil {
		return nil, fmt.Errorf("failed to apply select list: %w", err)
	}

	var keys []column.Column
	for _, k := range pl.orderBy {
		if k.output >= 0 {
			continue
		}
		col, err := expand(k.eval, groups)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate ORDER BY: %w", err)
		}
		keys = append(keys, col)
	}
	return pl.sortAndLimit(out, keys), nil
}

// finishRows concatenates projected batches in scan order, then applies
// ORDER BY and LIMIT/OFFSET
func (pl *plan) finishRows(partials []*partial) (*column.Batch, error) {
	if len(partials) == 0 {
		return pl.emptyOutput()
	}

	batches := make([]*column.Batch, len(partials))
	for i, p := range partials {
		batches[i] = p.batch
	}
	out, err := column.ConcatBatches(batches)
	if err != nil {
		return nil, err
	}

	var keys []column.Column
	if len(partials[0].keys) > 0 {
		keys = make([]column.Column, len(partials[0].keys))
		for j := range keys {
			parts := make([]column.Column, len(partials))
			for i, p := range partials {
				parts[i] = p.keys[j]
			}
			if keys[j], err = column.Concat(parts[0].Type(), parts...); err != nil {
				return nil, fmt.Errorf("failed to evaluate ORDER BY: %w", err)
			}
		}
	}
	return pl.sortAndLimit(out, keys), nil
}

// sortAndLimit applies ORDER BY and LIMIT/OFFSET. keys holds, in order, the
// sort columns that are not outputs.
func (pl *plan) sortAndLimit(out *column.Batch, keys []column.Column) *column.Batch {
	if len(pl.orderBy) == 0 && pl.limit == nil && pl.offset == nil {
		return out
	}

	sortCols := make([]column.Column, len(pl.orderBy))
	next := 0
	for i, k := range pl.orderBy {
		if k.output >= 0 {
			sortCols[i] = out.Column(k.output)
			continue
		}
		sortCols[i] = keys[next]
		next++
	}

	indices := make([]int, out.NumRows())
	for i := range indices {
		indices[i] = i
	}

	// Apply ORDER BY if present. NULL sorts first, or last if DESC.
	if len(pl.orderBy) > 0 {
		sort.SliceStable(indices, func(a, b int) bool {
			for i, k := range pl.orderBy {
				cmp := compareValues(sortCols[i].Value(indices[a]), sortCols[i].Value(indices[b]))
				if cmp != 0 {
					if k.desc {
						return cmp > 0
					}
					return cmp < 0
				}
			}
			return false
		})
	}

	start, end := limitOffsetRange(len(indices), pl.limit, pl.offset)
	return out.Take(indices[start:end])
}
