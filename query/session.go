package query

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vegasq/seqcat/composition"
	"github.com/vegasq/seqcat/reader"
)

// Options configure a Session
type Options struct {
	// Parallelism bounds the number of batches processed at once. Zero
	// means GOMAXPROCS.
	Parallelism int
	// BatchSize is the number of records per batch for sequence files
	BatchSize int
	// Policy decides what gc_content reports for sequences without
	// informative bases
	Policy composition.Policy
	// Logger receives debug output; nil discards it
	Logger *log.Logger
}

// Session executes queries against its own function registry.
type Session struct {
	registry *FunctionRegistry
	opts     Options
	logger   *log.Logger
}

// NewSession creates a session with every built-in function registered.
func NewSession(opts Options) *Session {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	registry := NewFunctionRegistry()
	RegisterBuiltins(registry, opts.Policy)

	return &Session{registry: registry, opts: opts, logger: logger}
}

// Registry returns the session's function registry. Functions registered on
// it are visible to later queries of this session only.
func (s *Session) Registry() *FunctionRegistry {
	return s.registry
}

// Execute parses and runs a SQL query
func (s *Session) Execute(ctx context.Context, sql string) (*Result, error) {
	q, err := Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	return s.ExecuteQuery(ctx, q)
}

// ExecuteQuery runs a parsed query
func (s *Session) ExecuteQuery(ctx context.Context, q *Query) (*Result, error) {
	start := time.Now()
	stats := Stats{QueryID: uuid.NewString()}
	logger := s.logger.With("query", stats.QueryID)

	opts := reader.Options{BatchSize: s.opts.BatchSize}
	fields, err := reader.Fields(q.TableName, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", q.TableName, err)
	}

	pl, err := buildPlan(q, s.registry, fields)
	if err != nil {
		return nil, err
	}
	logger.Debug("planned query", "table", q.TableName, "columns", pl.columns, "aggregate", pl.aggregate)

	out, err := pl.execute(ctx, q.TableName, opts, s.opts.Parallelism, &stats)
	if err != nil {
		logger.Debug("query failed", "err", err)
		return nil, err
	}

	stats.RowsReturned = int64(out.NumRows())
	stats.Duration = time.Since(start)
	logger.Debug("query executed",
		"files", stats.Files,
		"batches", stats.Batches,
		"rows_scanned", stats.RowsScanned,
		"rows_returned", stats.RowsReturned,
		"duration", stats.Duration)

	return &Result{Columns: out.Names(), Batch: out, Stats: stats}, nil
}
