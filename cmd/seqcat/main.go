package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/vegasq/seqcat/internal/config"
	"github.com/vegasq/seqcat/internal/stats"
	"github.com/vegasq/seqcat/output"
	"github.com/vegasq/seqcat/query"
	"github.com/vegasq/seqcat/reader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command-line flags
type options struct {
	query      string
	format     string
	limit      int64
	schema     bool
	gcReport   bool
	configPath string
	watch      bool
	statsPath  string
	verbose    bool
	file       string
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("seqcat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.query, "q", "", "SQL query (e.g., \"select id, gc_content(sequence) from reads.fastq.gz\")")
	fs.StringVar(&opts.format, "f", config.DefaultFormat, "Output format: jsonl, json, csv, table")
	fs.Int64Var(&opts.limit, "limit", 0, "Limit number of rows (0 = unlimited)")
	fs.BoolVar(&opts.schema, "schema", false, "Show schema information instead of data")
	fs.BoolVar(&opts.gcReport, "gc-report", false, "Print per-record G, C and GC counts, length and GC content")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the query whenever the input or config file changes")
	fs.StringVar(&opts.statsPath, "stats", "", "Write query statistics in Prometheus text format to this file")
	fs.BoolVar(&opts.verbose, "v", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: seqcat [options] <file>\n\n")
		fmt.Fprintf(stderr, "Query Parquet, FASTQ and FASTA files with SQL.\n\n")
		fmt.Fprintf(stderr, "IMPORTANT: All flags must come BEFORE file arguments.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  seqcat reads.parquet\n")
		fmt.Fprintf(stderr, "  seqcat -gc-report -f table genome.fa\n")
		fmt.Fprintf(stderr, "  seqcat -q \"select sample, gc_content(sequence) from 'runs/*.fastq.gz' group by sample\"\n")
		fmt.Fprintf(stderr, "  seqcat -schema reads.parquet\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if fs.NArg() >= 1 {
		opts.file = fs.Arg(0)
	}

	if opts.limit < 0 {
		return nil, fmt.Errorf("-limit must be non-negative, got %d", opts.limit)
	}
	if opts.schema && (opts.query != "" || opts.gcReport) {
		return nil, errors.New("-schema cannot be combined with -q or -gc-report")
	}
	if opts.gcReport && opts.query != "" {
		return nil, errors.New("-gc-report and -q cannot be used together")
	}
	if opts.query == "" && opts.file == "" {
		fs.Usage()
		return nil, errors.New("missing input file argument")
	}
	return opts, nil
}

// loadConfig reads the config file, if any, and applies explicitly set
// flags on top of it
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) apply(cfg *config.Config) {
	if o.set["f"] {
		cfg.Output.Format = o.format
	}
	if o.set["limit"] {
		cfg.Output.Limit = o.limit
	}
	if o.set["stats"] {
		cfg.Stats.Path = o.statsPath
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
}

// sql returns the query to execute
func (o *options) sql() string {
	switch {
	case o.query != "":
		return o.query
	case o.gcReport:
		return query.GCReportQuery(o.file)
	default:
		return query.SelectAllQuery(o.file)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := log.New(stderr)
	logger.SetLevel(cfg.LogLevel())
	logger.Debug("loaded config", "path", opts.configPath, "format", cfg.Output.Format,
		"parallelism", cfg.Engine.Parallelism, "undefined_gc", cfg.Engine.UndefinedGC)

	if opts.schema {
		if err := showSchema(opts.file, cfg.Output.Format, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	q, err := query.Parse(opts.sql())
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing query: %v\n\n", err)
		fmt.Fprintf(stderr, "Query format: select <columns> from <file> [where <condition>] [group by <columns>]\n")
		fmt.Fprintf(stderr, "Example: select id, gc_content(sequence) from reads.fastq where gc_content(sequence) > 60\n")
		return 1
	}

	if err := execute(ctx, q, cfg, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}

	patterns := []string{q.TableName}
	if opts.configPath != "" {
		patterns = append(patterns, opts.configPath)
	}
	err = config.Watch(ctx, patterns, logger, func(path string) {
		if opts.configPath != "" && filepath.Clean(path) == filepath.Clean(opts.configPath) {
			reloaded, err := opts.loadConfig()
			if err != nil {
				logger.Error("config reload failed, keeping previous config", "path", path, "err", err)
				return
			}
			cfg = reloaded
			logger.SetLevel(cfg.LogLevel())
			logger.Info("config reloaded", "path", path)
		}
		if err := execute(ctx, q, cfg, logger, stdout); err != nil {
			logger.Error("query failed", "err", err)
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// execute runs q with the given config and writes the formatted result
func execute(ctx context.Context, q *query.Query, cfg *config.Config, logger *log.Logger, stdout io.Writer) error {
	session := query.NewSession(query.Options{
		Parallelism: cfg.Engine.Parallelism,
		BatchSize:   cfg.Engine.BatchSize,
		Policy:      cfg.Policy(),
		Logger:      logger,
	})

	res, err := session.ExecuteQuery(ctx, q)
	if err != nil {
		return err
	}

	rows := res.Rows()
	// Apply flag-based limit only if SQL LIMIT was not specified
	if cfg.Output.Limit > 0 && q.Limit == nil && int64(len(rows)) > cfg.Output.Limit {
		rows = rows[:cfg.Output.Limit]
	}

	formatter, err := output.New(cfg.Output.Format, stdout)
	if err != nil {
		return err
	}
	if err := formatter.Format(res.Columns, rows); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if cfg.Stats.Path != "" {
		if err := stats.Write(cfg.Stats.Path, q.TableName, res.Stats); err != nil {
			logger.Warn("could not write statistics", "path", cfg.Stats.Path, "err", err)
		}
	}
	return nil
}

// showSchema prints the columns of filename, or of the first file matching
// it when it is a glob
func showSchema(filename, format string, stdout, stderr io.Writer) error {
	filePath := filename
	if reader.IsGlob(filename) {
		matches, err := filepath.Glob(filename)
		if err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files match pattern: %s", filename)
		}
		filePath = matches[0]
		if len(matches) > 1 {
			fmt.Fprintf(stderr, "# Showing schema from: %s (%d files matched)\n", filePath, len(matches))
		}
	}

	infos, err := reader.ExtractSchemaInfo(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file '%s' not found", filePath)
		}
		return err
	}

	columns := []string{"name", "type", "column_type", "physical_type", "logical_type", "required", "optional", "repeated"}
	rows := make([]map[string]interface{}, len(infos))
	for i, field := range infos {
		rows[i] = map[string]interface{}{
			"name":          field.Name,
			"type":          field.Type,
			"column_type":   field.Column,
			"physical_type": field.PhysicalType,
			"logical_type":  field.LogicalType,
			"required":      field.Required,
			"optional":      field.Optional,
			"repeated":      field.Repeated,
		}
	}

	formatter, err := output.New(format, stdout)
	if err != nil {
		return err
	}
	return formatter.Format(columns, rows)
}
