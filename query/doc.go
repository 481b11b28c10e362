// Package query parses and executes SQL queries over sequence tables.
//
// Queries run inside a Session, which owns its function registry. The
// supported subset is:
//   - SELECT with columns, *, literals, nested function calls and aliases
//   - FROM a Parquet, FASTQ or FASTA file, or a quoted glob pattern
//   - WHERE and HAVING with comparisons, IN, LIKE, BETWEEN, IS [NOT] NULL,
//     AND, OR and parentheses
//   - GROUP BY with COUNT, SUM, AVG, MIN, MAX and gc_content
//   - ORDER BY, LIMIT and OFFSET
//
// # Basic Usage
//
//	s := query.NewSession(query.Options{})
//	res, err := s.Execute(ctx, "SELECT id, gc_content(sequence) AS gc FROM 'reads.fastq.gz'")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range res.Rows() {
//	    fmt.Println(row["id"], row["gc"])
//	}
//
// # gc_content
//
// gc_content is registered twice. As a scalar it returns the GC percentage
// of each sequence. As an aggregate it returns sum(G+C)/sum(informative
// bases) over every sequence of a group, which is not the mean of the
// per-sequence values. A query that has GROUP BY, or that calls a function
// existing only as an aggregate such as COUNT, uses the aggregate form:
//
//	SELECT gc_content(sequence) FROM 'reads.fastq'            -- one value per read
//	SELECT _file, gc_content(sequence) FROM 'runs/*.fastq'
//	    GROUP BY _file                                         -- one value per file
//	SELECT COUNT(*), gc_content(sequence) FROM 'reads.fastq'  -- one value overall
//
// Sequences without any informative base yield NULL by default; the session
// Policy can report 0 instead.
//
// # Execution
//
// Only the columns a query references are read. Source batches are filtered
// and projected, or partially aggregated, by a bounded pool of workers.
// Partial aggregates are merged in scan order before HAVING, ORDER BY and
// LIMIT are applied. Calls to immutable functions whose arguments are all
// literals are evaluated once when the query is planned.
package query
