// Package reader turns input files into column batches.
//
// Three formats are supported:
//
//   - Parquet: one batch per row group. Only the projected column chunks are
//     decoded, page by page, straight into column builders. Optional fields
//     become nullable columns.
//   - FASTQ (.fastq, .fq): columns id, description, sequence, quality.
//   - FASTA (.fasta, .fa, .fna, .fas): columns id, description, sequence.
//     Multi-line sequences are joined without line breaks.
//
// Sequence files may be gzip (.gz), zstd (.zst) or lz4 (.lz4) compressed.
// The codec is detected from the magic number, falling back to the suffix.
// They are split into batches of Options.BatchSize records.
//
// # Basic Usage
//
//	src, err := reader.Open("reads.fastq.gz", reader.Options{BatchSize: 4096})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	err = src.ReadBatches([]string{"id", "sequence"}, func(b *column.Batch) error {
//	    fmt.Println(b.NumRows())
//	    return nil
//	})
//
// # Multi-file Operations
//
// ReadMultipleFiles expands glob patterns (up to 1000 files). Batches read
// through a glob carry a "_file" column with the source path:
//
//	n, err := reader.ReadMultipleFiles("runs/*.parquet", nil, reader.Options{}, fn)
//
// # Schema Introspection
//
// ExtractSchemaInfo lists the columns of any supported file, with nested
// Parquet fields in dot notation.
package reader
