package reader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vegasq/seqcat/column"
)

// SequenceFormat is a text sequence file format.
type SequenceFormat int

const (
	FASTQ SequenceFormat = iota
	FASTA
)

func (f SequenceFormat) String() string {
	if f == FASTA {
		return "fasta"
	}
	return "fastq"
}

// maxLine allows very long single-line sequences (64 MiB)
const maxLine = 64 * 1024 * 1024

var (
	fastqFields = []column.Field{
		{Name: "id", Type: column.Utf8},
		{Name: "description", Type: column.Utf8},
		{Name: "sequence", Type: column.Utf8},
		{Name: "quality", Type: column.Utf8},
	}
	fastaFields = fastqFields[:3]
)

// DetectSequenceFormat guesses the format from the file extension, ignoring
// a trailing compression suffix.
func DetectSequenceFormat(path string) (SequenceFormat, bool) {
	base, _ := trimCompressionSuffix(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".fastq", ".fq":
		return FASTQ, true
	case ".fasta", ".fa", ".fna", ".fas":
		return FASTA, true
	}
	return 0, false
}

// SequenceReader reads FASTQ or FASTA records as batches of text columns.
type SequenceReader struct {
	path      string
	format    SequenceFormat
	batchSize int
	rc        io.ReadCloser
}

// NewSequenceReader opens a possibly compressed FASTQ or FASTA file.
func NewSequenceReader(path string, format SequenceFormat, opts Options) (*SequenceReader, error) {
	rc, err := openDecompressed(path)
	if err != nil {
		return nil, err
	}
	return &SequenceReader{
		path:      path,
		format:    format,
		batchSize: opts.batchSize(),
		rc:        rc,
	}, nil
}

func (r *SequenceReader) Fields() []column.Field {
	if r.format == FASTA {
		return fastaFields
	}
	return fastqFields
}

func (r *SequenceReader) Close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	return err
}

// record is one parsed entry. Slices alias the builder input only for the
// duration of an append.
type record struct {
	id, desc, seq, qual []byte
}

// ReadBatches parses records sequentially and emits a batch every batchSize
// records.
func (r *SequenceReader) ReadBatches(columns []string, fn func(*column.Batch) error) error {
	fields := r.Fields()
	if columns == nil {
		for _, f := range fields {
			columns = append(columns, f.Name)
		}
	}
	slots := make([]int, len(columns))
	for i, name := range columns {
		slots[i] = -1
		for j, f := range fields {
			if strings.EqualFold(f.Name, name) {
				slots[i] = j
				break
			}
		}
		if slots[i] < 0 {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
	}

	var builders []*column.StringsBuilder
	reset := func() {
		builders = make([]*column.StringsBuilder, len(columns))
		for i := range builders {
			builders[i] = column.NewStringsBuilder(r.batchSize)
		}
	}
	flush := func() error {
		if builders[0].Len() == 0 {
			return nil
		}
		cols := make([]column.Column, len(builders))
		for i, b := range builders {
			cols[i] = b.Finish()
		}
		batch, err := column.NewBatch(columns, cols)
		if err != nil {
			return err
		}
		reset()
		return fn(batch)
	}
	emit := func(rec *record) error {
		parts := [4][]byte{rec.id, rec.desc, rec.seq, rec.qual}
		for i, slot := range slots {
			builders[i].Append(parts[slot])
		}
		if builders[0].Len() >= r.batchSize {
			return flush()
		}
		return nil
	}

	if len(columns) == 0 {
		return nil
	}
	reset()

	sc := bufio.NewScanner(r.rc)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var err error
	if r.format == FASTA {
		err = scanFASTA(sc, emit)
	} else {
		err = scanFASTQ(sc, emit)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", r.path, err)
	}
	return flush()
}

// splitHeader splits a header line (without its marker) into the id and the
// free-text description.
func splitHeader(line []byte) (id, desc []byte) {
	line = bytes.TrimSpace(line)
	if i := bytes.IndexAny(line, " \t"); i >= 0 {
		return line[:i], bytes.TrimSpace(line[i+1:])
	}
	return line, nil
}

func scanFASTQ(sc *bufio.Scanner, emit func(*record) error) error {
	var rec record
	lineNo := 0
	for {
		// Skip blank lines between records
		var header []byte
		for sc.Scan() {
			lineNo++
			if len(bytes.TrimSpace(sc.Bytes())) > 0 {
				header = sc.Bytes()
				break
			}
		}
		if header == nil {
			return sc.Err()
		}
		if header[0] != '@' {
			return fmt.Errorf("line %d: expected '@' header, got %q", lineNo, truncate(header))
		}
		id, desc := splitHeader(header[1:])
		rec.id = append(rec.id[:0], id...)
		rec.desc = append(rec.desc[:0], desc...)

		if !sc.Scan() {
			return fmt.Errorf("line %d: truncated record %s", lineNo, rec.id)
		}
		lineNo++
		rec.seq = append(rec.seq[:0], bytes.TrimRight(sc.Bytes(), "\r")...)

		if !sc.Scan() || len(sc.Bytes()) == 0 || sc.Bytes()[0] != '+' {
			return fmt.Errorf("line %d: expected '+' separator in record %s", lineNo+1, rec.id)
		}
		lineNo++

		if !sc.Scan() {
			return fmt.Errorf("line %d: missing quality for record %s", lineNo+1, rec.id)
		}
		lineNo++
		rec.qual = append(rec.qual[:0], bytes.TrimRight(sc.Bytes(), "\r")...)
		if len(rec.qual) != len(rec.seq) {
			return fmt.Errorf("line %d: quality length %d does not match sequence length %d in record %s",
				lineNo, len(rec.qual), len(rec.seq), rec.id)
		}

		if err := emit(&rec); err != nil {
			return err
		}
	}
}

func scanFASTA(sc *bufio.Scanner, emit func(*record) error) error {
	var rec record
	started := false
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if started {
				if err := emit(&rec); err != nil {
					return err
				}
			}
			id, desc := splitHeader(line[1:])
			rec.id = append(rec.id[:0], id...)
			rec.desc = append(rec.desc[:0], desc...)
			rec.seq = rec.seq[:0]
			started = true
			continue
		}
		if !started {
			return fmt.Errorf("sequence data before first '>' header: %q", truncate(line))
		}
		rec.seq = append(rec.seq, bytes.TrimSpace(line)...)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if started {
		return emit(&rec)
	}
	return nil
}

func truncate(b []byte) string {
	const n = 40
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
