// Command generate writes the sample inputs used in the README examples:
// reads.parquet, reads.fastq.gz and genome.fa.
//
//	go run testdata/generate.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
)

type Read struct {
	ID       string  `parquet:"id"`
	Sample   string  `parquet:"sample"`
	Sequence *string `parquet:"sequence,optional"`
	Quality  float64 `parquet:"quality"`
}

func seq(s string) *string { return &s }

func main() {
	reads := []Read{
		{ID: "r1", Sample: "s1", Sequence: seq("GCGCGC"), Quality: 38.5},
		{ID: "r2", Sample: "s1", Sequence: nil, Quality: 12.0},
		{ID: "r3", Sample: "s2", Sequence: seq("ATATAT"), Quality: 40.1},
		{ID: "r4", Sample: "s2", Sequence: seq("GATTACA"), Quality: 35.2},
		{ID: "r5", Sample: "s2", Sequence: seq("NNNN"), Quality: 2.0},
	}

	if err := writeParquet("reads.parquet", reads); err != nil {
		log.Fatal(err)
	}
	if err := writeFASTQ("reads.fastq.gz", reads); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("genome.fa", []byte(">chr1 sample contig\nGCGCAATT\nGGCCATAT\n>chr2\nNNNNNNNN\n"), 0o644); err != nil {
		log.Fatal(err)
	}

	log.Printf("Generated reads.parquet, reads.fastq.gz and genome.fa (%d reads)", len(reads))
}

func writeParquet(path string, reads []Read) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Read](file)
	if _, err := writer.Write(reads); err != nil {
		return err
	}
	return writer.Close()
}

func writeFASTQ(path string, reads []Read) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	for _, r := range reads {
		if r.Sequence == nil {
			continue
		}
		s := *r.Sequence
		qual := make([]byte, len(s))
		for i := range qual {
			qual[i] = 'I'
		}
		if _, err := fmt.Fprintf(zw, "@%s %s\n%s\n+\n%s\n", r.ID, r.Sample, s, qual); err != nil {
			return err
		}
	}
	return zw.Close()
}
