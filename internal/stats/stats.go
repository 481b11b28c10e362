// Package stats exports query execution statistics in the Prometheus text
// exposition format, for collection by a node exporter textfile collector.
package stats

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/vegasq/seqcat/query"
)

// Families converts s into one gauge family per statistic, labelled with the
// queried table
func Families(table string, s query.Stats, now time.Time) []*dto.MetricFamily {
	labels := []*dto.LabelPair{{Name: proto.String("table"), Value: proto.String(table)}}
	gauge := func(name, help string, v float64) *dto.MetricFamily {
		return &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: labels,
				Gauge: &dto.Gauge{Value: proto.Float64(v)},
			}},
		}
	}

	return []*dto.MetricFamily{
		gauge("seqcat_query_duration_seconds", "Wall time of the last query.", s.Duration.Seconds()),
		gauge("seqcat_query_files", "Files read by the last query.", float64(s.Files)),
		gauge("seqcat_query_batches", "Batches processed by the last query.", float64(s.Batches)),
		gauge("seqcat_query_rows_scanned", "Rows read by the last query.", float64(s.RowsScanned)),
		gauge("seqcat_query_rows_returned", "Rows returned by the last query.", float64(s.RowsReturned)),
		gauge("seqcat_query_last_run_timestamp_seconds", "Unix time the last query finished.", float64(now.UnixNano())/1e9),
	}
}

// Write renders the statistics of one query to path. The file is replaced
// atomically so a collector never reads a partial file.
func Write(path, table string, s query.Stats) error {
	var buf bytes.Buffer
	for _, mf := range Families(table, s, time.Now()) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("stats: encode %s: %w", mf.GetName(), err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stats: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stats: close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return nil
}
