package output

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line), keeping the
// column order
func (j *JSONFormatter) Format(columns []string, rows []map[string]interface{}) error {
	bw := bufio.NewWriter(j.writer)
	for _, row := range rows {
		if err := writeObject(bw, columns, row); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// JSONArrayFormatter outputs all rows as a single JSON array
type JSONArrayFormatter struct {
	writer io.Writer
}

// NewJSONArrayFormatter creates a new JSON array formatter
func NewJSONArrayFormatter(w io.Writer) *JSONArrayFormatter {
	return &JSONArrayFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONArrayFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as a JSON array followed by a newline
func (j *JSONArrayFormatter) Format(columns []string, rows []map[string]interface{}) error {
	bw := bufio.NewWriter(j.writer)
	if err := bw.WriteByte('['); err != nil {
		return err
	}
	for i, row := range rows {
		if i > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if err := writeObject(bw, columns, row); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeObject(w *bufio.Writer, columns []string, row map[string]interface{}) error {
	if err := w.WriteByte('{'); err != nil {
		return err
	}
	for i, col := range columns {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		key, err := json.Marshal(col)
		if err != nil {
			return err
		}
		value, err := json.Marshal(jsonValue(row[col]))
		if err != nil {
			return err
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
		if err := w.WriteByte(':'); err != nil {
			return err
		}
		if _, err := w.Write(value); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

// jsonValue maps values JSON cannot represent to null
func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}
