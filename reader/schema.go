package reader

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/seqcat/column"
)

// SchemaInfo describes one column of an input file.
type SchemaInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Column       string `json:"column_type"`
	PhysicalType string `json:"physical_type"`
	LogicalType  string `json:"logical_type"`
	Required     bool   `json:"required"`
	Optional     bool   `json:"optional"`
	Repeated     bool   `json:"repeated"`
}

// ExtractSchemaInfo lists the columns of a Parquet, FASTQ or FASTA file.
//
// For nested Parquet types, field names use dot notation (e.g.,
// "read.sequence"). Column is the engine type the field is read as, or empty
// when the field cannot be queried (repeated or unsupported leaves).
func ExtractSchemaInfo(path string) ([]SchemaInfo, error) {
	if format, ok := DetectSequenceFormat(path); ok {
		return sequenceSchemaInfo(format), nil
	}

	r, err := NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = r.Close() }()

	var infos []SchemaInfo
	for _, field := range r.Schema().Fields() {
		infos = append(infos, extractFieldInfo(field, "", false)...)
	}
	return infos, nil
}

func sequenceSchemaInfo(format SequenceFormat) []SchemaInfo {
	fields := fastqFields
	if format == FASTA {
		fields = fastaFields
	}
	infos := make([]SchemaInfo, len(fields))
	for i, f := range fields {
		infos[i] = SchemaInfo{
			Name:     f.Name,
			Type:     "STRING",
			Column:   f.Type.String(),
			Required: true,
		}
	}
	return infos
}

// extractFieldInfo recursively flattens a field into its leaves, tracking
// whether any parent is repeated.
func extractFieldInfo(field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []SchemaInfo
		for _, child := range children {
			infos = append(infos, extractFieldInfo(child, name, repeated)...)
		}
		return infos
	}

	info := SchemaInfo{
		Name:         name,
		Type:         userFriendlyType(field),
		PhysicalType: physicalType(field),
		LogicalType:  logicalType(field),
		Required:     field.Required(),
		Optional:     field.Optional(),
		Repeated:     repeated,
	}
	if !repeated {
		if t, ok := columnType(field); ok {
			info.Column = t.String()
		}
	}
	return []SchemaInfo{info}
}

func columnType(field parquet.Field) (column.DataType, bool) {
	if field.Type() == nil {
		return 0, false
	}
	switch field.Type().Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return column.Utf8, true
	case parquet.Int32, parquet.Int64:
		return column.Int64, true
	case parquet.Float, parquet.Double:
		return column.Float64, true
	case parquet.Boolean:
		return column.Boolean, true
	}
	return 0, false
}

func physicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

func logicalType(field parquet.Field) string {
	if field.Type() == nil || field.Type().LogicalType() == nil {
		return ""
	}
	return field.Type().LogicalType().String()
}

// userFriendlyType prefers the logical type and falls back to the physical
// one, with floats named by width.
func userFriendlyType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	switch lt := logicalType(field); lt {
	case "STRING", "UTF8":
		return "STRING"
	case "ENUM", "UUID", "DATE", "TIME", "TIMESTAMP", "DECIMAL", "JSON", "BSON":
		return lt
	}

	switch field.Type().Kind() {
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	default:
		return physicalType(field)
	}
}
