// pkg/store/codec.go
package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/ipc"
	"github.com/apache/arrow/go/v16/arrow/memory"

	"datasmith/pkg/dataset"
)

// Blob encoding for dataset snapshots: an Arrow IPC stream, one batch,
// with the semantic column type kept in per-field metadata. Columnar, exact
// dtypes, opaque to the log/version logic beyond "bytes in, table out".

const semanticKey = "semantic_type"

func arrowType(t dataset.Type) (arrow.DataType, error) {
	switch t {
	case dataset.Numeric:
		return arrow.PrimitiveTypes.Float64, nil
	case dataset.Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case dataset.Datetime:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case dataset.Categorical, dataset.Text:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("no arrow mapping for column type %q", t)
	}
}

// EncodeDataset serializes a dataset to an Arrow IPC stream.
func EncodeDataset(ds *dataset.Dataset) ([]byte, error) {
	cols := ds.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		dt, err := arrowType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     dt,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{semanticKey}, []string{string(c.Type)}),
		}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for i, c := range cols {
		switch b := builder.Field(i).(type) {
		case *array.Float64Builder:
			for _, v := range c.Values {
				if f, ok := v.(float64); ok {
					b.Append(f)
				} else {
					b.AppendNull()
				}
			}
		case *array.BooleanBuilder:
			for _, v := range c.Values {
				if bv, ok := v.(bool); ok {
					b.Append(bv)
				} else {
					b.AppendNull()
				}
			}
		case *array.StringBuilder:
			for _, v := range c.Values {
				if s, ok := v.(string); ok {
					b.Append(s)
				} else {
					b.AppendNull()
				}
			}
		case *array.TimestampBuilder:
			for _, v := range c.Values {
				if t, ok := v.(time.Time); ok {
					b.Append(arrow.Timestamp(t.UnixMicro()))
				} else {
					b.AppendNull()
				}
			}
		default:
			return nil, fmt.Errorf("column %s: unsupported builder %T", c.Name, b)
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish arrow stream: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDataset reconstructs a dataset from an Arrow IPC stream produced by
// EncodeDataset.
func DecodeDataset(name string, data []byte) (*dataset.Dataset, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow stream: %w", err)
	}
	defer reader.Release()

	schema := reader.Schema()
	cols := make([]dataset.Column, len(schema.Fields()))
	for i, f := range schema.Fields() {
		semantic := dataset.Type("")
		if idx := f.Metadata.FindKey(semanticKey); idx >= 0 {
			semantic = dataset.Type(f.Metadata.Values()[idx])
		}
		if !semantic.Valid() {
			return nil, fmt.Errorf("column %s: missing or invalid semantic type metadata", f.Name)
		}
		cols[i] = dataset.Column{Name: f.Name, Type: semantic}
	}

	for reader.Next() {
		rec := reader.Record()
		for i := range cols {
			col := rec.Column(i)
			switch arr := col.(type) {
			case *array.Float64:
				for j := 0; j < arr.Len(); j++ {
					if arr.IsNull(j) {
						cols[i].Values = append(cols[i].Values, nil)
					} else {
						cols[i].Values = append(cols[i].Values, arr.Value(j))
					}
				}
			case *array.Boolean:
				for j := 0; j < arr.Len(); j++ {
					if arr.IsNull(j) {
						cols[i].Values = append(cols[i].Values, nil)
					} else {
						cols[i].Values = append(cols[i].Values, arr.Value(j))
					}
				}
			case *array.String:
				for j := 0; j < arr.Len(); j++ {
					if arr.IsNull(j) {
						cols[i].Values = append(cols[i].Values, nil)
					} else {
						cols[i].Values = append(cols[i].Values, arr.Value(j))
					}
				}
			case *array.Timestamp:
				for j := 0; j < arr.Len(); j++ {
					if arr.IsNull(j) {
						cols[i].Values = append(cols[i].Values, nil)
					} else {
						cols[i].Values = append(cols[i].Values, arr.Value(j).ToTime(arrow.Microsecond).UTC())
					}
				}
			default:
				return nil, fmt.Errorf("column %s: unsupported array %T", cols[i].Name, arr)
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read arrow stream: %w", err)
	}

	return dataset.New(name, cols...)
}
