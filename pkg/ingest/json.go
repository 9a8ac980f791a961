// pkg/ingest/json.go
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"datasmith/pkg/dataset"
)

// ReadJSON parses a JSON array of flat objects into a typed dataset. Keys
// missing from a record become nulls in that row; column order is the sorted
// union of all keys.
func ReadJSON(name string, r io.Reader, logger *zap.Logger) (*dataset.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var records []map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode json records: %w", err)
	}

	keys := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			keys[k] = true
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	// Cells are rendered back to strings and run through the same inference
	// as CSV input, so both paths produce identical typing.
	cols := make([]dataset.Column, len(names))
	for i, key := range names {
		raw := make([]string, len(records))
		for j, rec := range records {
			raw[j] = renderJSONValue(rec[key])
		}
		cols[i] = InferColumn(key, raw)
	}

	ds, err := dataset.New(name, cols...)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset from json: %w", err)
	}

	logger.Info("Parsed JSON",
		zap.String("dataset", name),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", ds.Cols()))
	return ds, nil
}

func renderJSONValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
