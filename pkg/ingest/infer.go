// pkg/ingest/infer.go
package ingest

import (
	"strconv"
	"strings"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
)

// Raw cell values arrive as strings. Inference picks the narrowest semantic
// type the whole column fits: boolean, then numeric, then datetime, then
// categorical or free text by cardinality.

// categoricalRatio is the distinct-to-total threshold below which a string
// column is treated as categorical rather than free text.
const categoricalRatio = 0.5

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"nil":  true,
	"na":   true,
	"n/a":  true,
	"none": true,
	"nan":  true,
}

// isNullToken reports whether a raw cell should be treated as missing.
func isNullToken(raw string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(raw))]
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return false, false
}

// InferColumn converts one column of raw string cells into a typed column.
// Null tokens become nil regardless of the inferred type.
func InferColumn(name string, raw []string) dataset.Column {
	allBool := true
	allNumeric := true
	allDatetime := true
	nonNull := 0

	for _, cell := range raw {
		if isNullToken(cell) {
			continue
		}
		nonNull++
		trimmed := strings.TrimSpace(cell)
		if _, ok := parseBool(trimmed); !ok {
			allBool = false
		}
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			allNumeric = false
		}
		if _, err := ops.ParseTime(trimmed); err != nil {
			allDatetime = false
		}
	}

	// An all-null column stays text; there is nothing to infer from.
	if nonNull == 0 {
		allBool, allNumeric, allDatetime = false, false, false
	}

	switch {
	case allBool:
		return buildColumn(name, dataset.Boolean, raw, func(s string) (interface{}, bool) {
			v, ok := parseBool(s)
			return v, ok
		})
	case allNumeric:
		return buildColumn(name, dataset.Numeric, raw, func(s string) (interface{}, bool) {
			f, err := strconv.ParseFloat(s, 64)
			return f, err == nil
		})
	case allDatetime:
		return buildColumn(name, dataset.Datetime, raw, func(s string) (interface{}, bool) {
			t, err := ops.ParseTime(s)
			return t.UTC(), err == nil
		})
	}

	distinct := make(map[string]bool)
	for _, cell := range raw {
		if !isNullToken(cell) {
			distinct[strings.TrimSpace(cell)] = true
		}
	}
	semantic := dataset.Text
	if nonNull > 0 && float64(len(distinct)) <= categoricalRatio*float64(nonNull) {
		semantic = dataset.Categorical
	}
	return buildColumn(name, semantic, raw, func(s string) (interface{}, bool) {
		return s, true
	})
}

func buildColumn(name string, t dataset.Type, raw []string, parse func(string) (interface{}, bool)) dataset.Column {
	values := make([]interface{}, len(raw))
	for i, cell := range raw {
		if isNullToken(cell) {
			continue
		}
		if v, ok := parse(strings.TrimSpace(cell)); ok {
			values[i] = v
		}
	}
	return dataset.Column{Name: name, Type: t, Values: values}
}
