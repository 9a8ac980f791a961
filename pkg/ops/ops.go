// pkg/ops/ops.go
package ops

import (
	"fmt"
	"sort"

	"datasmith/pkg/dataset"
)

// Params carries operation parameters as decoded from JSON. Accessors fall
// back to documented defaults on missing or mistyped entries.
type Params map[string]interface{}

// String returns the named parameter as a string, or def.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Float returns the named parameter as a float64, or def.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Int returns the named parameter as an int, or def. JSON numbers arrive as
// float64 and are accepted when integral.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
		return def
	default:
		return def
	}
}

// StringMap returns the named parameter as a map[string]string, or nil.
func (p Params) StringMap(key string) map[string]string {
	switch v := p[key].(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil
			}
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Stats is the statistics record returned alongside every operation result.
// A failed operation reports its reason under the "error" key and returns the
// dataset unchanged; operations never raise to the caller.
type Stats map[string]interface{}

const errKey = "error"

func (s Stats) setError(format string, args ...interface{}) {
	s[errKey] = fmt.Sprintf(format, args...)
}

// Error returns the error message recorded by a failed operation, or "".
func (s Stats) Error() string {
	msg, _ := s[errKey].(string)
	return msg
}

// merge folds per-column stats into s. When the operation targeted a single
// column the keys are flattened to the top level.
func (s Stats) merge(column string, cs Stats, targets int) {
	if targets == 1 {
		for k, v := range cs {
			s[k] = v
		}
		return
	}
	s[column] = cs
}

// Func is the contract every catalog operation satisfies: pure, side-effect
// free, returning a new dataset and a statistics record.
type Func func(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats)

// Operation is a catalog entry.
type Operation struct {
	ID           string
	Summary      string
	NeedsColumns bool
	Run          Func
}

// catalog is the fixed operation-identifier namespace shared with the
// transformation log. Identifiers are stable: historical records reference
// them by string at replay time.
var catalog = map[string]Operation{
	"impute_missing_mean":        {ID: "impute_missing_mean", Summary: "fill missing numeric values with the column mean", NeedsColumns: true, Run: imputeMissingMean},
	"impute_missing_median":      {ID: "impute_missing_median", Summary: "fill missing numeric values with the column median", NeedsColumns: true, Run: imputeMissingMedian},
	"impute_missing_mode":        {ID: "impute_missing_mode", Summary: "fill missing values with the most frequent value", NeedsColumns: true, Run: imputeMissingMode},
	"impute_missing_constant":    {ID: "impute_missing_constant", Summary: "fill missing values with a constant", NeedsColumns: true, Run: imputeMissingConstant},
	"impute_missing_ffill":       {ID: "impute_missing_ffill", Summary: "fill missing values forward from the previous row", NeedsColumns: true, Run: imputeMissingFFill},
	"impute_missing_bfill":       {ID: "impute_missing_bfill", Summary: "fill missing values backward from the next row", NeedsColumns: true, Run: imputeMissingBFill},
	"remove_outliers":            {ID: "remove_outliers", Summary: "drop rows with outlying values (z-score or IQR)", NeedsColumns: true, Run: removeOutliers},
	"cap_outliers":               {ID: "cap_outliers", Summary: "clamp outlying values to the method bounds", NeedsColumns: true, Run: capOutliers},
	"normalize":                  {ID: "normalize", Summary: "rescale numeric columns (zscore, minmax or robust)", NeedsColumns: true, Run: normalize},
	"standardize_data":           {ID: "standardize_data", Summary: "z-score standardize numeric columns", NeedsColumns: true, Run: standardizeData},
	"encode_categorical":         {ID: "encode_categorical", Summary: "one-hot or label encode categorical columns", NeedsColumns: true, Run: encodeCategorical},
	"format_dates":               {ID: "format_dates", Summary: "parse text columns to datetime with a layout", NeedsColumns: true, Run: formatDates},
	"to_datetime":                {ID: "to_datetime", Summary: "parse text columns to datetime", NeedsColumns: true, Run: toDatetime},
	"convert_numeric_to_datetime": {ID: "convert_numeric_to_datetime", Summary: "interpret numeric columns as unix timestamps", NeedsColumns: true, Run: convertNumericToDatetime},
	"extract_date_part":          {ID: "extract_date_part", Summary: "extract a part (year, month, ...) of a datetime column", NeedsColumns: true, Run: extractDatePart},
	"drop_columns":               {ID: "drop_columns", Summary: "remove columns", NeedsColumns: true, Run: dropColumns},
	"rename_columns":             {ID: "rename_columns", Summary: "rename columns per mapping", NeedsColumns: false, Run: renameColumns},
	"combine_columns":            {ID: "combine_columns", Summary: "join columns into one text column", NeedsColumns: true, Run: combineColumns},
	"create_bins":                {ID: "create_bins", Summary: "bucket a numeric column into equal-width bins", NeedsColumns: true, Run: createBins},
	"log_transform":              {ID: "log_transform", Summary: "natural-log transform with auto shift", NeedsColumns: true, Run: logTransform},
	"sqrt_transform":             {ID: "sqrt_transform", Summary: "square-root transform with auto shift", NeedsColumns: true, Run: sqrtTransform},
	"boxcox_transform":           {ID: "boxcox_transform", Summary: "Box-Cox transform with auto shift", NeedsColumns: true, Run: boxcoxTransform},
	"round_off":                  {ID: "round_off", Summary: "round numeric values to n decimals", NeedsColumns: true, Run: roundOff},
	"standardize_category_names": {ID: "standardize_category_names", Summary: "normalize case and whitespace of text values", NeedsColumns: true, Run: standardizeCategoryNames},
}

// Lookup returns the catalog entry for an operation identifier.
func Lookup(id string) (Operation, bool) {
	op, ok := catalog[id]
	return op, ok
}

// IDs returns all operation identifiers, sorted.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply dispatches by operation identifier. The only Go error it returns is
// an unknown identifier; operation-level failures surface via Stats.
func Apply(ds *dataset.Dataset, id string, columns []string, params Params) (*dataset.Dataset, Stats, error) {
	op, ok := Lookup(id)
	if !ok {
		return ds, nil, fmt.Errorf("unknown operation: %s", id)
	}
	out, stats := op.Run(ds, columns, params)
	return out, stats, nil
}

// guard implements the shared input contract for column-scoped operations:
// an empty selection is an idempotent no-op with empty stats; a selection
// naming an absent column is a no-op with an error stat. The bool reports
// whether the operation should return immediately.
func guard(ds *dataset.Dataset, columns []string) (Stats, bool) {
	if len(columns) == 0 {
		return Stats{}, true
	}
	for _, name := range columns {
		if !ds.HasColumn(name) {
			s := Stats{}
			s.setError("column %s not found", name)
			return s, true
		}
	}
	return nil, false
}

// requireType verifies that every target column has one of the accepted
// semantic types, returning an error stat otherwise.
func requireType(ds *dataset.Dataset, columns []string, accepted ...dataset.Type) Stats {
	for _, name := range columns {
		col, _ := ds.Column(name)
		ok := false
		for _, t := range accepted {
			if col.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			s := Stats{}
			s.setError("column %s has type %s; operation requires %v", name, col.Type, accepted)
			return s
		}
	}
	return nil
}
