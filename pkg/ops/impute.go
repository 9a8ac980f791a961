// pkg/ops/impute.go
package ops

import (
	"fmt"
	"sort"

	"datasmith/pkg/dataset"
)

// imputeMissingMean fills missing numeric cells with the column mean,
// computed over non-missing values only.
func imputeMissingMean(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return imputeCenter(ds, columns, "mean", dataset.Mean)
}

// imputeMissingMedian fills missing numeric cells with the column median.
func imputeMissingMedian(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return imputeCenter(ds, columns, "median", dataset.Median)
}

func imputeCenter(ds *dataset.Dataset, columns []string, statName string, center func([]float64) float64) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		values := col.Floats()
		cs := Stats{"missing_before": col.Missing()}
		if len(values) == 0 {
			cs["filled"] = 0
			stats.merge(name, cs, len(columns))
			continue
		}
		fill := center(values)
		filled := 0
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = fill
				filled++
			}
		}
		cs[statName] = fill
		cs["filled"] = filled
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// imputeMissingMode fills missing cells with the most frequent non-missing
// value. Ties break toward the smaller value representation so replay stays
// deterministic.
func imputeMissingMode(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		cs := Stats{"missing_before": col.Missing()}

		counts := make(map[interface{}]int)
		for _, v := range col.Values {
			if v != nil {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			cs["filled"] = 0
			stats.merge(name, cs, len(columns))
			continue
		}

		type entry struct {
			value interface{}
			count int
			repr  string
		}
		entries := make([]entry, 0, len(counts))
		for v, n := range counts {
			entries = append(entries, entry{value: v, count: n, repr: fmt.Sprintf("%v", v)})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].repr < entries[j].repr
		})
		mode := entries[0].value

		filled := 0
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = mode
				filled++
			}
		}
		cs["mode"] = mode
		cs["filled"] = filled
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// imputeMissingConstant fills missing cells with params["value"], coerced to
// each target column's semantic type.
func imputeMissingConstant(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	raw, ok := params["value"]
	if !ok || raw == nil {
		s := Stats{}
		s.setError("impute_missing_constant requires a value parameter")
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		fill, err := coerceValue(raw, col.Type)
		if err != nil {
			s := Stats{}
			s.setError("column %s: %v", name, err)
			return ds, s
		}
		cs := Stats{"missing_before": col.Missing()}
		filled := 0
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = fill
				filled++
			}
		}
		cs["value"] = fill
		cs["filled"] = filled
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// imputeMissingFFill carries the last observed value forward into missing
// cells. Leading missing cells stay missing.
func imputeMissingFFill(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return imputeDirectional(ds, columns, true)
}

// imputeMissingBFill carries the next observed value backward into missing
// cells. Trailing missing cells stay missing.
func imputeMissingBFill(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return imputeDirectional(ds, columns, false)
}

func imputeDirectional(ds *dataset.Dataset, columns []string, forward bool) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		cs := Stats{"missing_before": col.Missing()}
		filled := 0
		var last interface{}
		if forward {
			for i := 0; i < len(col.Values); i++ {
				if col.Values[i] != nil {
					last = col.Values[i]
				} else if last != nil {
					col.Values[i] = last
					filled++
				}
			}
		} else {
			for i := len(col.Values) - 1; i >= 0; i-- {
				if col.Values[i] != nil {
					last = col.Values[i]
				} else if last != nil {
					col.Values[i] = last
					filled++
				}
			}
		}
		cs["filled"] = filled
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// coerceValue converts a raw parameter value to a column's value type.
func coerceValue(raw interface{}, t dataset.Type) (interface{}, error) {
	switch t {
	case dataset.Numeric:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("cannot use %T as a numeric fill value", raw)
		}
	case dataset.Boolean:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("cannot use %T as a boolean fill value", raw)
	case dataset.Categorical, dataset.Text:
		if v, ok := raw.(string); ok {
			return v, nil
		}
		return fmt.Sprintf("%v", raw), nil
	case dataset.Datetime:
		if v, ok := raw.(string); ok {
			t, err := ParseTime(v)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as a datetime fill value", v)
			}
			return t, nil
		}
		return nil, fmt.Errorf("cannot use %T as a datetime fill value", raw)
	}
	return nil, fmt.Errorf("unsupported column type %s", t)
}
