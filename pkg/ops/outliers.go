// pkg/ops/outliers.go
package ops

import (
	"datasmith/pkg/dataset"
)

// outlierBounds computes the keep interval for a column under the requested
// method. Returns ok=false when the column has too few values or zero spread,
// in which case nothing is an outlier.
func outlierBounds(col *dataset.Column, method string, threshold, k float64) (lower, upper float64, ok bool) {
	values := col.Floats()
	if len(values) < 2 {
		return 0, 0, false
	}
	switch method {
	case "iqr":
		q1 := dataset.Quantile(values, 0.25)
		q3 := dataset.Quantile(values, 0.75)
		iqr := q3 - q1
		return q1 - k*iqr, q3 + k*iqr, true
	default: // zscore
		mean := dataset.Mean(values)
		std := dataset.Std(values)
		if std == 0 {
			return 0, 0, false
		}
		return mean - threshold*std, mean + threshold*std, true
	}
}

// removeOutliers drops every row whose value in a target column falls outside
// the method bounds. Bounds are recomputed per column on the current data, in
// column order, so the result is deterministic under replay. Missing cells are
// never treated as outliers. Default method is zscore with threshold 3; the
// IQR method uses k=1.5.
func removeOutliers(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	method := params.String("method", "zscore")
	threshold := params.Float("threshold", 3)
	k := params.Float("k", 1.5)

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		cs := Stats{"method": method}

		lower, upper, ok := outlierBounds(col, method, threshold, k)
		if !ok {
			cs["rows_removed"] = 0
			stats.merge(name, cs, len(columns))
			continue
		}

		keep := make([]bool, col.Len())
		removed := 0
		for i, v := range col.Values {
			f, isNum := v.(float64)
			if v == nil || !isNum || (f >= lower && f <= upper) {
				keep[i] = true
			} else {
				removed++
			}
		}
		filtered, err := out.FilterRows(keep)
		if err != nil {
			s := Stats{}
			s.setError("column %s: %v", name, err)
			return ds, s
		}
		out = filtered

		cs["lower_bound"] = lower
		cs["upper_bound"] = upper
		cs["rows_removed"] = removed
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// capOutliers clamps outlying values to the method bounds instead of dropping
// rows, keeping the dataset shape intact.
func capOutliers(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	method := params.String("method", "zscore")
	threshold := params.Float("threshold", 3)
	k := params.Float("k", 1.5)

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		cs := Stats{"method": method}

		lower, upper, ok := outlierBounds(col, method, threshold, k)
		if !ok {
			cs["values_capped"] = 0
			stats.merge(name, cs, len(columns))
			continue
		}

		capped := 0
		for i, v := range col.Values {
			f, isNum := v.(float64)
			if !isNum {
				continue
			}
			switch {
			case f < lower:
				col.Values[i] = lower
				capped++
			case f > upper:
				col.Values[i] = upper
				capped++
			}
		}
		cs["lower_bound"] = lower
		cs["upper_bound"] = upper
		cs["values_capped"] = capped
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}
