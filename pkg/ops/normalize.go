// pkg/ops/normalize.go
package ops

import (
	"datasmith/pkg/dataset"
)

// normalize rescales numeric columns in place. Methods: "zscore" (default),
// "minmax", "robust". A column with zero spread under the chosen method is
// left unchanged rather than producing NaN or Inf.
func normalize(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	method := params.String("method", "zscore")
	if method != "zscore" && method != "minmax" && method != "robust" {
		s := Stats{}
		s.setError("unknown normalize method %q (want zscore, minmax or robust)", method)
		return ds, s
	}

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		values := col.Floats()
		cs := Stats{"method": method}
		if len(values) == 0 {
			cs["scaled"] = false
			stats.merge(name, cs, len(columns))
			continue
		}

		var shift, scale float64
		switch method {
		case "minmax":
			min, max := dataset.MinMax(values)
			shift, scale = min, max-min
			cs["min"], cs["max"] = min, max
		case "robust":
			median := dataset.Median(values)
			iqr := dataset.Quantile(values, 0.75) - dataset.Quantile(values, 0.25)
			shift, scale = median, iqr
			cs["median"], cs["iqr"] = median, iqr
		default:
			mean := dataset.Mean(values)
			std := dataset.Std(values)
			shift, scale = mean, std
			cs["mean"], cs["std"] = mean, std
		}

		if scale == 0 {
			// Constant column: leave unchanged.
			cs["scaled"] = false
			stats.merge(name, cs, len(columns))
			continue
		}

		for i, v := range col.Values {
			if f, ok := v.(float64); ok {
				col.Values[i] = (f - shift) / scale
			}
		}
		cs["scaled"] = true
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// standardizeData is z-score standardization, kept as its own identifier for
// compatibility with historical transformation records.
func standardizeData(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	forced := params.Clone()
	if forced == nil {
		forced = Params{}
	}
	forced["method"] = "zscore"
	return normalize(ds, columns, forced)
}
