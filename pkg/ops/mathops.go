// pkg/ops/mathops.go
package ops

import (
	"math"

	"datasmith/pkg/dataset"
)

// autoShift returns the constant added before a transform that is undefined
// for non-positive input: abs(min)+1 when the column minimum is <= 0, else 0.
func autoShift(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, _ := dataset.MinMax(values)
	if min <= 0 {
		return math.Abs(min) + 1
	}
	return 0
}

// derivedTransform applies fn to each target column into a new column named
// <column><suffix>, shifting non-positive data first when shiftNonPositive is
// set. The source columns are kept.
func derivedTransform(ds *dataset.Dataset, columns []string, suffix string, shiftNonPositive bool, fn func(float64) float64) (*dataset.Dataset, Stats) {
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

		shift := 0.0
		if shiftNonPositive {
			shift = autoShift(values)
		}

		derived := make([]interface{}, col.Len())
		for i, v := range col.Values {
			if f, ok := v.(float64); ok {
				derived[i] = fn(f + shift)
			}
		}
		newName := name + suffix
		if err := out.AddColumn(dataset.Column{Name: newName, Type: dataset.Numeric, Values: derived}); err != nil {
			s := Stats{}
			s.setError("column %s: %v", name, err)
			return ds, s
		}

		cs := Stats{"new_column": newName, "shift": shift}
		stats.merge(name, cs, len(columns))
	}
	return out, stats
}

// logTransform writes ln(x + shift) into a new <column>_log column. The shift
// is abs(min)+1 whenever the column contains non-positive values, so the
// transform is always defined.
func logTransform(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return derivedTransform(ds, columns, "_log", true, math.Log)
}

// sqrtTransform writes sqrt(x + shift) into a new <column>_sqrt column.
func sqrtTransform(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	return derivedTransform(ds, columns, "_sqrt", true, math.Sqrt)
}

// boxcoxTransform writes the Box-Cox transform into a new <column>_boxcox
// column: ((x^lambda)-1)/lambda, or ln(x) when lambda is 0. Data is shifted
// positive first. Lambda defaults to 0.
func boxcoxTransform(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	lambda := params.Float("lambda", 0)
	fn := math.Log
	if lambda != 0 {
		fn = func(x float64) float64 {
			return (math.Pow(x, lambda) - 1) / lambda
		}
	}
	out, stats := derivedTransform(ds, columns, "_boxcox", true, fn)
	if stats.Error() == "" && len(stats) > 0 {
		stats["lambda"] = lambda
	}
	return out, stats
}

// roundOff rounds numeric values in place to the given number of decimals
// (default 2). The decimals parameter must be a non-negative integer.
func roundOff(ds *dataset.Dataset, columns []string, params Params) (*dataset.Dataset, Stats) {
	if s, done := guard(ds, columns); done {
		return ds, s
	}
	if s := requireType(ds, columns, dataset.Numeric); s != nil {
		return ds, s
	}

	decimals := params.Int("decimals", 2)
	if decimals < 0 {
		s := Stats{}
		s.setError("decimals must be a non-negative integer, got %d", decimals)
		return ds, s
	}
	factor := math.Pow(10, float64(decimals))

	out := ds.Clone()
	stats := Stats{}
	for _, name := range columns {
		col, _ := out.Column(name)
		for i, v := range col.Values {
			if f, ok := v.(float64); ok {
				col.Values[i] = math.Round(f*factor) / factor
			}
		}
		stats.merge(name, Stats{"decimals": decimals}, len(columns))
	}
	return out, stats
}
