// pkg/dataset/stats.go
package dataset

import (
	"math"
	"sort"
)

// Summary holds per-column descriptive statistics. Numeric fields are only
// populated for numeric columns; Unique only for non-numeric ones.
type Summary struct {
	Column     string  `json:"column"`
	Type       Type    `json:"type"`
	Rows       int     `json:"rows"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_percent"`
	Mean       float64 `json:"mean,omitempty"`
	Median     float64 `json:"median,omitempty"`
	Std        float64 `json:"std,omitempty"`
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`
	Unique     int     `json:"unique,omitempty"`
}

// Summarize computes descriptive statistics for a column. All numeric
// statistics are computed over non-missing values only.
func Summarize(c *Column) Summary {
	s := Summary{
		Column:  c.Name,
		Type:    c.Type,
		Rows:    c.Len(),
		Missing: c.Missing(),
	}
	if s.Rows > 0 {
		s.MissingPct = float64(s.Missing) / float64(s.Rows) * 100
	}

	if c.Type == Numeric {
		values := c.Floats()
		if len(values) > 0 {
			s.Mean = Mean(values)
			s.Median = Median(values)
			s.Std = Std(values)
			s.Min, s.Max = MinMax(values)
		}
		return s
	}

	unique := make(map[interface{}]struct{})
	for _, v := range c.Values {
		if v != nil {
			unique[v] = struct{}{}
		}
	}
	s.Unique = len(unique)
	return s
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median using linear interpolation between midpoints.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Std returns the sample standard deviation (n-1 denominator).
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Quantile returns the q-th quantile (0..1) with linear interpolation.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// MinMax returns the minimum and maximum of values.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
