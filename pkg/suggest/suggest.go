// pkg/suggest/suggest.go
package suggest

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"datasmith/pkg/dataset"
	"datasmith/pkg/ops"
)

// Suggestion is a structured cleaning recommendation. It names a catalog
// operation plus ready-to-apply columns and parameters, so a caller can feed
// it straight into session.Apply.
type Suggestion struct {
	OperationID string     `json:"operation_id"`
	Columns     []string   `json:"columns"`
	Params      ops.Params `json:"parameters,omitempty"`
	Rationale   string     `json:"rationale"`
}

// Thresholds for the rule set. Skew is the gap between mean and median in
// standard deviations; the z cutoff matches the default outlier detector.
const (
	skewThreshold   = 0.5
	zscoreThreshold = 3.0
)

// Analyze scans a dataset and returns rule-based cleaning suggestions in
// column order. It never mutates the dataset.
func Analyze(ds *dataset.Dataset, logger *zap.Logger) []Suggestion {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("suggest")

	var suggestions []Suggestion
	for _, col := range ds.Columns() {
		c := col
		suggestions = append(suggestions, suggestForColumn(&c)...)
	}

	logger.Info("Generated suggestions",
		zap.String("dataset", ds.Name),
		zap.Int("count", len(suggestions)))
	return suggestions
}

func suggestForColumn(c *dataset.Column) []Suggestion {
	var out []Suggestion

	summary := dataset.Summarize(c)
	if summary.Missing > 0 {
		out = append(out, suggestImpute(c, summary))
	}

	switch c.Type {
	case dataset.Numeric:
		values := c.Floats()
		if len(values) >= 3 && summary.Std > 0 {
			if skew := math.Abs(summary.Mean-summary.Median) / summary.Std; skew > skewThreshold {
				out = append(out, Suggestion{
					OperationID: "log_transform",
					Columns:     []string{c.Name},
					Rationale: fmt.Sprintf("%s looks skewed (mean %.2f vs median %.2f); a log transform can even it out",
						c.Name, summary.Mean, summary.Median),
				})
			}
			if n := countOutliers(values, summary.Mean, summary.Std); n > 0 {
				out = append(out, Suggestion{
					OperationID: "remove_outliers",
					Columns:     []string{c.Name},
					Params:      ops.Params{"method": "zscore"},
					Rationale:   fmt.Sprintf("%s has %d values more than %.0f standard deviations from the mean", c.Name, n, zscoreThreshold),
				})
			}
		}
	case dataset.Categorical, dataset.Text:
		if hasInconsistentCase(c) {
			out = append(out, Suggestion{
				OperationID: "standardize_category_names",
				Columns:     []string{c.Name},
				Params:      ops.Params{"case": "upper"},
				Rationale:   fmt.Sprintf("%s mixes letter cases or stray whitespace across values", c.Name),
			})
		}
		if looksLikeDates(c) {
			out = append(out, Suggestion{
				OperationID: "to_datetime",
				Columns:     []string{c.Name},
				Rationale:   fmt.Sprintf("%s is stored as text but every value parses as a date", c.Name),
			})
		}
	}

	return out
}

func suggestImpute(c *dataset.Column, summary dataset.Summary) Suggestion {
	if c.Type == dataset.Numeric {
		return Suggestion{
			OperationID: "impute_missing_mean",
			Columns:     []string{c.Name},
			Rationale: fmt.Sprintf("%s has %d missing values (%.1f%%); fill with the column mean",
				c.Name, summary.Missing, summary.MissingPct),
		}
	}
	return Suggestion{
		OperationID: "impute_missing_mode",
		Columns:     []string{c.Name},
		Rationale: fmt.Sprintf("%s has %d missing values (%.1f%%); fill with the most frequent value",
			c.Name, summary.Missing, summary.MissingPct),
	}
}

func countOutliers(values []float64, mean, std float64) int {
	n := 0
	for _, v := range values {
		if math.Abs(v-mean)/std > zscoreThreshold {
			n++
		}
	}
	return n
}

// hasInconsistentCase reports whether two distinct values collapse to the
// same string once trimmed, whitespace-normalized and lowercased.
func hasInconsistentCase(c *dataset.Column) bool {
	seen := make(map[string]string)
	for _, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		normalized := strings.ToLower(strings.Join(strings.Fields(s), " "))
		if prev, exists := seen[normalized]; exists && prev != s {
			return true
		}
		seen[normalized] = s
	}
	return false
}

// looksLikeDates reports whether every non-missing value in a string column
// parses as a timestamp.
func looksLikeDates(c *dataset.Column) bool {
	parsed := 0
	for _, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, err := ops.ParseTime(s); err != nil {
			return false
		}
		parsed++
	}
	return parsed > 0
}
