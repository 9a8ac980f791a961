// pkg/export/report.go
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"datasmith/pkg/dataset"
	"datasmith/pkg/translog"
	"datasmith/pkg/version"
)

// Report is a point-in-time account of an editing session: the current
// dataset's shape and column statistics, the full transformation log and the
// version checkpoints. It renders to JSON for machines and Markdown for
// people.
type Report struct {
	Dataset     string                 `json:"dataset"`
	GeneratedAt time.Time              `json:"generated_at"`
	Rows        int                    `json:"rows"`
	Cols        int                    `json:"cols"`
	Columns     []dataset.Summary       `json:"columns"`
	Records     []translog.Record       `json:"transformations"`
	History     []translog.HistoryEntry `json:"history"`
	Versions    []version.Version       `json:"versions"`
}

// Build assembles a report from the session's parts.
func Build(ds *dataset.Dataset, records []translog.Record, history []translog.HistoryEntry, versions []version.Version) Report {
	r := Report{
		Dataset:     ds.Name,
		GeneratedAt: time.Now().UTC(),
		Rows:        ds.Rows(),
		Cols:        ds.Cols(),
		Records:     records,
		History:     history,
		Versions:    versions,
	}
	for _, c := range ds.Columns() {
		col := c
		r.Columns = append(r.Columns, dataset.Summarize(&col))
	}
	return r
}

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// Markdown renders the report as a human-readable document.
func (r Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Data report: %s\n\n", r.Dataset)
	fmt.Fprintf(&b, "Generated %s\n\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Shape:** %d rows x %d columns\n\n", r.Rows, r.Cols)

	b.WriteString("## Columns\n\n")
	b.WriteString("| Column | Type | Missing | Mean | Median | Std | Min | Max | Unique |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, c := range r.Columns {
		if c.Type == dataset.Numeric {
			fmt.Fprintf(&b, "| %s | %s | %d (%.1f%%) | %.4g | %.4g | %.4g | %.4g | %.4g | |\n",
				c.Column, c.Type, c.Missing, c.MissingPct, c.Mean, c.Median, c.Std, c.Min, c.Max)
		} else {
			fmt.Fprintf(&b, "| %s | %s | %d (%.1f%%) | | | | | | %d |\n",
				c.Column, c.Type, c.Missing, c.MissingPct, c.Unique)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Transformations\n\n")
	if len(r.Records) == 0 {
		b.WriteString("No transformations applied.\n\n")
	} else {
		for i, rec := range r.Records {
			fmt.Fprintf(&b, "%d. **%s** (`%s`) on %s", i+1, rec.Name, rec.OperationID, strings.Join(rec.Columns, ", "))
			if rec.Description != "" {
				fmt.Fprintf(&b, " -- %s", rec.Description)
			}
			fmt.Fprintf(&b, " _(%s)_\n", rec.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Versions\n\n")
	if len(r.Versions) == 0 {
		b.WriteString("No versions created.\n\n")
	} else {
		b.WriteString("| # | Name | Steps | Shape | Created |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, v := range r.Versions {
			fmt.Fprintf(&b, "| %d | %s | %d | %dx%d | %s |\n",
				v.Number, v.Name, len(v.Snapshot), v.Rows, v.Cols, v.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		b.WriteString("\n")
	}

	if len(r.History) > 0 {
		b.WriteString("## Activity\n\n")
		for _, h := range r.History {
			fmt.Fprintf(&b, "- %s %s", h.Timestamp.Format("2006-01-02 15:04:05"), h.Action)
			if h.Details != "" {
				fmt.Fprintf(&b, " (%s)", h.Details)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
