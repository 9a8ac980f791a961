// cmd/datasmith/inspect.go
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datasmith/pkg/export"
	"datasmith/pkg/ingest"
	"datasmith/pkg/ops"
	"datasmith/pkg/suggest"
)

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the available cleaning operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids := ops.IDs()
			sort.Strings(ids)
			for _, id := range ids {
				op, _ := ops.Lookup(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", id, op.Summary)
			}
			return nil
		},
	}
}

func newInfoCmd(logger *zap.Logger) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize a dataset's columns and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			report := export.Build(ds, nil, nil, nil)
			if format == "json" {
				data, err := report.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Markdown())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or json")
	return cmd
}

func newSuggestCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <file>",
		Short: "Recommend cleaning operations for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			suggestions := suggest.Analyze(ds, logger)
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No suggestions; the data looks clean.")
				return nil
			}
			for _, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n    %s\n", s.OperationID, s.Columns, s.Rationale)
			}
			return nil
		},
	}
}

func newSampleCmd(logger *zap.Logger) *cobra.Command {
	var (
		rows int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a reproducible sample dataset as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := ingest.SampleDataset(rows)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteCSV(ds, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", ds.Rows(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 100, "Number of rows to generate")
	cmd.Flags().StringVar(&out, "out", "sample.csv", "Output CSV path")
	return cmd
}
