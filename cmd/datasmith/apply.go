// cmd/datasmith/apply.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datasmith/pkg/export"
	"datasmith/pkg/ingest"
	"datasmith/pkg/ops"
	"datasmith/pkg/session"
	"datasmith/pkg/translog"
)

func newApplyCmd(logger *zap.Logger) *cobra.Command {
	var (
		columns    []string
		paramsJSON string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "apply <file> <operation>",
		Short: "Apply one cleaning operation and write the result as CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			var params ops.Params
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("invalid --params json: %w", err)
				}
			}

			sess, err := session.New(ds, logger)
			if err != nil {
				return err
			}

			operationID := args[1]
			stats, err := sess.Apply(operationID, "", operationID, columns, params)
			if err != nil {
				return err
			}
			if msg := stats.Error(); msg != "" {
				return fmt.Errorf("operation rejected: %s", msg)
			}

			statsData, err := json.MarshalIndent(stats, "", "  ")
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), string(statsData))
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteCSV(sess.Current(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to [%s]; wrote %s\n",
				operationID, strings.Join(columns, ", "), out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Target columns")
	cmd.Flags().StringVar(&paramsJSON, "params", "", "Operation parameters as JSON")
	cmd.Flags().StringVar(&out, "out", "output.csv", "Output CSV path")
	return cmd
}

func newRunCmd(logger *zap.Logger) *cobra.Command {
	var (
		out    string
		report string
	)

	cmd := &cobra.Command{
		Use:   "run <file> <pipeline.json>",
		Short: "Apply a pipeline of transformations from a JSON file",
		Long: `The pipeline file is a JSON array of steps in transformation-record form:
[{"name": "...", "operation_id": "...", "target_columns": [...], "parameters": {...}}, ...]
Steps whose operation fails are reported and skipped; the rest still run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read pipeline file: %w", err)
			}
			steps, err := translog.DecodeRecords(data)
			if err != nil {
				return err
			}

			sess, err := session.New(ds, logger)
			if err != nil {
				return err
			}

			for i, step := range steps {
				stats, err := sess.Apply(step.Name, step.Description, step.OperationID, step.Columns, step.Params)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				if msg := stats.Error(); msg != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: step %d (%s) skipped: %s\n", i+1, step.OperationID, msg)
				}
			}

			for _, h := range sess.History() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", h.Timestamp.Format("15:04:05"), h.Action)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := export.WriteCSV(sess.Current(), f); err != nil {
				return err
			}

			if report != "" {
				md := export.Build(sess.Current(), sess.Log().Records(), sess.History(), sess.Versions().List()).Markdown()
				if err := os.WriteFile(report, []byte(md), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d steps; wrote %s\n", sess.Log().Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "output.csv", "Output CSV path")
	cmd.Flags().StringVar(&report, "report", "", "Also write a Markdown report to this path")
	return cmd
}
