// cmd/datasmith/root.go
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datasmith/pkg/config"
)

func newRootCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "datasmith",
		Short: "Tabular data cleaning with a replayable transformation log",
		Long: `datasmith loads CSV or JSON data, applies cleaning operations from a
fixed catalog and records every step in an append-only log. Versions are
cheap metadata checkpoints; restoring one replays its recorded steps
against the original data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newOpsCmd(),
		newInfoCmd(logger),
		newApplyCmd(logger),
		newRunCmd(logger),
		newSuggestCmd(logger),
		newSampleCmd(logger),
		newSaveCmd(cfg, logger),
		newLoadCmd(cfg, logger),
		newListCmd(cfg, logger),
	)
	return root
}
