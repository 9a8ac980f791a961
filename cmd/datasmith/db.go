// cmd/datasmith/db.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datasmith/pkg/config"
	"datasmith/pkg/export"
	"datasmith/pkg/ingest"
	"datasmith/pkg/session"
	"datasmith/pkg/store"
)

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Store, func(), error) {
	if cfg.Database == nil {
		return nil, nil, fmt.Errorf("no database configured: set DATABASE_URL or POSTGRES_* variables")
	}

	db, err := store.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	policy := store.RetryPolicy{MaxAttempts: cfg.RetryAttempts, BaseDelay: cfg.RetryDelay}
	st, err := store.NewStore(db, logger, policy)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, func() { db.Close() }, nil
}

func newSaveCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Persist a dataset to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ds, err := ingest.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			st, closeFn, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			snap := store.Snapshot{
				DatasetID:   ds.ID,
				Name:        ds.Name,
				FileName:    filepath.Base(args[0]),
				FileType:    strings.TrimPrefix(filepath.Ext(args[0]), "."),
				Description: description,
				Original:    ds,
				Current:     ds,
			}
			if err := st.Save(ctx, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved dataset %s (%s)\n", ds.Name, ds.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Dataset description")
	return cmd
}

func newLoadCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "load <dataset-id>",
		Short: "Load a saved dataset and write its current state as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid dataset id %q: %w", args[0], err)
			}

			st, closeFn, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := st.Load(ctx, id)
			if err != nil {
				return err
			}

			sess, issues, err := session.Resume(snap.Original, snap.Records, snap.Versions, logger)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: step %d (%s) skipped during replay: %s\n",
					issue.Index+1, issue.OperationID, issue.Reason)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteCSV(sess.Current(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s: %d transformations, %d versions; wrote %s\n",
				snap.Name, len(snap.Records), len(snap.Versions), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "loaded.csv", "Output CSV path")
	return cmd
}

func newListCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, closeFn, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			infos, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved datasets.")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %dx%d  updated %s\n",
					info.ID, info.Name, info.RowCount, info.ColumnCount,
					info.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
