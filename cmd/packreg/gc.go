package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"packreg/internal/blobstore"
	"packreg/internal/config"
	"packreg/internal/registry"
	"packreg/internal/store"
)

func newGCCmd(cfg *config.Config) *cobra.Command {
	var (
		batchSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete stored blobs that no package references",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}

			logger := slog.Default().With("component", "gc")

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			cas, err := blobstore.NewLocalCAS(cfg.BlobRoot)
			if err != nil {
				return err
			}

			blobs := registry.NewBlobService(st, cas, logger)
			result, err := blobs.GC(cmd.Context(), batchSize, dryRun)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d deleted=%d failed=%d reclaimed_bytes=%d dry_run=%v\n",
				result.CandidateCount, result.DeletedCount, result.FailedCount, result.ReclaimedBytes, result.DryRun)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "maximum blobs to delete in one run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without deleting")

	return cmd
}
