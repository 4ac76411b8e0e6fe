package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/secretary/internal/config"
	secsync "github.com/alfredjeanlab/secretary/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export sender profiles as JSONL",
	GroupID: "system",
	Long: `Reads profiles from the configured identity store and writes them as
JSONL to stdout, or with --push to every configured sync destination.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		push, _ := cmd.Flags().GetBool("push")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := context.Background()

		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		if !push {
			return secsync.ExportJSONL(ctx, st, os.Stdout)
		}

		dests, err := buildDestinations(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return fmt.Errorf("no sync destinations configured (set SECRETARY_SYNC_FILE or SECRETARY_SYNC_S3_BUCKET)")
		}
		return secsync.NewScheduler(st, dests, 0, logger).RunOnce(ctx)
	},
}

func init() {
	exportCmd.Flags().Bool("push", false, "write to configured sync destinations instead of stdout")
}
