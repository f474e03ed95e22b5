package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/upload"
)

func sweepCommand(e *env) *cobra.Command {
	var (
		dryRun bool
		grace  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stored images no artwork references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.database()
			if err != nil {
				return err
			}
			st, err := e.storage()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("grace") {
				grace = e.cfg.SweepGrace
			}

			sweeper := upload.NewSweeper(st, artwork.NewRepository(db), upload.SweeperConfig{
				Grace:  grace,
				DryRun: dryRun,
			}, nil)

			result, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb, label := "deleted", "deleted"
			if dryRun {
				verb, label = "would delete", "candidates"
			}
			for _, key := range result.Deleted {
				fmt.Fprintf(out, "%s %s\n", verb, key)
			}
			fmt.Fprintf(out, "scanned=%d referenced=%d too_young=%d %s=%d failed=%d\n",
				result.Scanned, result.Referenced, result.TooYoung, label, len(result.Deleted), result.Failed)

			if result.Failed > 0 {
				return fmt.Errorf("%d files could not be deleted", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without deleting them")
	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "Minimum age of a file before it may be deleted (default SWEEP_GRACE)")
	return cmd
}
