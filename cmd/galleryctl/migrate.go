package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/pkg/database"
)

func migrateCommand(e *env) *cobra.Command {
	var normalizeImages bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply the embedded schema migrations for the configured DB_DRIVER.
With --normalize-images, legacy image_url values stored as a bare path
are rewritten as JSON arrays afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.database()
			if err != nil {
				return err
			}

			applied, err := database.NewMigrator(db).Run(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}

			if !normalizeImages {
				return nil
			}
			changed, err := artwork.NewRepository(db).NormalizeImageURLs(cmd.Context())
			if err != nil {
				return fmt.Errorf("normalize image urls: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "normalized image_url on %d artworks\n", changed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&normalizeImages, "normalize-images", false, "Rewrite legacy image_url values as JSON arrays")
	return cmd
}
