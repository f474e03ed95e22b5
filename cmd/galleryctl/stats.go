package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/artgallery/gallery-api/internal/domain/analytics"
)

type statsReport struct {
	YearSource      analytics.YearSource       `json:"year_source"`
	GenrePopularity []analytics.GenreCount     `json:"genre_popularity"`
	YearWise        []analytics.YearGenreCount `json:"year_wise"`
	AgeGenre        []analytics.AgeGenreCount  `json:"age_genre"`
}

func statsCommand(e *env) *cobra.Command {
	var yearSource string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the analytics aggregates as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("year-source") {
				yearSource = e.cfg.AnalyticsYearSource
			}
			source, err := analytics.ParseYearSource(yearSource)
			if err != nil {
				return err
			}

			db, err := e.database()
			if err != nil {
				return err
			}

			svc := analytics.NewService(analytics.NewRepository(db), nil, 0, source, nil)
			ctx := cmd.Context()

			report := statsReport{YearSource: source}
			if report.GenrePopularity, err = svc.GenrePopularity(ctx); err != nil {
				return err
			}
			if report.YearWise, err = svc.YearWise(ctx); err != nil {
				return err
			}
			if report.AgeGenre, err = svc.AgeGenre(ctx); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&yearSource, "year-source", "year", "Year used by the year-wise aggregate: year or created_at")
	return cmd
}
