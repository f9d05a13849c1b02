package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the built-in sample catalog",
	Long:  "Deletes every movie, box-office week and trend observation and writes the sample catalog, its box-office runs and synthetic trends.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return eris.New("seed deletes all data; pass --yes to continue")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		days, _ := cmd.Flags().GetInt("days")
		report, err := seed.Run(ctx, st, seed.Options{
			TrendDays:   days,
			TrendMovies: cfg.Ingest.FallbackMovies,
		})
		if err != nil {
			return eris.Wrap(err, "seed")
		}
		return printJSON(os.Stdout, report)
	},
}

func init() {
	seedCmd.Flags().Int("days", 7, "days of synthetic trend history")
	seedCmd.Flags().Bool("yes", false, "confirm that existing data is deleted")
	rootCmd.AddCommand(seedCmd)
}
