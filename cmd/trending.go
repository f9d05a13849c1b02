package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/trend"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Rank titles by SNS post count for a day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		catalog, err := ingest.LoadCatalog(ctx, st)
		if err != nil {
			return err
		}

		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		board, err := trend.Ranking(ctx, st, catalog, date, limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, board)
		}
		if len(board.Entries) == 0 {
			fmt.Fprintln(os.Stderr, "No trend data found.")
			return nil
		}
		formatBoard(os.Stdout, board)
		return nil
	},
}

// formatBoard writes a ranking table to out.
func formatBoard(out io.Writer, board *trend.Board) {
	_, _ = fmt.Fprintf(out, "Date: %s\n\n", board.Date)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tTITLE\tPOSTS\tCHANGE\tSCORE\tREVENUE")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t------\t-----\t-------")
	for _, e := range board.Entries {
		revenue := "-"
		if e.Movie != nil && e.Movie.Revenue != nil {
			revenue = fmt.Sprintf("%.1f億円", *e.Movie.Revenue)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%.0f\t%s\n",
			e.Rank, e.Title, e.PostCount, e.Change, e.Score, revenue)
	}
	_ = w.Flush()
}

func init() {
	trendingCmd.Flags().String("date", "", "date as YYYY/MM/DD (default latest)")
	trendingCmd.Flags().Int("limit", trend.DefaultLimit, "number of titles")
	trendingCmd.Flags().Bool("json", false, "print JSON instead of a table")
	rootCmd.AddCommand(trendingCmd)
}
