package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/normalize"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search the catalog",
	Long:  "Searches the catalog by title substring, distributor, category, genre and year. Distributor terms are expanded through the alias table.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		aliases, err := normalize.LoadAliases(cfg.AliasesFile)
		if err != nil {
			return err
		}

		filter := store.MovieFilter{}
		if len(args) == 1 {
			filter.TitleContains = args[0]
		}
		if d, _ := cmd.Flags().GetString("distributor"); d != "" {
			for _, term := range normalize.SplitMulti(d) {
				filter.Distributors = append(filter.Distributors, aliases.Expand(term)...)
			}
		}
		filter.Category, _ = cmd.Flags().GetString("category")
		filter.Genre, _ = cmd.Flags().GetString("genre")
		if year, _ := cmd.Flags().GetInt("year"); year > 0 {
			filter.Year = &year
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		movies, err := st.SearchMovies(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, movies)
	},
}

func init() {
	searchCmd.Flags().String("distributor", "", "distributor name or alias (comma separated)")
	searchCmd.Flags().String("category", "", "exact category, e.g. 邦画")
	searchCmd.Flags().String("genre", "", "genre substring")
	searchCmd.Flags().Int("year", 0, "release year")
	searchCmd.Flags().Int("limit", store.DefaultSearchLimit, "max results")
	rootCmd.AddCommand(searchCmd)
}
