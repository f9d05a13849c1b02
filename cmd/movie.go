package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/boxoffice"
	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/match"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

var movieCmd = &cobra.Command{
	Use:   "movie [title]",
	Short: "Show a movie with its box-office progression and rankings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, _ := cmd.Flags().GetString("id")
		var title string
		if len(args) == 1 {
			title = args[0]
		}
		if id == "" && title == "" {
			return eris.New("movie: a title argument or --id is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m, err := findMovie(ctx, st, title, id)
		if err != nil {
			return err
		}
		if m == nil {
			return eris.Errorf("movie: no catalog entry for %q", firstNonEmpty(id, title))
		}

		detail, err := boxoffice.Load(ctx, st, *m)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, detail)
	},
}

// findMovie looks up by external id, then exact title, then the matcher
// cascade over the whole catalog.
func findMovie(ctx context.Context, st store.Store, title, id string) (*model.Movie, error) {
	if id != "" {
		m, err := st.FindMovieByExternalID(ctx, id)
		if err != nil || m != nil {
			return m, err
		}
	}
	if title == "" {
		return nil, nil
	}
	m, err := st.FindMovieByTitle(ctx, title)
	if err != nil || m != nil {
		return m, err
	}

	catalog, err := ingest.LoadCatalog(ctx, st)
	if err != nil {
		return nil, err
	}
	res := match.NewResolver(catalog, match.WithSource("lookup"), match.WithSampleLimit(cfg.Ingest.MatchSampleLimit)).
		Resolve(title, "")
	if !res.Found() {
		return nil, nil
	}
	zap.L().Debug("movie: resolved by matcher", zap.String("query", title), zap.String("tier", res.Tier.String()))
	return res.Movie, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	movieCmd.Flags().String("id", "", "look up by external movie id")
	rootCmd.AddCommand(movieCmd)
}
