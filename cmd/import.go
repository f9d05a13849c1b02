package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
	"github.com/sells-group/boxoffice-cli/internal/verify"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import movies, box office and trends, then verify",
	Long: "Replaces the catalog, box-office weeks and trend observations with the configured source files, " +
		"in that order, and prints the per-source reports followed by the verification report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		paths := ingest.Paths{
			Movies:    flagOr(cmd, "movies", cfg.Ingest.MoviesFile),
			BoxOffice: flagOr(cmd, "boxoffice", cfg.Ingest.BoxOfficeFile),
			Trends:    flagOr(cmd, "trends", cfg.Ingest.TrendsFile),
		}

		res, err := newImporter(cmd, st).Run(ctx, paths)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		out := struct {
			Reports []*model.Report `json:"reports"`
			Verify  *verify.Report  `json:"verify,omitempty"`
		}{Reports: res.Reports()}

		if skip, _ := cmd.Flags().GetBool("skip-verify"); !skip {
			out.Verify, err = runVerify(ctx, st)
			if err != nil {
				return err
			}
		}
		return printJSON(os.Stdout, out)
	},
}

var importMoviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "Replace the movie catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return importOne(cmd, model.SourceMovies, cfg.Ingest.MoviesFile,
			func(ctx context.Context, imp *ingest.Importer, path string) (*model.Report, error) {
				return imp.ImportMovies(ctx, path)
			})
	},
}

var importBoxOfficeCmd = &cobra.Command{
	Use:   "boxoffice",
	Short: "Replace the weekly box-office data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return importOne(cmd, model.SourceBoxOffice, cfg.Ingest.BoxOfficeFile,
			func(ctx context.Context, imp *ingest.Importer, path string) (*model.Report, error) {
				return imp.ImportBoxOfficeFromStore(ctx, path)
			})
	},
}

var importTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Replace the SNS trend observations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return importOne(cmd, model.SourceTrends, cfg.Ingest.TrendsFile,
			func(ctx context.Context, imp *ingest.Importer, path string) (*model.Report, error) {
				return imp.ImportTrendsFromStore(ctx, path)
			})
	},
}

type importFunc func(ctx context.Context, imp *ingest.Importer, path string) (*model.Report, error)

// importOne runs a single source import as one entry of the run log.
func importOne(cmd *cobra.Command, source model.Source, defaultPath string, fn importFunc) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	path := flagOr(cmd, "file", defaultPath)
	imp := newImporter(cmd, st)
	report, err := imp.Record(ctx, source, func(ctx context.Context) (*model.Report, error) {
		return fn(ctx, imp, path)
	})
	if err != nil {
		return eris.Wrapf(err, "import %s", source)
	}

	zap.L().Info("import complete", zap.String("source", string(source)), zap.String("file", path))
	return printJSON(os.Stdout, report)
}

func newImporter(cmd *cobra.Command, st store.Store) *ingest.Importer {
	chunk := cfg.Ingest.ChunkSize
	if n, _ := cmd.Flags().GetInt("chunk-size"); n > 0 {
		chunk = n
	}
	return ingest.New(st, ingest.Options{
		ChunkSize:      chunk,
		Encodings:      cfg.Ingest.Encodings,
		SampleLimit:    cfg.Ingest.MatchSampleLimit,
		FallbackDays:   cfg.Ingest.FallbackDays,
		FallbackMovies: cfg.Ingest.FallbackMovies,
	})
}

// flagOr returns the string flag name when set, def otherwise.
func flagOr(cmd *cobra.Command, name, def string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return def
}

func init() {
	importCmd.PersistentFlags().Int("chunk-size", 0, "rows per committed chunk (default from config)")

	importCmd.Flags().String("movies", "", "movie master file (CSV or XLSX)")
	importCmd.Flags().String("boxoffice", "", "weekly box-office file (CSV or XLSX)")
	importCmd.Flags().String("trends", "", "SNS trend file (CSV or XLSX)")
	importCmd.Flags().Bool("skip-verify", false, "do not run verification after the import")

	for _, c := range []*cobra.Command{importMoviesCmd, importBoxOfficeCmd, importTrendsCmd} {
		c.Flags().String("file", "", "source file (default from config)")
		importCmd.AddCommand(c)
	}
	rootCmd.AddCommand(importCmd)
}
