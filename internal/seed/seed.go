// Package seed replaces the store contents with a small built-in catalog,
// its box-office runs and synthetic trends. It backs the seed command used
// for demos and fresh deployments.
package seed

import (
	"context"
	_ "embed"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type movieFixture struct {
	ExternalID  string   `yaml:"external_id"`
	Title       string   `yaml:"title"`
	Revenue     *float64 `yaml:"revenue"`
	Year        *int     `yaml:"year"`
	ReleaseDate string   `yaml:"release_date"`
	Category    string   `yaml:"category"`
	Distributor string   `yaml:"distributor"`
	Description string   `yaml:"description"`
	Director    string   `yaml:"director"`
	Author      string   `yaml:"author"`
	Actor       string   `yaml:"actor"`
	Genre       string   `yaml:"genre"`
}

type weekFixture struct {
	ExternalMovieID   string `yaml:"external_movie_id"`
	Year              *int   `yaml:"year"`
	Title             string `yaml:"title"`
	WeekLabel         string `yaml:"week_label"`
	WeekendRevenue    string `yaml:"weekend_revenue"`
	WeeklyRevenue     string `yaml:"weekly_revenue"`
	CumulativeRevenue string `yaml:"cumulative_revenue"`
}

// Fixtures is the seed data set.
type Fixtures struct {
	Movies    []model.Movie
	BoxOffice []model.BoxOfficeWeek
}

// Load parses the built-in fixtures.
func Load() (*Fixtures, error) {
	var raw struct {
		Movies    []movieFixture `yaml:"movies"`
		BoxOffice []weekFixture  `yaml:"box_office"`
	}
	if err := yaml.Unmarshal(fixturesYAML, &raw); err != nil {
		return nil, eris.Wrap(err, "seed: parse fixtures")
	}

	f := &Fixtures{}
	for _, m := range raw.Movies {
		f.Movies = append(f.Movies, model.Movie{
			ExternalID:  m.ExternalID,
			Title:       m.Title,
			Revenue:     m.Revenue,
			Year:        m.Year,
			ReleaseDate: m.ReleaseDate,
			Category:    m.Category,
			Distributor: m.Distributor,
			Description: m.Description,
			Director:    m.Director,
			Author:      m.Author,
			Actor:       m.Actor,
			Genre:       m.Genre,
		})
	}
	for _, w := range raw.BoxOffice {
		f.BoxOffice = append(f.BoxOffice, model.BoxOfficeWeek{
			ExternalMovieID:   w.ExternalMovieID,
			Year:              w.Year,
			Title:             w.Title,
			WeekLabel:         w.WeekLabel,
			WeekendRevenue:    w.WeekendRevenue,
			WeeklyRevenue:     w.WeeklyRevenue,
			CumulativeRevenue: w.CumulativeRevenue,
			MatchScore:        100,
		})
	}
	return f, nil
}

// Options configures a seed run.
type Options struct {
	TrendDays   int // synthetic trend history length
	TrendMovies int
	Now         func() time.Time
}

// Run migrates the schema, empties every entity table and writes the
// fixtures plus synthetic trends for them. The run is recorded in the
// ingest run log under the seed source.
func Run(ctx context.Context, st store.Store, opts Options) (*model.Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = ingest.DefaultFallbackDays
	}
	if opts.TrendMovies <= 0 {
		opts.TrendMovies = ingest.DefaultFallbackMovies
	}

	f, err := Load()
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "seed: migrate")
	}

	imp := ingest.New(st, ingest.Options{Now: opts.Now})
	return imp.Record(ctx, model.SourceSeed, func(ctx context.Context) (*model.Report, error) {
		return write(ctx, st, f, opts)
	})
}

func write(ctx context.Context, st store.Store, f *Fixtures, opts Options) (*model.Report, error) {
	report := &model.Report{Source: model.SourceSeed, Fallback: true}

	for _, tbl := range store.Tables {
		n, err := st.DeleteAll(ctx, tbl)
		if err != nil {
			return report, eris.Wrapf(err, "seed: clear %s", tbl)
		}
		report.Deleted += n
	}

	n, err := st.InsertMovies(ctx, f.Movies)
	if err != nil {
		return report, eris.Wrap(err, "seed: insert movies")
	}
	report.Inserted += n

	n, err = st.InsertBoxOffice(ctx, f.BoxOffice)
	if err != nil {
		return report, eris.Wrap(err, "seed: insert box office")
	}
	report.Inserted += n

	trends := ingest.GenerateFallback(f.Movies, opts.Now(), opts.TrendDays, opts.TrendMovies)
	n, err = st.InsertTrends(ctx, trends)
	if err != nil {
		return report, eris.Wrap(err, "seed: insert trends")
	}
	report.Inserted += n

	zap.L().Info("seed: complete",
		zap.Int("movies", len(f.Movies)),
		zap.Int("box_office_weeks", len(f.BoxOffice)),
		zap.Int("trends", len(trends)),
		zap.Int64("deleted", report.Deleted),
	)
	return report, nil
}
