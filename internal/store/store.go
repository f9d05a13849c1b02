// Package store persists the catalog, box-office weeks, trend observations
// and the ingest run log.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Table names one of the replaceable entity tables.
type Table string

const (
	TableMovies    Table = "movies"
	TableBoxOffice Table = "box_office_weeks"
	TableTrends    Table = "trend_observations"
)

// Tables lists the entity tables in dependency order.
var Tables = []Table{TableMovies, TableBoxOffice, TableTrends}

func (t Table) valid() error {
	switch t {
	case TableMovies, TableBoxOffice, TableTrends:
		return nil
	}
	return eris.Errorf("store: unknown table %q", string(t))
}

// MovieFilter specifies criteria for searching the catalog. Distributors
// match when any of the terms occurs in the distributor column.
type MovieFilter struct {
	TitleContains string   `json:"title_contains,omitempty"`
	Distributors  []string `json:"distributors,omitempty"`
	Category      string   `json:"category,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Year          *int     `json:"year,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// DefaultSearchLimit caps SearchMovies when the filter sets no limit.
const DefaultSearchLimit = 50

// Store defines the persistence interface for the ingest pipeline and the
// read-only query surface.
type Store interface {
	// Replacement and chunk writes. Each Insert call is one transaction.
	DeleteAll(ctx context.Context, table Table) (int64, error)
	InsertMovies(ctx context.Context, movies []model.Movie) (int, error)
	InsertBoxOffice(ctx context.Context, weeks []model.BoxOfficeWeek) (int, error)
	InsertTrends(ctx context.Context, obs []model.TrendObservation) (int, error)

	// Catalog
	ListMovies(ctx context.Context) ([]model.Movie, error)
	FindMovieByTitle(ctx context.Context, title string) (*model.Movie, error)
	FindMovieByExternalID(ctx context.Context, externalID string) (*model.Movie, error)
	SearchMovies(ctx context.Context, filter MovieFilter) ([]model.Movie, error)

	// Box office and trends
	BoxOfficeByExternalID(ctx context.Context, externalID string) ([]model.BoxOfficeWeek, error)
	TrendsByDate(ctx context.Context, date string, limit int) ([]model.TrendObservation, error)
	TrendDates(ctx context.Context, limit int) ([]string, error)

	// Verification
	Stats(ctx context.Context) (*model.Stats, error)
	DistinctTrendTitles(ctx context.Context, limit int) ([]string, error)
	DistinctBoxOfficeIDs(ctx context.Context, limit int) ([]string, error)
	Count(ctx context.Context, table Table) (int64, error)

	// Run log
	CreateRun(ctx context.Context, source model.Source) (*model.IngestRun, error)
	CompleteRun(ctx context.Context, runID string, report *model.Report) error
	FailRun(ctx context.Context, runID string, report *model.Report, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

const movieColumns = `id, external_id, title, revenue, year, release_date, category, distributor,
	description, director, author, actor, scriptwriter, producer, copyright, genre`

var movieInsertColumns = []string{
	"external_id", "title", "revenue", "year", "release_date", "category", "distributor",
	"description", "director", "author", "actor", "scriptwriter", "producer", "copyright", "genre",
}

func movieValues(m model.Movie) []any {
	return []any{
		m.ExternalID, m.Title, m.Revenue, m.Year, m.ReleaseDate, m.Category, m.Distributor,
		m.Description, m.Director, m.Author, m.Actor, m.Scriptwriter, m.Producer, m.Copyright, m.Genre,
	}
}

func movieDest(m *model.Movie) []any {
	return []any{
		&m.ID, &m.ExternalID, &m.Title, &m.Revenue, &m.Year, &m.ReleaseDate, &m.Category, &m.Distributor,
		&m.Description, &m.Director, &m.Author, &m.Actor, &m.Scriptwriter, &m.Producer, &m.Copyright, &m.Genre,
	}
}

const boxOfficeColumns = `id, external_movie_id, year, title, week_label, weekend_revenue,
	weekly_revenue, cumulative_revenue, match_score`

var boxOfficeInsertColumns = []string{
	"external_movie_id", "year", "title", "week_label", "weekend_revenue",
	"weekly_revenue", "cumulative_revenue", "match_score",
}

func boxOfficeValues(w model.BoxOfficeWeek) []any {
	return []any{
		w.ExternalMovieID, w.Year, w.Title, w.WeekLabel, w.WeekendRevenue,
		w.WeeklyRevenue, w.CumulativeRevenue, w.MatchScore,
	}
}

func boxOfficeDest(w *model.BoxOfficeWeek) []any {
	return []any{
		&w.ID, &w.ExternalMovieID, &w.Year, &w.Title, &w.WeekLabel, &w.WeekendRevenue,
		&w.WeeklyRevenue, &w.CumulativeRevenue, &w.MatchScore,
	}
}

var trendInsertColumns = []string{"date", "movie_title", "post_count"}

// latestTrendsQuery keeps the most recently inserted row for every title on
// the date, so a repeated (date, title) pair reads as last-write-wins.
const latestTrendsQuery = `SELECT id, date, movie_title, post_count FROM trend_observations
	WHERE id IN (SELECT MAX(id) FROM trend_observations WHERE date = %s GROUP BY movie_title)
	ORDER BY post_count DESC, movie_title
	LIMIT %s`

// searchQuery builds the SearchMovies statement. ph renders the n-th (1-based)
// placeholder for the dialect; like is the case-insensitive match operator.
func searchQuery(f MovieFilter, ph func(int) string, like, order string) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	if f.TitleContains != "" {
		where = append(where, fmt.Sprintf("title %s %s", like, next("%"+f.TitleContains+"%")))
	}
	if len(f.Distributors) > 0 {
		var ors []string
		for _, d := range f.Distributors {
			ors = append(ors, fmt.Sprintf("distributor %s %s", like, next("%"+d+"%")))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Category != "" {
		where = append(where, "category = "+next(f.Category))
	}
	if f.Genre != "" {
		where = append(where, fmt.Sprintf("genre %s %s", like, next("%"+f.Genre+"%")))
	}
	if f.Year != nil {
		where = append(where, "year = "+next(*f.Year))
	}

	query := "SELECT " + movieColumns + " FROM movies"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query += " ORDER BY " + order + " LIMIT " + next(limit)
	return query, args
}
