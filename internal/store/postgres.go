package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/boxoffice-cli/internal/db"
	"github.com/sells-group/boxoffice-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS movies (
	id           BIGSERIAL PRIMARY KEY,
	external_id  TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL,
	revenue      DOUBLE PRECISION,
	year         INTEGER,
	release_date TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	distributor  TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	director     TEXT NOT NULL DEFAULT '',
	author       TEXT NOT NULL DEFAULT '',
	actor        TEXT NOT NULL DEFAULT '',
	scriptwriter TEXT NOT NULL DEFAULT '',
	producer     TEXT NOT NULL DEFAULT '',
	copyright    TEXT NOT NULL DEFAULT '',
	genre        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);
CREATE INDEX IF NOT EXISTS idx_movies_external_id ON movies(external_id);

CREATE TABLE IF NOT EXISTS box_office_weeks (
	id                 BIGSERIAL PRIMARY KEY,
	external_movie_id  TEXT NOT NULL,
	year               INTEGER,
	title              TEXT NOT NULL DEFAULT '',
	week_label         TEXT NOT NULL,
	weekend_revenue    TEXT NOT NULL DEFAULT '',
	weekly_revenue     TEXT NOT NULL DEFAULT '',
	cumulative_revenue TEXT NOT NULL DEFAULT '',
	match_score        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_box_office_external_id ON box_office_weeks(external_movie_id);

CREATE TABLE IF NOT EXISTS trend_observations (
	id          BIGSERIAL PRIMARY KEY,
	date        TEXT NOT NULL,
	movie_title TEXT NOT NULL,
	post_count  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trends_date_title ON trend_observations(date, movie_title);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	report       JSONB,
	error        TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, table Table) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+string(table))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete %s", table)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) InsertMovies(ctx context.Context, movies []model.Movie) (int, error) {
	rows := make([][]any, len(movies))
	for i, m := range movies {
		rows[i] = movieValues(m)
	}
	return s.copyChunk(ctx, string(TableMovies), movieInsertColumns, rows)
}

func (s *PostgresStore) InsertBoxOffice(ctx context.Context, weeks []model.BoxOfficeWeek) (int, error) {
	rows := make([][]any, len(weeks))
	for i, w := range weeks {
		rows[i] = boxOfficeValues(w)
	}
	return s.copyChunk(ctx, string(TableBoxOffice), boxOfficeInsertColumns, rows)
}

func (s *PostgresStore) InsertTrends(ctx context.Context, obs []model.TrendObservation) (int, error) {
	rows := make([][]any, len(obs))
	for i, o := range obs {
		rows[i] = []any{o.Date, o.MovieTitle, o.PostCount}
	}
	return s.copyChunk(ctx, string(TableTrends), trendInsertColumns, rows)
}

// copyChunk COPYs rows inside one transaction.
func (s *PostgresStore) copyChunk(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var n int64
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		n, err = db.CopyFrom(ctx, tx, table, columns, rows)
		return err
	})
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert %s chunk", table)
	}
	return int(n), nil
}

func (s *PostgresStore) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list movies")
	}
	return scanPostgresMovies(rows)
}

func (s *PostgresStore) FindMovieByTitle(ctx context.Context, title string) (*model.Movie, error) {
	return s.findMovie(ctx, "title", title)
}

func (s *PostgresStore) FindMovieByExternalID(ctx context.Context, externalID string) (*model.Movie, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.findMovie(ctx, "external_id", externalID)
}

func (s *PostgresStore) findMovie(ctx context.Context, column, value string) (*model.Movie, error) {
	var m model.Movie
	err := s.pool.QueryRow(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE "+column+" = $1 ORDER BY id LIMIT 1", value,
	).Scan(movieDest(&m)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: find movie by %s", column)
	}
	return &m, nil
}

func (s *PostgresStore) SearchMovies(ctx context.Context, filter MovieFilter) ([]model.Movie, error) {
	query, args := searchQuery(filter, func(n int) string { return fmt.Sprintf("$%d", n) }, "ILIKE", "revenue DESC NULLS LAST, id")
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search movies")
	}
	return scanPostgresMovies(rows)
}

func scanPostgresMovies(rows pgx.Rows) ([]model.Movie, error) {
	defer rows.Close()

	var movies []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(movieDest(&m)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan movie")
		}
		movies = append(movies, m)
	}
	return movies, eris.Wrap(rows.Err(), "postgres: iterate movies")
}

func (s *PostgresStore) BoxOfficeByExternalID(ctx context.Context, externalID string) ([]model.BoxOfficeWeek, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+boxOfficeColumns+" FROM box_office_weeks WHERE external_movie_id = $1 ORDER BY id", externalID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: box office by id")
	}
	defer rows.Close()

	var weeks []model.BoxOfficeWeek
	for rows.Next() {
		var w model.BoxOfficeWeek
		if err := rows.Scan(boxOfficeDest(&w)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan box office week")
		}
		weeks = append(weeks, w)
	}
	return weeks, eris.Wrap(rows.Err(), "postgres: iterate box office")
}

func (s *PostgresStore) TrendsByDate(ctx context.Context, date string, limit int) ([]model.TrendObservation, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	} // nil renders LIMIT NULL, i.e. no limit

	rows, err := s.pool.Query(ctx, fmt.Sprintf(latestTrendsQuery, "$1", "$2"), date, limitArg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: trends by date")
	}
	defer rows.Close()

	var out []model.TrendObservation
	for rows.Next() {
		var o model.TrendObservation
		if err := rows.Scan(&o.ID, &o.Date, &o.MovieTitle, &o.PostCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate trends")
}

func (s *PostgresStore) TrendDates(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT date FROM trend_observations ORDER BY date DESC LIMIT $1", limit)
}

func (s *PostgresStore) DistinctTrendTitles(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT movie_title FROM trend_observations ORDER BY movie_title LIMIT $1", limit)
}

func (s *PostgresStore) DistinctBoxOfficeIDs(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT external_movie_id FROM box_office_weeks ORDER BY external_movie_id LIMIT $1", limit)
}

func (s *PostgresStore) distinct(ctx context.Context, query string, limit int) ([]string, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx, query, limitArg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct values")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan value")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate values")
}

func (s *PostgresStore) Count(ctx context.Context, table Table) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+string(table)).Scan(&n)
	return n, eris.Wrapf(err, "postgres: count %s", table)
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(revenue), MAX(revenue), AVG(revenue), MIN(year), MAX(year) FROM movies`,
	).Scan(&st.Movies, &st.RevenueMin, &st.RevenueMax, &st.RevenueAvg, &st.YearMin, &st.YearMax)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: movie stats")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT external_movie_id) FROM box_office_weeks`,
	).Scan(&st.BoxOfficeWeeks, &st.BoxOfficeMovies)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: box office stats")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT movie_title), COALESCE(MIN(date), ''), COALESCE(MAX(date), ''),
			MIN(post_count), MAX(post_count), AVG(post_count)::float8
		 FROM trend_observations`,
	).Scan(&st.Trends, &st.TrendTitles, &st.TrendDateMin, &st.TrendDateMax,
		&st.PostCountMin, &st.PostCountMax, &st.PostCountAvg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: trend stats")
	}
	return &st, nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, source model.Source) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, source, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, string(run.Source), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, report, "")
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, report *model.Report, errMsg string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, report, errMsg)
}

func (s *PostgresStore) finishRun(ctx context.Context, runID string, status model.RunStatus, report *model.Report, errMsg string) error {
	var reportJSON []byte
	if report != nil {
		var err error
		reportJSON, err = json.Marshal(report)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal report")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, report = $2, error = $3, completed_at = $4 WHERE id = $5`,
		string(status), reportJSON, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, status, report, error, started_at, completed_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var (
			r          model.IngestRun
			reportJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &reportJSON, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if reportJSON != nil {
			r.Report = &model.Report{}
			if err := json.Unmarshal(reportJSON, r.Report); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal report")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
