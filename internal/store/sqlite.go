package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS movies (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id  TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL,
	revenue      REAL,
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
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
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
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	date        TEXT NOT NULL,
	movie_title TEXT NOT NULL,
	post_count  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trends_date_title ON trend_observations(date, movie_title);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	report       TEXT,
	error        TEXT NOT NULL DEFAULT '',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, table Table) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+string(table))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete %s", table)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) InsertMovies(ctx context.Context, movies []model.Movie) (int, error) {
	rows := make([][]any, len(movies))
	for i, m := range movies {
		rows[i] = movieValues(m)
	}
	return s.insertChunk(ctx, "movies", movieInsertColumns, rows)
}

func (s *SQLiteStore) InsertBoxOffice(ctx context.Context, weeks []model.BoxOfficeWeek) (int, error) {
	rows := make([][]any, len(weeks))
	for i, w := range weeks {
		rows[i] = boxOfficeValues(w)
	}
	return s.insertChunk(ctx, "box_office_weeks", boxOfficeInsertColumns, rows)
}

func (s *SQLiteStore) InsertTrends(ctx context.Context, obs []model.TrendObservation) (int, error) {
	rows := make([][]any, len(obs))
	for i, o := range obs {
		rows[i] = []any{o.Date, o.MovieTitle, o.PostCount}
	}
	return s.insertChunk(ctx, "trend_observations", trendInsertColumns, rows)
}

// insertChunk writes rows in a single transaction. Nothing is kept when any
// row fails.
func (s *SQLiteStore) insertChunk(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s row %d", table, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit %s", table)
	}
	return len(rows), nil
}

func (s *SQLiteStore) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list movies")
	}
	return scanSQLiteMovies(rows)
}

func (s *SQLiteStore) FindMovieByTitle(ctx context.Context, title string) (*model.Movie, error) {
	return s.findMovie(ctx, "title", title)
}

func (s *SQLiteStore) FindMovieByExternalID(ctx context.Context, externalID string) (*model.Movie, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.findMovie(ctx, "external_id", externalID)
}

func (s *SQLiteStore) findMovie(ctx context.Context, column, value string) (*model.Movie, error) {
	var m model.Movie
	err := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE "+column+" = ? ORDER BY id LIMIT 1", value,
	).Scan(movieDest(&m)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find movie by %s", column)
	}
	return &m, nil
}

func (s *SQLiteStore) SearchMovies(ctx context.Context, filter MovieFilter) ([]model.Movie, error) {
	query, args := searchQuery(filter, func(int) string { return "?" }, "LIKE", "revenue IS NULL, revenue DESC, id")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search movies")
	}
	return scanSQLiteMovies(rows)
}

func scanSQLiteMovies(rows *sql.Rows) ([]model.Movie, error) {
	defer rows.Close() //nolint:errcheck

	var movies []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(movieDest(&m)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan movie")
		}
		movies = append(movies, m)
	}
	return movies, eris.Wrap(rows.Err(), "sqlite: iterate movies")
}

func (s *SQLiteStore) BoxOfficeByExternalID(ctx context.Context, externalID string) ([]model.BoxOfficeWeek, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+boxOfficeColumns+" FROM box_office_weeks WHERE external_movie_id = ? ORDER BY id", externalID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: box office by id")
	}
	defer rows.Close() //nolint:errcheck

	var weeks []model.BoxOfficeWeek
	for rows.Next() {
		var w model.BoxOfficeWeek
		if err := rows.Scan(boxOfficeDest(&w)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan box office week")
		}
		weeks = append(weeks, w)
	}
	return weeks, eris.Wrap(rows.Err(), "sqlite: iterate box office")
}

func (s *SQLiteStore) TrendsByDate(ctx context.Context, date string, limit int) ([]model.TrendObservation, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(latestTrendsQuery, "?", "?"), date, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: trends by date")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.TrendObservation
	for rows.Next() {
		var o model.TrendObservation
		if err := rows.Scan(&o.ID, &o.Date, &o.MovieTitle, &o.PostCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate trends")
}

func (s *SQLiteStore) TrendDates(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT date FROM trend_observations ORDER BY date DESC LIMIT ?", limit)
}

func (s *SQLiteStore) DistinctTrendTitles(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT movie_title FROM trend_observations ORDER BY movie_title LIMIT ?", limit)
}

func (s *SQLiteStore) DistinctBoxOfficeIDs(ctx context.Context, limit int) ([]string, error) {
	return s.distinct(ctx, "SELECT DISTINCT external_movie_id FROM box_office_weeks ORDER BY external_movie_id LIMIT ?", limit)
}

func (s *SQLiteStore) distinct(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct values")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan value")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate values")
}

func (s *SQLiteStore) Count(ctx context.Context, table Table) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+string(table)).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count %s", table)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(revenue), MAX(revenue), AVG(revenue), MIN(year), MAX(year) FROM movies`,
	).Scan(&st.Movies, &st.RevenueMin, &st.RevenueMax, &st.RevenueAvg, &st.YearMin, &st.YearMax)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: movie stats")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT external_movie_id) FROM box_office_weeks`,
	).Scan(&st.BoxOfficeWeeks, &st.BoxOfficeMovies)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: box office stats")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT movie_title), COALESCE(MIN(date), ''), COALESCE(MAX(date), ''),
			MIN(post_count), MAX(post_count), AVG(post_count)
		 FROM trend_observations`,
	).Scan(&st.Trends, &st.TrendTitles, &st.TrendDateMin, &st.TrendDateMax,
		&st.PostCountMin, &st.PostCountMax, &st.PostCountAvg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: trend stats")
	}
	return &st, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source model.Source) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Source), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, report, "")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, report *model.Report, errMsg string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, report, errMsg)
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, report *model.Report, errMsg string) error {
	var reportJSON sql.NullString
	if report != nil {
		b, err := json.Marshal(report)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal report")
		}
		reportJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, report = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), reportJSON, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, status, report, error, started_at, completed_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.IngestRun
	for rows.Next() {
		var (
			r          model.IngestRun
			reportJSON sql.NullString
			completed  sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &reportJSON, &r.Error, &r.StartedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		if reportJSON.Valid {
			r.Report = &model.Report{}
			if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal report")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
