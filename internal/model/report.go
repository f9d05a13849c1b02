package model

import "time"

// Source names one of the external inputs.
type Source string

const (
	SourceMovies    Source = "movies"
	SourceBoxOffice Source = "boxoffice"
	SourceTrends    Source = "trends"
	SourceSeed      Source = "seed"
)

// Report holds the outcome counters of a single source import.
type Report struct {
	Source           Source `json:"source"`
	Inserted         int    `json:"inserted"`
	Skipped          int    `json:"skipped"`
	Errors           int    `json:"errors"`
	Deleted          int64  `json:"deleted"`
	Encoding         string `json:"encoding,omitempty"`
	UnmatchedColumns int    `json:"unmatched_columns,omitempty"`
	Fallback         bool   `json:"fallback,omitempty"` // synthetic trend data was generated
}

// Total returns the number of rows that reached a terminal state.
func (r *Report) Total() int {
	return r.Inserted + r.Skipped
}

// RunStatus is the lifecycle state of an ingest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// IngestRun is an entry of the ingest run log.
type IngestRun struct {
	ID          string     `json:"id"`
	Source      Source     `json:"source"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Report      *Report    `json:"report,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Stats summarises the persisted entities. Pointer fields are nil when the
// corresponding table is empty.
type Stats struct {
	Movies          int64    `json:"movies"`
	BoxOfficeWeeks  int64    `json:"box_office_weeks"`
	Trends          int64    `json:"trends"`
	RevenueMin      *float64 `json:"revenue_min,omitempty"`
	RevenueMax      *float64 `json:"revenue_max,omitempty"`
	RevenueAvg      *float64 `json:"revenue_avg,omitempty"`
	YearMin         *int     `json:"year_min,omitempty"`
	YearMax         *int     `json:"year_max,omitempty"`
	BoxOfficeMovies int64    `json:"box_office_movies"`
	TrendTitles     int64    `json:"trend_titles"`
	TrendDateMin    string   `json:"trend_date_min,omitempty"`
	TrendDateMax    string   `json:"trend_date_max,omitempty"`
	PostCountMin    *int     `json:"post_count_min,omitempty"`
	PostCountMax    *int     `json:"post_count_max,omitempty"`
	PostCountAvg    *float64 `json:"post_count_avg,omitempty"`
}
