package model

// Movie is a catalog entry: the canonical record every external source is
// resolved against.
type Movie struct {
	ID           int64    `json:"id"`
	ExternalID   string   `json:"external_id,omitempty"` // may be empty; duplicates tolerated
	Title        string   `json:"title"`
	Revenue      *float64 `json:"revenue,omitempty"` // hundred-million yen (億円)
	Year         *int     `json:"year,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	Category     string   `json:"category,omitempty"`
	Distributor  string   `json:"distributor,omitempty"`
	Description  string   `json:"description,omitempty"`
	Director     string   `json:"director,omitempty"`
	Author       string   `json:"author,omitempty"`
	Actor        string   `json:"actor,omitempty"`
	Scriptwriter string   `json:"scriptwriter,omitempty"`
	Producer     string   `json:"producer,omitempty"`
	Copyright    string   `json:"copyright,omitempty"`
	Genre        string   `json:"genre,omitempty"`
}

// RevenueOr returns the revenue or def when it is unknown.
func (m Movie) RevenueOr(def float64) float64 {
	if m.Revenue == nil {
		return def
	}
	return *m.Revenue
}

// BoxOfficeWeek is one weekly box-office observation. Revenue columns are
// kept exactly as they appeared in the source and parsed on read.
type BoxOfficeWeek struct {
	ID                int64  `json:"id"`
	ExternalMovieID   string `json:"external_movie_id"`
	Year              *int   `json:"year,omitempty"`
	Title             string `json:"title"`
	WeekLabel         string `json:"week_label"`
	WeekendRevenue    string `json:"weekend_revenue"`
	WeeklyRevenue     string `json:"weekly_revenue"`
	CumulativeRevenue string `json:"cumulative_revenue"`
	MatchScore        int    `json:"match_score"`
}

// TrendObservation is one (date, movie, post count) point from the SNS
// post-count series. Date is formatted YYYY/MM/DD.
type TrendObservation struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	MovieTitle string `json:"movie_title"`
	PostCount  int    `json:"post_count"`
}

// TrendDateLayout is the canonical layout of TrendObservation.Date.
const TrendDateLayout = "2006/01/02"
