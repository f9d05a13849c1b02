// Package verify reports post-ingest statistics and how well the box-office
// and trend sources joined the catalog. It never writes to the store.
package verify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Defaults applied for zero option values.
const (
	DefaultSampleSize    = 20
	DefaultGoodThreshold = 0.8
	DefaultFairThreshold = 0.5
	DefaultTopTrends     = 5
)

// Verdict grades a match rate.
type Verdict string

const (
	VerdictGood Verdict = "good"
	VerdictFair Verdict = "fair"
	VerdictPoor Verdict = "poor"
	VerdictNone Verdict = "none" // nothing to sample
)

// Options configures a verification run.
type Options struct {
	SampleSize    int
	GoodThreshold float64
	FairThreshold float64
	TopTrends     int
}

func (o *Options) defaults() {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.GoodThreshold <= 0 {
		o.GoodThreshold = DefaultGoodThreshold
	}
	if o.FairThreshold <= 0 {
		o.FairThreshold = DefaultFairThreshold
	}
	if o.TopTrends <= 0 {
		o.TopTrends = DefaultTopTrends
	}
}

// Store is the read-only store surface used by Run.
type Store interface {
	Stats(ctx context.Context) (*model.Stats, error)
	DistinctTrendTitles(ctx context.Context, limit int) ([]string, error)
	DistinctBoxOfficeIDs(ctx context.Context, limit int) ([]string, error)
	FindMovieByTitle(ctx context.Context, title string) (*model.Movie, error)
	FindMovieByExternalID(ctx context.Context, externalID string) (*model.Movie, error)
	BoxOfficeByExternalID(ctx context.Context, externalID string) ([]model.BoxOfficeWeek, error)
	TrendDates(ctx context.Context, limit int) ([]string, error)
	TrendsByDate(ctx context.Context, date string, limit int) ([]model.TrendObservation, error)
}

// MatchRate is the outcome of one sampled cross-source check.
type MatchRate struct {
	Sampled int     `json:"sampled"`
	Matched int     `json:"matched"`
	Rate    float64 `json:"rate"` // 0..1
	Verdict Verdict `json:"verdict"`
}

// TopTrend is a latest-date trend annotated with catalog data.
type TopTrend struct {
	Title        string   `json:"title"`
	PostCount    int      `json:"post_count"`
	Revenue      *float64 `json:"revenue,omitempty"`
	InCatalog    bool     `json:"in_catalog"`
	HasBoxOffice bool     `json:"has_box_office"`
}

// Report is the verification result.
type Report struct {
	Stats            *model.Stats `json:"stats"`
	AvgWeeksPerMovie float64      `json:"avg_weeks_per_movie"`
	TrendMatch       MatchRate    `json:"trend_match"`
	BoxOfficeMatch   MatchRate    `json:"box_office_match"`
	LatestDate       string       `json:"latest_date,omitempty"`
	TopTrends        []TopTrend   `json:"top_trends,omitempty"`
}

// Run computes the verification report.
//
// Trend titles match when a catalog movie has exactly that title; box-office
// ids match when a catalog movie has that external id. Each check samples
// the first SampleSize distinct values in ascending order.
func Run(ctx context.Context, st Store, opts Options) (*Report, error) {
	opts.defaults()
	log := zap.L().With(zap.String("component", "verify"))

	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "verify: stats")
	}
	r := &Report{Stats: stats}
	if stats.BoxOfficeMovies > 0 {
		r.AvgWeeksPerMovie = float64(stats.BoxOfficeWeeks) / float64(stats.BoxOfficeMovies)
	}

	titles, err := st.DistinctTrendTitles(ctx, opts.SampleSize)
	if err != nil {
		return nil, eris.Wrap(err, "verify: sample trend titles")
	}
	r.TrendMatch, err = sample(ctx, titles, st.FindMovieByTitle, opts)
	if err != nil {
		return nil, eris.Wrap(err, "verify: match trend titles")
	}

	ids, err := st.DistinctBoxOfficeIDs(ctx, opts.SampleSize)
	if err != nil {
		return nil, eris.Wrap(err, "verify: sample box office ids")
	}
	r.BoxOfficeMatch, err = sample(ctx, ids, st.FindMovieByExternalID, opts)
	if err != nil {
		return nil, eris.Wrap(err, "verify: match box office ids")
	}

	if err := r.topTrends(ctx, st, opts.TopTrends); err != nil {
		return nil, err
	}

	log.Info("verify: complete",
		zap.Int64("movies", stats.Movies),
		zap.Int64("box_office_weeks", stats.BoxOfficeWeeks),
		zap.Int64("trends", stats.Trends),
		zap.Float64("trend_match_rate", r.TrendMatch.Rate),
		zap.String("trend_verdict", string(r.TrendMatch.Verdict)),
		zap.Float64("box_office_match_rate", r.BoxOfficeMatch.Rate),
		zap.String("box_office_verdict", string(r.BoxOfficeMatch.Verdict)),
	)
	return r, nil
}

func sample(ctx context.Context, values []string, find func(context.Context, string) (*model.Movie, error), opts Options) (MatchRate, error) {
	mr := MatchRate{Sampled: len(values), Verdict: VerdictNone}
	if len(values) == 0 {
		return mr, nil
	}
	for _, v := range values {
		m, err := find(ctx, v)
		if err != nil {
			return mr, err
		}
		if m != nil {
			mr.Matched++
		}
	}
	mr.Rate = float64(mr.Matched) / float64(mr.Sampled)
	mr.Verdict = Grade(mr.Rate, opts.GoodThreshold, opts.FairThreshold)
	return mr, nil
}

// Grade maps a match rate to a verdict.
func Grade(rate, good, fair float64) Verdict {
	switch {
	case rate >= good:
		return VerdictGood
	case rate >= fair:
		return VerdictFair
	default:
		return VerdictPoor
	}
}

func (r *Report) topTrends(ctx context.Context, st Store, n int) error {
	dates, err := st.TrendDates(ctx, 1)
	if err != nil {
		return eris.Wrap(err, "verify: latest trend date")
	}
	if len(dates) == 0 {
		return nil
	}
	r.LatestDate = dates[0]

	obs, err := st.TrendsByDate(ctx, r.LatestDate, n)
	if err != nil {
		return eris.Wrap(err, "verify: latest trends")
	}
	for _, o := range obs {
		tt := TopTrend{Title: o.MovieTitle, PostCount: o.PostCount}
		m, err := st.FindMovieByTitle(ctx, o.MovieTitle)
		if err != nil {
			return eris.Wrapf(err, "verify: find %q", o.MovieTitle)
		}
		if m != nil {
			tt.InCatalog = true
			tt.Revenue = m.Revenue
			if m.ExternalID != "" {
				weeks, err := st.BoxOfficeByExternalID(ctx, m.ExternalID)
				if err != nil {
					return eris.Wrapf(err, "verify: box office for %s", m.ExternalID)
				}
				tt.HasBoxOffice = len(weeks) > 0
			}
		}
		r.TopTrends = append(r.TopTrends, tt)
	}
	return nil
}
