// Package trend ranks SNS post counts for a day and compares them with the
// day before.
package trend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boxoffice-cli/internal/match"
	"github.com/sells-group/boxoffice-cli/internal/model"
)

// DefaultLimit is the ranking length when none is given.
const DefaultLimit = 10

// Change markers.
const (
	ChangeNew     = "NEW" // no observation the previous day
	ChangeUnknown = "-%"
)

// Reader is the store surface needed to build a ranking.
type Reader interface {
	TrendDates(ctx context.Context, limit int) ([]string, error)
	TrendsByDate(ctx context.Context, date string, limit int) ([]model.TrendObservation, error)
}

// Entry is one ranked title.
type Entry struct {
	Rank      int          `json:"rank"`
	Title     string       `json:"title"`
	PostCount int          `json:"post_count"`
	Change    string       `json:"change"`
	Score     float64      `json:"score"` // percent of the leader's count, capped at 100
	Movie     *model.Movie `json:"movie,omitempty"`
}

// Board is the ranking for one date.
type Board struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// Ranking returns the top limit titles by post count on date, or on the
// latest stored date when date is empty. Each entry carries its change from
// the previous day and the catalog movie the title resolves to. An empty
// store yields an empty board.
func Ranking(ctx context.Context, r Reader, catalog *match.Catalog, date string, limit int) (*Board, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if date == "" {
		dates, err := r.TrendDates(ctx, 1)
		if err != nil {
			return nil, eris.Wrap(err, "trend: latest date")
		}
		if len(dates) == 0 {
			return &Board{}, nil
		}
		date = dates[0]
	}

	board := &Board{Date: date}
	obs, err := r.TrendsByDate(ctx, date, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "trend: observations for %s", date)
	}
	if len(obs) == 0 {
		return board, nil
	}

	previous, ok, err := previousDay(ctx, r, date)
	if err != nil {
		return nil, err
	}

	resolver := match.NewResolver(catalog, match.WithSource("trending"))
	leader := max(1, obs[0].PostCount)
	for i, o := range obs {
		e := Entry{
			Rank:      i + 1,
			Title:     o.MovieTitle,
			PostCount: o.PostCount,
			Change:    ChangeUnknown,
			Score:     math.Min(100, float64(o.PostCount)/float64(leader)*100),
		}
		if ok {
			e.Change = Change(o.PostCount, previous[o.MovieTitle])
		}
		if m := resolver.Resolve(o.MovieTitle, ""); m.Found() {
			mv := *m.Movie
			e.Movie = &mv
		}
		board.Entries = append(board.Entries, e)
	}
	return board, nil
}

// previousDay returns the post counts of the day before date, keyed by
// title. ok is false when date is not a valid trend date.
func previousDay(ctx context.Context, r Reader, date string) (map[string]int, bool, error) {
	t, err := time.Parse(model.TrendDateLayout, date)
	if err != nil {
		return nil, false, nil
	}
	prev := t.AddDate(0, 0, -1).Format(model.TrendDateLayout)

	obs, err := r.TrendsByDate(ctx, prev, 0)
	if err != nil {
		return nil, false, eris.Wrapf(err, "trend: observations for %s", prev)
	}
	counts := make(map[string]int, len(obs))
	for _, o := range obs {
		counts[o.MovieTitle] = o.PostCount
	}
	return counts, true, nil
}

// Change formats the day-over-day change of a post count. A previous count
// of zero means the title was absent the day before.
func Change(current, previous int) string {
	if previous <= 0 {
		return ChangeNew
	}
	rate := float64(current-previous) / float64(previous) * 100
	if rate > 0 {
		return fmt.Sprintf("+%.1f%%", rate)
	}
	return fmt.Sprintf("%.1f%%", rate)
}
