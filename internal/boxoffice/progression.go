// Package boxoffice derives the weekly progression and revenue rankings shown
// for a single catalog movie.
package boxoffice

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/normalize"
)

// Week is one processed week of a movie's run. Revenues are in 億円.
type Week struct {
	Ordinal           int      `json:"ordinal"`
	Label             string   `json:"label"`
	WeekendRevenue    float64  `json:"weekend_revenue"`
	WeeklyRevenue     float64  `json:"weekly_revenue"`
	CumulativeRevenue float64  `json:"cumulative_revenue"`
	WeekendChange     *float64 `json:"weekend_change,omitempty"` // percent vs previous week
	WeeklyChange      *float64 `json:"weekly_change,omitempty"`
}

// Progression turns the stored weeks of one movie into an ordered series.
// Rows whose cumulative revenue parses to zero are dropped, the remaining
// rows are ordered by week ordinal and the first row of each ordinal wins.
// Changes are computed against the previous kept week.
func Progression(rows []model.BoxOfficeWeek) []Week {
	type ordered struct {
		row model.BoxOfficeWeek
		ord int
	}
	sorted := make([]ordered, len(rows))
	for i, r := range rows {
		sorted[i] = ordered{row: r, ord: normalize.WeekOrdinal(r.WeekLabel)}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ord < sorted[j].ord })

	var (
		out  []Week
		seen = make(map[int]bool, len(sorted))
	)
	for _, o := range sorted {
		r, ord := o.row, o.ord
		if seen[ord] {
			continue
		}
		cumulative := normalize.ParseMonetary(r.CumulativeRevenue)
		if cumulative == 0 {
			continue
		}
		seen[ord] = true

		w := Week{
			Ordinal:           ord,
			Label:             r.WeekLabel,
			WeekendRevenue:    normalize.ParseMonetary(r.WeekendRevenue),
			WeeklyRevenue:     normalize.ParseMonetary(r.WeeklyRevenue),
			CumulativeRevenue: cumulative,
		}
		if n := len(out); n > 0 {
			prev := out[n-1]
			w.WeekendChange = ChangePercent(w.WeekendRevenue, prev.WeekendRevenue)
			w.WeeklyChange = ChangePercent(w.WeeklyRevenue, prev.WeeklyRevenue)
		}
		out = append(out, w)
	}
	return out
}

// ChangePercent returns the change from previous to current in percent,
// rounded to one decimal. Nil when previous is zero.
func ChangePercent(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := math.Round((current-previous)/previous*1000) / 10
	return &v
}

// Reader is the store surface needed to build a Detail.
type Reader interface {
	ListMovies(ctx context.Context) ([]model.Movie, error)
	BoxOfficeByExternalID(ctx context.Context, externalID string) ([]model.BoxOfficeWeek, error)
}

// Detail is the box-office view of one movie.
type Detail struct {
	Movie    model.Movie `json:"movie"`
	Weeks    []Week      `json:"weeks"`
	Rankings Ranks       `json:"rankings"`
}

// Load builds the progression and rankings for movie.
func Load(ctx context.Context, r Reader, movie model.Movie) (*Detail, error) {
	d := &Detail{Movie: movie}

	if movie.ExternalID != "" {
		rows, err := r.BoxOfficeByExternalID(ctx, movie.ExternalID)
		if err != nil {
			return nil, eris.Wrapf(err, "boxoffice: load weeks for %s", movie.ExternalID)
		}
		d.Weeks = Progression(rows)
	}

	catalog, err := r.ListMovies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "boxoffice: load catalog")
	}
	d.Rankings = Rankings(movie, catalog)
	return d, nil
}
