package verify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "verify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func ptr[T any](v T) *T { return &v }

func TestRun_Empty(t *testing.T) {
	st := newTestStore(t)

	r, err := Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.Zero(t, r.Stats.Movies)
	assert.Zero(t, r.AvgWeeksPerMovie)
	assert.Equal(t, VerdictNone, r.TrendMatch.Verdict)
	assert.Equal(t, VerdictNone, r.BoxOfficeMatch.Verdict)
	assert.Empty(t, r.LatestDate)
	assert.Empty(t, r.TopTrends)
}

func TestRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.InsertMovies(ctx, []model.Movie{
		{ExternalID: "1", Title: "A", Revenue: ptr(10.0), Year: ptr(2020)},
		{ExternalID: "2", Title: "B", Revenue: ptr(30.0), Year: ptr(2022)},
		{Title: "C"},
	})
	require.NoError(t, err)
	_, err = st.InsertBoxOffice(ctx, []model.BoxOfficeWeek{
		{ExternalMovieID: "1", Title: "A", WeekLabel: "第1週", CumulativeRevenue: "1"},
		{ExternalMovieID: "1", Title: "A", WeekLabel: "第2週", CumulativeRevenue: "2"},
		{ExternalMovieID: "1", Title: "A", WeekLabel: "第3週", CumulativeRevenue: "3"},
		{ExternalMovieID: "9", Title: "Z", WeekLabel: "第1週", CumulativeRevenue: "1"},
	})
	require.NoError(t, err)
	_, err = st.InsertTrends(ctx, []model.TrendObservation{
		{Date: "2024/01/01", MovieTitle: "A", PostCount: 5},
		{Date: "2024/01/02", MovieTitle: "A", PostCount: 50},
		{Date: "2024/01/02", MovieTitle: "C", PostCount: 70},
		{Date: "2024/01/02", MovieTitle: "X", PostCount: 10},
		{Date: "2024/01/02", MovieTitle: "Y", PostCount: 1},
	})
	require.NoError(t, err)

	r, err := Run(ctx, st, Options{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), r.Stats.Movies)
	assert.InDelta(t, 20.0, *r.Stats.RevenueAvg, 1e-9)
	assert.Equal(t, 2020, *r.Stats.YearMin)
	assert.InDelta(t, 2.0, r.AvgWeeksPerMovie, 1e-9)

	assert.Equal(t, MatchRate{Sampled: 4, Matched: 2, Rate: 0.5, Verdict: VerdictFair}, r.TrendMatch)
	assert.Equal(t, MatchRate{Sampled: 2, Matched: 1, Rate: 0.5, Verdict: VerdictFair}, r.BoxOfficeMatch)

	assert.Equal(t, "2024/01/02", r.LatestDate)
	require.Len(t, r.TopTrends, 4)
	assert.Equal(t, TopTrend{Title: "C", PostCount: 70, InCatalog: true}, r.TopTrends[0])
	assert.Equal(t, "A", r.TopTrends[1].Title)
	assert.True(t, r.TopTrends[1].HasBoxOffice)
	assert.InDelta(t, 10.0, *r.TopTrends[1].Revenue, 1e-9)
	assert.False(t, r.TopTrends[2].InCatalog)
}

func TestRun_SampleSize(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.InsertMovies(ctx, []model.Movie{{Title: "A"}})
	require.NoError(t, err)
	_, err = st.InsertTrends(ctx, []model.TrendObservation{
		{Date: "2024/01/01", MovieTitle: "A", PostCount: 1},
		{Date: "2024/01/01", MovieTitle: "B", PostCount: 1},
		{Date: "2024/01/01", MovieTitle: "C", PostCount: 1},
	})
	require.NoError(t, err)

	r, err := Run(ctx, st, Options{SampleSize: 1})
	require.NoError(t, err)
	assert.Equal(t, MatchRate{Sampled: 1, Matched: 1, Rate: 1, Verdict: VerdictGood}, r.TrendMatch,
		"sample is the first title in ascending order")
}

func TestGrade(t *testing.T) {
	assert.Equal(t, VerdictGood, Grade(0.8, 0.8, 0.5))
	assert.Equal(t, VerdictFair, Grade(0.79, 0.8, 0.5))
	assert.Equal(t, VerdictFair, Grade(0.5, 0.8, 0.5))
	assert.Equal(t, VerdictPoor, Grade(0.49, 0.8, 0.5))
}

func TestRun_DoesNotWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.InsertMovies(ctx, []model.Movie{{Title: "A"}})
	require.NoError(t, err)

	_, err = Run(ctx, st, Options{})
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	n, err := st.Count(ctx, store.TableMovies)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
