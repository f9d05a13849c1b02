package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boxoffice-cli/internal/boxoffice"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

func samplePaths(t *testing.T) Paths {
	t.Helper()
	return Paths{
		Movies: writeCSV(t, "movie_master.csv", [][]string{
			movieHeader,
			movieRow("Sample Film", "107.5", "2020", "7"),
			movieRow("Other Film", "12", "2021", "8"),
		}),
		BoxOffice: writeCSV(t, "box_office.csv", [][]string{
			boxOfficeHeader,
			weekRow("7", "Sample Film", "第1週", "46.2"),
			weekRow("7", "Sample Film", "第2週", "0"),
			weekRow("7", "Sample Film", "第3週", "107.5"),
		}),
		Trends: writeCSV(t, "sns_trends.csv", [][]string{
			{"", "", "_"},
			{"", "", "Sample Film"},
			{"", "", "7"},
			{"2024/01/01", "", "500"},
		}),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := newTestImporter(st, 500).Run(ctx, samplePaths(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Movies.Inserted)
	assert.Equal(t, 3, res.BoxOffice.Inserted)
	assert.Equal(t, 1, res.Trends.Inserted)
	assert.False(t, res.Trends.Fallback)
	assert.Len(t, res.Reports(), 3)

	obs, err := st.TrendsByDate(ctx, "2024/01/01", 0)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, model.TrendObservation{ID: obs[0].ID, Date: "2024/01/01", MovieTitle: "Sample Film", PostCount: 500}, obs[0])

	rows, err := st.BoxOfficeByExternalID(ctx, "7")
	require.NoError(t, err)
	weeks := boxoffice.Progression(rows)
	require.Len(t, weeks, 2)
	assert.Equal(t, 1, weeks[0].Ordinal)
	assert.Equal(t, 3, weeks[1].Ordinal)
}

func TestRun_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	imp := newTestImporter(st, 2)
	paths := samplePaths(t)

	counts := func() [3]int64 {
		var out [3]int64
		for i, tbl := range store.Tables {
			n, err := st.Count(ctx, tbl)
			require.NoError(t, err)
			out[i] = n
		}
		return out
	}

	_, err := imp.Run(ctx, paths)
	require.NoError(t, err)
	first := counts()

	_, err = imp.Run(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, first, counts())
}

func TestRun_MissingBoxOfficeWritesNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	paths := samplePaths(t)
	paths.BoxOffice = filepath.Join(t.TempDir(), "absent.csv")

	_, err := newTestImporter(st, 500).Run(ctx, paths)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSourceMissing))

	for _, tbl := range store.Tables {
		n, err := st.Count(ctx, tbl)
		require.NoError(t, err)
		assert.Zero(t, n, string(tbl))
	}
	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRun_MissingTrendsFallsBack(t *testing.T) {
	st := newTestStore(t)
	paths := samplePaths(t)
	paths.Trends = ""

	res, err := newTestImporter(st, 500).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.True(t, res.Trends.Fallback)
	assert.Equal(t, 2*DefaultFallbackDays, res.Trends.Inserted)
}

func TestRun_RecordsRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := newTestImporter(st, 500).Run(ctx, samplePaths(t))
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	bySource := map[model.Source]model.IngestRun{}
	for _, r := range runs {
		bySource[r.Source] = r
	}
	for _, src := range []model.Source{model.SourceMovies, model.SourceBoxOffice, model.SourceTrends} {
		r, ok := bySource[src]
		require.True(t, ok, src)
		assert.Equal(t, model.RunStatusComplete, r.Status)
		require.NotNil(t, r.Report)
		assert.NotNil(t, r.CompletedAt)
	}
	assert.Equal(t, 2, bySource[model.SourceMovies].Report.Inserted)
}

func TestRecord_Failure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := newTestImporter(st, 500).Record(ctx, model.SourceMovies, func(context.Context) (*model.Report, error) {
		return &model.Report{Source: model.SourceMovies, Skipped: 1}, errForced
	})
	require.ErrorIs(t, err, errForced)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Equal(t, errForced.Error(), runs[0].Error)
	require.NotNil(t, runs[0].Report)
	assert.Equal(t, 1, runs[0].Report.Skipped)
}

func TestImportTrendsFromStore_ChunkFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, st, model.Movie{ExternalID: "7", Title: "Sample Film", Revenue: rev(1)})
	flaky := &flakyStore{Store: st, failOn: 1}

	path := writeCSV(t, "trends.csv", [][]string{
		{"", "", "k"},
		{"", "", "Sample Film"},
		{"", "", "7"},
		{"2024/01/01", "", "1"},
		{"2024/01/02", "", "2"},
		{"2024/01/03", "", "3"},
	})

	report, err := newTestImporter(flaky, 2).ImportTrendsFromStore(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Errors)
	assert.False(t, report.Fallback)

	dates, err := st.TrendDates(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024/01/03"}, dates)
}
