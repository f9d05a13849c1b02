package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/sells-group/boxoffice-cli/internal/store"
)

func TestImportMovies(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	path := writeCSV(t, "movies.csv", [][]string{
		movieHeader,
		movieRow("Small Film", "1.5", "2019", "3"),
		movieRow("Sample Film", "46.2億", "2020", "7.0"),
		movieRow("", "10", "2020", "8"),          // no title
		movieRow("No Revenue", "", "2020", "9"),  // no revenue
		movieRow("Bad Revenue", "n/a", "", "10"), // unparseable revenue
		{"", "", ""},                             // blank, ignored
		movieRow("Mid Film", "12", "２０２１", ""),
	})

	report, err := newTestImporter(st, 500).ImportMovies(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 3, report.Skipped)
	assert.Zero(t, report.Errors)
	assert.Equal(t, "utf-8", report.Encoding)

	movies, err := st.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 3)

	assert.Equal(t, "Sample Film", movies[0].Title, "revenue descending")
	assert.Equal(t, "7", movies[0].ExternalID)
	assert.InDelta(t, 46.2, *movies[0].Revenue, 1e-9)
	assert.Equal(t, 2020, *movies[0].Year)

	assert.Equal(t, "Mid Film", movies[1].Title)
	assert.Equal(t, 2021, *movies[1].Year)
	assert.Empty(t, movies[1].ExternalID, "missing id is not invented")

	assert.Equal(t, "Small Film", movies[2].Title)
}

func TestImportMovies_FullReplace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	imp := newTestImporter(st, 2)

	path := writeCSV(t, "movies.csv", [][]string{
		movieHeader,
		movieRow("A", "3", "", "1"),
		movieRow("B", "2", "", "2"),
		movieRow("C", "1", "", "3"),
	})

	first, err := imp.ImportMovies(ctx, path)
	require.NoError(t, err)
	second, err := imp.ImportMovies(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, first.Inserted, second.Inserted)
	assert.Equal(t, int64(3), second.Deleted)

	n, err := st.Count(ctx, store.TableMovies)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestImportMovies_ChunkIsolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	flaky := &flakyStore{Store: st, failOn: 2}

	path := writeCSV(t, "movies.csv", [][]string{
		movieHeader,
		movieRow("A", "5", "", "1"),
		movieRow("B", "4", "", "2"),
		movieRow("C", "3", "", "3"),
		movieRow("D", "2", "", "4"),
		movieRow("E", "1", "", "5"),
	})

	report, err := newTestImporter(flaky, 2).ImportMovies(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.Errors)

	movies, err := st.ListMovies(ctx)
	require.NoError(t, err)
	var titles []string
	for _, m := range movies {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"A", "B", "E"}, titles, "chunks before and after the failure are kept")
}

func TestImportMovies_ShiftJIS(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	text := "作品名,興収(億円),映画ID\n劇場版 鬼滅の刃 無限列車編,404.3,1\n"
	data, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	report, err := newTestImporter(st, 500).ImportMovies(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", report.Encoding)
	assert.Equal(t, 1, report.Inserted)

	m, err := st.FindMovieByExternalID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "劇場版 鬼滅の刃 無限列車編", m.Title)
}

func TestImportMovies_MissingFile(t *testing.T) {
	st := newTestStore(t)

	_, err := newTestImporter(st, 500).ImportMovies(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSourceMissing))
}

func TestImportMovies_MissingColumnKeepsCatalog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	imp := newTestImporter(st, 500)

	good := writeCSV(t, "movies.csv", [][]string{movieHeader, movieRow("A", "1", "", "1")})
	_, err := imp.ImportMovies(ctx, good)
	require.NoError(t, err)

	bad := writeCSV(t, "bad.csv", [][]string{{"作品名", "年"}, {"B", "2020"}})
	_, err = imp.ImportMovies(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "興収(億円)")

	n, err := st.Count(ctx, store.TableMovies)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "nothing is deleted when the file is rejected")
}

func TestImportMovies_Empty(t *testing.T) {
	st := newTestStore(t)
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := newTestImporter(st, 500).ImportMovies(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestImportMovies_XLSX(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	path := writeXLSX(t, [][]string{movieHeader, movieRow("Sample Film", "46.2", "2020", "7")})

	report, err := newTestImporter(st, 500).ImportMovies(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", report.Encoding)
	assert.Equal(t, 1, report.Inserted)
}
