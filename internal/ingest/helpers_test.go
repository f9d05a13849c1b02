package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

// fixedNow is a Sunday.
var fixedNow = time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestImporter(st store.Store, chunk int) *Importer {
	return New(st, Options{ChunkSize: chunk, Now: func() time.Time { return fixedNow }})
}

func writeCSV(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return path
}

var movieHeader = []string{
	"作品名", "興収(億円)", "年", "公開日", "区分", "配給会社", "あらすじ", "監督", "脚本",
	"キャスト", "脚本家", "プロデューサー", "コピーライト", "ジャンル", "映画ID",
}

func movieRow(title, revenue, year, id string) []string {
	row := make([]string, len(movieHeader))
	row[0], row[1], row[2], row[14] = title, revenue, year, id
	return row
}

var boxOfficeHeader = []string{"映画ID", "年", "作品名", "公開週", "週末興収", "累計興収", "週間興収", "マッチスコア"}

func weekRow(id, title, label, cumulative string) []string {
	return []string{id, "2020", title, label, "", cumulative, "", ""}
}

// flakyStore fails the failOn-th chunk insert of each entity.
type flakyStore struct {
	store.Store
	failOn int
	calls  int
}

var errForced = errors.New("forced chunk failure")

func (f *flakyStore) InsertMovies(ctx context.Context, movies []model.Movie) (int, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errForced
	}
	return f.Store.InsertMovies(ctx, movies)
}

func (f *flakyStore) InsertTrends(ctx context.Context, obs []model.TrendObservation) (int, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errForced
	}
	return f.Store.InsertTrends(ctx, obs)
}

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.Save(path))
	return path
}
