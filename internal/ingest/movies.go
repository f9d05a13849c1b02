package ingest

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/normalize"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

// Movie master columns.
const (
	colMovieTitle    = "作品名"
	colMovieRevenue  = "興収(億円)"
	colMovieYear     = "年"
	colReleaseDate   = "公開日"
	colCategory      = "区分"
	colDistributor   = "配給会社"
	colDescription   = "あらすじ"
	colDirector      = "監督"
	colAuthor        = "脚本"
	colActor         = "キャスト"
	colScriptwriter  = "脚本家"
	colProducer      = "プロデューサー"
	colCopyright     = "コピーライト"
	colGenre         = "ジャンル"
	colMovieExternal = "映画ID"
)

// ImportMovies replaces the catalog with the rows of the movie master file.
// Title and revenue are required. Rows are committed in descending revenue
// order so catalog insertion order favours higher-grossing titles.
func (imp *Importer) ImportMovies(ctx context.Context, path string) (*model.Report, error) {
	log := logger(model.SourceMovies)
	report := &model.Report{Source: model.SourceMovies}

	src, err := imp.open(ctx, model.SourceMovies, path)
	if err != nil {
		return nil, err
	}
	report.Encoding = src.table.Encoding

	var (
		cols   columns
		staged []model.Movie
	)
	err = src.each(func(idx int, row []string) error {
		if idx == 0 {
			cols = newColumns(row)
			return cols.require(colMovieTitle, colMovieRevenue)
		}
		if blankRow(row) {
			return nil
		}
		m, outcome := parseMovieRow(cols, row)
		if outcome == OutcomeSkipped {
			report.Skipped++
			log.Debug("ingest: skipped movie row", zap.Int("row", idx+1))
			return nil
		}
		staged = append(staged, m)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	if cols == nil {
		return nil, eris.Errorf("ingest: movies file %s is empty", path)
	}

	sortByRevenue(staged)

	report.Deleted, err = imp.store.DeleteAll(ctx, store.TableMovies)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: clear movies")
	}

	b := newBatch(imp.opts.ChunkSize, imp.store.InsertMovies, report, log)
	for _, m := range staged {
		b.stage(ctx, m)
	}
	b.flush(ctx)

	log.Info("ingest: movies imported", reportFields(report)...)
	return report, nil
}

func parseMovieRow(cols columns, row []string) (model.Movie, Outcome) {
	title := normalize.Clean(cols.get(row, colMovieTitle))
	if title == "" {
		return model.Movie{}, OutcomeSkipped
	}
	revenue, ok := normalize.ParseAmount(cols.get(row, colMovieRevenue))
	if !ok {
		return model.Movie{}, OutcomeSkipped
	}

	return model.Movie{
		ExternalID:   normalize.ExternalID(cols.get(row, colMovieExternal)),
		Title:        title,
		Revenue:      &revenue,
		Year:         normalize.OptionalInt(cols.get(row, colMovieYear)),
		ReleaseDate:  normalize.Clean(cols.get(row, colReleaseDate)),
		Category:     normalize.Clean(cols.get(row, colCategory)),
		Distributor:  normalize.Clean(cols.get(row, colDistributor)),
		Description:  normalize.Clean(cols.get(row, colDescription)),
		Director:     normalize.Clean(cols.get(row, colDirector)),
		Author:       normalize.Clean(cols.get(row, colAuthor)),
		Actor:        normalize.Clean(cols.get(row, colActor)),
		Scriptwriter: normalize.Clean(cols.get(row, colScriptwriter)),
		Producer:     normalize.Clean(cols.get(row, colProducer)),
		Copyright:    normalize.Clean(cols.get(row, colCopyright)),
		Genre:        normalize.Clean(cols.get(row, colGenre)),
	}, OutcomeStaged
}

// sortByRevenue orders movies by descending revenue, unknown revenue last.
// Ties keep file order.
func sortByRevenue(movies []model.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		ri, rj := movies[i].Revenue, movies[j].Revenue
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
}
