package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/match"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/normalize"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

// Box-office columns.
const (
	colBoxExternal   = "映画ID"
	colBoxYear       = "年"
	colBoxTitle      = "作品名"
	colWeekLabel     = "公開週"
	colWeekendRev    = "週末興収"
	colCumulativeRev = "累計興収"
	colWeeklyRev     = "週間興収"
	colMatchScore    = "マッチスコア"
)

type weekKey struct {
	movie   string
	ordinal int
}

// ImportBoxOffice replaces the box-office weeks with the rows of path. Each
// row is joined to catalog by external id first and title otherwise; the
// stored id is the catalog's. Rows that join nothing, or repeat a week
// ordinal already filled for the same movie, are skipped. The existing
// weeks are cleared only once the header is valid.
func (imp *Importer) ImportBoxOffice(ctx context.Context, path string, catalog *match.Catalog) (*model.Report, error) {
	log := logger(model.SourceBoxOffice)
	report := &model.Report{Source: model.SourceBoxOffice}

	src, err := imp.open(ctx, model.SourceBoxOffice, path)
	if err != nil {
		return nil, err
	}
	report.Encoding = src.table.Encoding

	var (
		cols     columns
		resolver = imp.resolver(catalog, model.SourceBoxOffice)
		seen     = make(map[weekKey]bool)
		b        = newBatch(imp.opts.ChunkSize, imp.store.InsertBoxOffice, report, log)
	)
	err = src.each(func(idx int, row []string) error {
		if idx == 0 {
			cols = newColumns(row)
			if err := cols.require(colWeekLabel); err != nil {
				return err
			}
			if !cols.has(colBoxTitle) && !cols.has(colBoxExternal) {
				return eris.Errorf("ingest: box office needs a %s or %s column", colBoxTitle, colBoxExternal)
			}
			n, err := imp.store.DeleteAll(src.ctx, store.TableBoxOffice)
			if err != nil {
				return eris.Wrap(err, "ingest: clear box office")
			}
			report.Deleted = n
			return nil
		}

		if blankRow(row) {
			return nil
		}
		w, outcome := parseWeekRow(cols, row, resolver, seen)
		if outcome == OutcomeSkipped {
			report.Skipped++
			log.Debug("ingest: skipped box office row", zap.Int("row", idx+1))
			return nil
		}
		b.stage(src.ctx, w)
		return nil
	})
	if err != nil {
		return report, eris.Wrapf(err, "ingest: read %s", path)
	}
	if cols == nil {
		return nil, eris.Errorf("ingest: box office file %s is empty", path)
	}
	b.flush(ctx)

	log.Info("ingest: box office imported", reportFields(report)...)
	return report, nil
}

func parseWeekRow(cols columns, row []string, resolver *match.Resolver, seen map[weekKey]bool) (model.BoxOfficeWeek, Outcome) {
	label := normalize.Clean(cols.get(row, colWeekLabel))
	title := normalize.Clean(cols.get(row, colBoxTitle))
	rowID := normalize.ExternalID(cols.get(row, colBoxExternal))
	if label == "" || (title == "" && rowID == "") {
		return model.BoxOfficeWeek{}, OutcomeSkipped
	}

	m := resolver.Resolve(title, rowID)
	if !m.Found() {
		return model.BoxOfficeWeek{}, OutcomeSkipped
	}
	movieID := m.Movie.ExternalID
	if movieID == "" {
		movieID = rowID
	}
	if movieID == "" {
		return model.BoxOfficeWeek{}, OutcomeSkipped
	}

	// Placeholder weeks (zero cumulative) do not claim their ordinal.
	cumulative := normalize.Clean(cols.get(row, colCumulativeRev))
	if ord := normalize.WeekOrdinal(label); ord != normalize.WeekSentinel {
		key := weekKey{movie: movieID, ordinal: ord}
		if seen[key] {
			return model.BoxOfficeWeek{}, OutcomeSkipped
		}
		if normalize.ParseMonetary(cumulative) != 0 {
			seen[key] = true
		}
	}

	if title == "" {
		title = m.Movie.Title
	}
	return model.BoxOfficeWeek{
		ExternalMovieID:   movieID,
		Year:              normalize.OptionalInt(cols.get(row, colBoxYear)),
		Title:             title,
		WeekLabel:         label,
		WeekendRevenue:    normalize.Clean(cols.get(row, colWeekendRev)),
		WeeklyRevenue:     normalize.Clean(cols.get(row, colWeeklyRev)),
		CumulativeRevenue: cumulative,
		MatchScore:        normalize.IntOr(cols.get(row, colMatchScore), m.Tier.Score()),
	}, OutcomeStaged
}
