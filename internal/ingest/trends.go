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

// Layout of the wide trend table.
const (
	trendKeywordRow  = 0
	trendTitleRow    = 1
	trendIDRow       = 2
	trendHeaderRows  = 3
	trendFirstColumn = 2 // columns 0 and 1 hold the date and a label
	trendMinRows     = trendHeaderRows + 1
)

// trendColumn is a data column bound to a catalog movie.
type trendColumn struct {
	index int
	title string // resolved catalog title
}

// ImportTrends replaces the trend observations with the wide table at path.
// When the file is absent, too short, or stages no observations, synthetic
// observations are generated from catalog revenue ranks instead and the
// report is flagged with Fallback.
func (imp *Importer) ImportTrends(ctx context.Context, path string, catalog *match.Catalog) (*model.Report, error) {
	log := logger(model.SourceTrends)
	report := &model.Report{Source: model.SourceTrends}

	src, err := imp.open(ctx, model.SourceTrends, path)
	switch {
	case eris.Is(err, ErrSourceMissing):
		log.Warn("ingest: trend file not found", zap.String("path", path))
		src = nil
	case err != nil:
		return nil, err
	default:
		report.Encoding = src.table.Encoding
	}

	report.Deleted, err = imp.store.DeleteAll(ctx, store.TableTrends)
	if err != nil {
		if src != nil {
			src.close()
		}
		return nil, eris.Wrap(err, "ingest: clear trends")
	}

	staged := 0
	if src != nil {
		var rows int
		rows, staged, err = imp.readTrends(ctx, src, catalog, report, log)
		if err != nil {
			return report, eris.Wrapf(err, "ingest: read %s", path)
		}
		if rows < trendMinRows {
			log.Warn("ingest: trend file too short", zap.Int("rows", rows), zap.Int("min_rows", trendMinRows))
		}
	}

	// Commit failures are reported, not papered over with synthetic data.
	if staged == 0 {
		imp.fallback(ctx, catalog, report, log)
	}

	log.Info("ingest: trends imported", reportFields(report)...)
	return report, nil
}

// readTrends binds the header columns and stages one observation per
// positive cell. It returns the number of rows read and observations staged.
func (imp *Importer) readTrends(ctx context.Context, src *source, catalog *match.Catalog, report *model.Report, log *zap.Logger) (int, int, error) {
	var (
		resolver = imp.resolver(catalog, model.SourceTrends)
		headers  [trendHeaderRows][]string
		bound    []trendColumn
		rows     int
		b        = newBatch(imp.opts.ChunkSize, imp.store.InsertTrends, report, log)
	)

	err := src.each(func(idx int, row []string) error {
		rows++
		if idx < trendHeaderRows {
			headers[idx] = row
			return nil
		}
		if idx == trendHeaderRows {
			bound = bindTrendColumns(headers, resolver, report)
			log.Info("ingest: trend columns bound",
				zap.Int("matched", len(bound)),
				zap.Int("unmatched", report.UnmatchedColumns),
			)
		}
		if len(bound) == 0 {
			return nil
		}

		if blankRow(row) {
			return nil
		}
		date, ok := normalize.Date(row[0])
		if !ok {
			report.Skipped++
			return nil
		}
		for _, col := range bound {
			if col.index >= len(row) {
				continue
			}
			count, ok := normalize.PostCount(row[col.index])
			if !ok {
				continue
			}
			b.stage(src.ctx, model.TrendObservation{Date: date, MovieTitle: col.title, PostCount: count})
		}
		return nil
	})
	if err != nil {
		return rows, b.staged, err
	}
	b.flush(ctx)
	return rows, b.staged, nil
}

// bindTrendColumns resolves each data column from its title and id header
// cells. Blank columns are ignored; columns that resolve to nothing are
// counted in UnmatchedColumns.
func bindTrendColumns(headers [trendHeaderRows][]string, resolver *match.Resolver, report *model.Report) []trendColumn {
	titles, ids := headers[trendTitleRow], headers[trendIDRow]
	width := max(len(titles), len(ids))

	var bound []trendColumn
	for i := trendFirstColumn; i < width; i++ {
		title := normalize.Clean(cell(titles, i))
		id := normalize.ExternalID(cell(ids, i))
		if title == "" && id == "" {
			continue
		}
		m := resolver.Resolve(title, id)
		if !m.Found() {
			report.UnmatchedColumns++
			zap.L().Debug("ingest: trend column unmatched",
				zap.Int("column", i),
				zap.String("title", title),
				zap.String("keyword", normalize.Clean(cell(headers[trendKeywordRow], i))),
			)
			continue
		}
		bound = append(bound, trendColumn{index: i, title: m.Movie.Title})
	}
	return bound
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// fallback writes synthetic observations for the top catalog movies.
func (imp *Importer) fallback(ctx context.Context, catalog *match.Catalog, report *model.Report, log *zap.Logger) {
	report.Fallback = true
	obs := GenerateFallback(catalog.Movies(), imp.opts.Now(), imp.opts.FallbackDays, imp.opts.FallbackMovies)
	log.Warn("ingest: no trend observations ingested; writing SYNTHETIC trend data",
		zap.Int("observations", len(obs)),
		zap.Int("days", imp.opts.FallbackDays),
		zap.Int("movies", imp.opts.FallbackMovies),
	)

	b := newBatch(imp.opts.ChunkSize, imp.store.InsertTrends, report, log)
	for _, o := range obs {
		b.stage(ctx, o)
	}
	b.flush(ctx)
}
