package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/match"
	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Paths names the three source files of a pipeline run.
type Paths struct {
	Movies    string
	BoxOffice string
	Trends    string
}

// Result holds the per-source reports of a pipeline run.
type Result struct {
	Movies    *model.Report `json:"movies"`
	BoxOffice *model.Report `json:"boxoffice"`
	Trends    *model.Report `json:"trends"`
}

// Reports returns the non-nil reports in run order.
func (r *Result) Reports() []*model.Report {
	var out []*model.Report
	for _, rep := range []*model.Report{r.Movies, r.BoxOffice, r.Trends} {
		if rep != nil {
			out = append(out, rep)
		}
	}
	return out
}

// Run imports movies, box office and trends in that order. Both required
// files are checked before anything is written. The catalog is read back
// once after the movie import and shared by the later stages.
func (imp *Importer) Run(ctx context.Context, paths Paths) (*Result, error) {
	if err := checkSource(model.SourceMovies, paths.Movies); err != nil {
		return nil, err
	}
	if err := checkSource(model.SourceBoxOffice, paths.BoxOffice); err != nil {
		return nil, err
	}

	res := &Result{}
	var err error

	res.Movies, err = imp.Record(ctx, model.SourceMovies, func(ctx context.Context) (*model.Report, error) {
		return imp.ImportMovies(ctx, paths.Movies)
	})
	if err != nil {
		return res, err
	}

	catalog, err := LoadCatalog(ctx, imp.store)
	if err != nil {
		return res, err
	}

	res.BoxOffice, err = imp.Record(ctx, model.SourceBoxOffice, func(ctx context.Context) (*model.Report, error) {
		return imp.ImportBoxOffice(ctx, paths.BoxOffice, catalog)
	})
	if err != nil {
		return res, err
	}

	res.Trends, err = imp.Record(ctx, model.SourceTrends, func(ctx context.Context) (*model.Report, error) {
		return imp.ImportTrends(ctx, paths.Trends, catalog)
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

// ImportBoxOfficeFromStore loads the catalog and imports box office.
func (imp *Importer) ImportBoxOfficeFromStore(ctx context.Context, path string) (*model.Report, error) {
	return imp.withCatalog(ctx, func(c *match.Catalog) (*model.Report, error) {
		return imp.ImportBoxOffice(ctx, path, c)
	})
}

// ImportTrendsFromStore loads the catalog and imports trends.
func (imp *Importer) ImportTrendsFromStore(ctx context.Context, path string) (*model.Report, error) {
	return imp.withCatalog(ctx, func(c *match.Catalog) (*model.Report, error) {
		return imp.ImportTrends(ctx, path, c)
	})
}

func (imp *Importer) withCatalog(ctx context.Context, fn func(*match.Catalog) (*model.Report, error)) (*model.Report, error) {
	catalog, err := LoadCatalog(ctx, imp.store)
	if err != nil {
		return nil, err
	}
	return fn(catalog)
}

// Record runs fn as one entry of the ingest run log: a running entry is
// written first and completed or failed with fn's report afterwards.
func (imp *Importer) Record(ctx context.Context, source model.Source, fn func(context.Context) (*model.Report, error)) (*model.Report, error) {
	log := logger(source)

	run, err := imp.store.CreateRun(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: start %s run", source)
	}

	report, runErr := fn(ctx)
	if runErr != nil {
		if err := imp.store.FailRun(ctx, run.ID, report, runErr.Error()); err != nil {
			log.Warn("ingest: record failed run", zap.String("run_id", run.ID), zap.Error(err))
		}
		return report, runErr
	}

	if err := imp.store.CompleteRun(ctx, run.ID, report); err != nil {
		log.Warn("ingest: record completed run", zap.String("run_id", run.ID), zap.Error(err))
	}
	return report, nil
}
