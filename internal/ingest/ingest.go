// Package ingest loads the movie master, weekly box office and SNS trend
// sources into the store. Every source is fully replaced on import and
// written in independently committed chunks.
//
// A run assumes exclusive ownership of the entity tables: imports delete and
// rewrite whole tables without locking, so concurrent runs against the same
// database must be avoided by the operator.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/fetcher"
	"github.com/sells-group/boxoffice-cli/internal/match"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/store"
)

// ErrSourceMissing is returned when an input file does not exist.
var ErrSourceMissing = eris.New("ingest: source file not found")

// Defaults applied by New for zero option values.
const (
	DefaultChunkSize      = 500
	DefaultFallbackDays   = 14
	DefaultFallbackMovies = 30
)

// Options configures the importers.
type Options struct {
	ChunkSize      int      // rows per committed chunk
	Encodings      []string // CSV decode order
	SampleLimit    int      // matcher containment scan cap
	FallbackDays   int      // synthetic trend history length
	FallbackMovies int      // synthetic trend movie count
	Now            func() time.Time
}

// Outcome is the state a source row reaches before commit.
type Outcome int

const (
	OutcomeStaged Outcome = iota
	OutcomeSkipped
)

// Importer runs source imports against a store.
type Importer struct {
	store store.Store
	opts  Options
}

// New creates an Importer, filling unset options with defaults.
func New(st store.Store, opts Options) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if len(opts.Encodings) == 0 {
		opts.Encodings = fetcher.DefaultEncodings
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = match.DefaultSampleLimit
	}
	if opts.FallbackDays <= 0 {
		opts.FallbackDays = DefaultFallbackDays
	}
	if opts.FallbackMovies <= 0 {
		opts.FallbackMovies = DefaultFallbackMovies
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{store: st, opts: opts}
}

// LoadCatalog reads the persisted catalog in insertion order.
func LoadCatalog(ctx context.Context, st store.Store) (*match.Catalog, error) {
	movies, err := st.ListMovies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load catalog")
	}
	return match.NewCatalog(movies), nil
}

func (imp *Importer) resolver(catalog *match.Catalog, source model.Source) *match.Resolver {
	return match.NewResolver(catalog,
		match.WithSampleLimit(imp.opts.SampleLimit),
		match.WithSource(string(source)),
	)
}

// checkSource returns ErrSourceMissing when path does not exist.
func checkSource(source model.Source, path string) error {
	if path == "" {
		return eris.Wrapf(ErrSourceMissing, "ingest: no %s file configured", source)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(ErrSourceMissing, "ingest: %s file %s", source, path)
		}
		return eris.Wrapf(err, "ingest: stat %s", path)
	}
	return nil
}

func logger(source model.Source) *zap.Logger {
	return zap.L().With(zap.String("component", "ingest"), zap.String("source", string(source)))
}

func reportFields(r *model.Report) []zap.Field {
	return []zap.Field{
		zap.Int("inserted", r.Inserted),
		zap.Int("skipped", r.Skipped),
		zap.Int("errors", r.Errors),
		zap.Int64("deleted", r.Deleted),
		zap.String("encoding", r.Encoding),
		zap.Int("unmatched_columns", r.UnmatchedColumns),
		zap.Bool("fallback", r.Fallback),
	}
}
