package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/boxoffice-cli/internal/fetcher"
	"github.com/sells-group/boxoffice-cli/internal/model"
)

// batch stages records and commits them size at a time. Each commit is an
// independent transaction: a failed chunk is dropped, counted once in
// Report.Errors, and never retried.
type batch[T any] struct {
	size     int
	pending  []T
	insert   func(context.Context, []T) (int, error)
	report   *model.Report
	log      *zap.Logger
	chunks   int
	staged   int
	progress rate.Sometimes
}

func newBatch[T any](size int, insert func(context.Context, []T) (int, error), report *model.Report, log *zap.Logger) *batch[T] {
	return &batch[T]{
		size:     size,
		pending:  make([]T, 0, size),
		insert:   insert,
		report:   report,
		log:      log,
		progress: rate.Sometimes{Interval: 5 * time.Second},
	}
}

func (b *batch[T]) stage(ctx context.Context, rec T) {
	b.pending = append(b.pending, rec)
	b.staged++
	if len(b.pending) >= b.size {
		b.flush(ctx)
	}
}

// flush commits whatever is pending as one chunk.
func (b *batch[T]) flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}
	b.chunks++

	n, err := b.insert(ctx, b.pending)
	if err != nil {
		b.report.Errors++
		b.log.Error("ingest: chunk commit failed",
			zap.Int("chunk", b.chunks),
			zap.Int("rows", len(b.pending)),
			zap.Error(err),
		)
	} else {
		b.report.Inserted += n
	}
	b.pending = make([]T, 0, b.size)

	b.progress.Do(func() {
		b.log.Info("ingest: progress",
			zap.Int("chunks", b.chunks),
			zap.Int("inserted", b.report.Inserted),
			zap.Int("errors", b.report.Errors),
		)
	})
}

// source is an opened input file whose rows are produced on the reader
// goroutine and consumed by each.
type source struct {
	table  *fetcher.Table
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// open validates and decodes path. Any failure here happens before the
// caller has touched the store.
func (imp *Importer) open(ctx context.Context, kind model.Source, path string) (*source, error) {
	if err := checkSource(kind, path); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	tbl, err := fetcher.OpenTable(gctx, path, imp.opts.Encodings)
	if err != nil {
		cancel()
		return nil, eris.Wrapf(err, "ingest: open %s source", kind)
	}

	g.Go(func() error {
		for err := range tbl.Errs {
			if err != nil {
				return err
			}
		}
		return nil
	})

	return &source{table: tbl, g: g, ctx: gctx, cancel: cancel}, nil
}

// each feeds every row, header rows included, to fn in file order and
// returns the first reader or handler error.
func (s *source) each(fn func(idx int, row []string) error) error {
	defer s.cancel()

	s.g.Go(func() error {
		idx := 0
		for row := range s.table.Rows {
			if err := fn(idx, row); err != nil {
				return err
			}
			idx++
		}
		return nil
	})
	return s.g.Wait()
}

// close abandons a source that will not be consumed.
func (s *source) close() {
	s.cancel()
	_ = s.table.Drain()
	_ = s.g.Wait()
}

// columns maps trimmed header names to their index.
type columns map[string]int

func newColumns(header []string) columns {
	c := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := c[name]; !dup && name != "" {
			c[name] = i
		}
	}
	return c
}

// get returns the cell under name, or "" if the column or cell is absent.
func (c columns) get(row []string, name string) string {
	if idx, ok := c[name]; ok && idx < len(row) {
		return row[idx]
	}
	return ""
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c columns) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !c.has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("ingest: missing required columns %s", strings.Join(missing, ", "))
	}
	return nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
