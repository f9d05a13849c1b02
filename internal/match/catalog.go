// Package match resolves free-text titles and external ids from the
// external sources against the movie catalog.
package match

import (
	"strings"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Catalog is an immutable in-memory index over the movie catalog. It is
// built once per run from the committed movies and passed explicitly to
// every consumer. Order is the order movies were supplied in.
type Catalog struct {
	movies  []model.Movie
	byID    map[string]int
	byTitle map[string]int
}

// NewCatalog indexes movies. When external ids or titles collide the first
// occurrence wins.
func NewCatalog(movies []model.Movie) *Catalog {
	c := &Catalog{
		movies:  make([]model.Movie, len(movies)),
		byID:    make(map[string]int, len(movies)),
		byTitle: make(map[string]int, len(movies)),
	}
	copy(c.movies, movies)

	for i, m := range c.movies {
		if id := strings.TrimSpace(m.ExternalID); id != "" {
			if _, ok := c.byID[id]; !ok {
				c.byID[id] = i
			}
		}
		if title := strings.TrimSpace(m.Title); title != "" {
			if _, ok := c.byTitle[title]; !ok {
				c.byTitle[title] = i
			}
		}
	}
	return c
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.movies) }

// Movies returns the catalog entries in catalog order. The slice must not be modified.
func (c *Catalog) Movies() []model.Movie { return c.movies }

// ByExternalID returns the entry with the given external id.
func (c *Catalog) ByExternalID(id string) (*model.Movie, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, false
	}
	return &c.movies[i], true
}

// ByTitle returns the entry whose title equals title exactly.
func (c *Catalog) ByTitle(title string) (*model.Movie, bool) {
	i, ok := c.byTitle[strings.TrimSpace(title)]
	if !ok {
		return nil, false
	}
	return &c.movies[i], true
}

// HasExternalID reports whether id is present in the catalog.
func (c *Catalog) HasExternalID(id string) bool {
	_, ok := c.byID[strings.TrimSpace(id)]
	return ok
}

// firstWhere scans at most limit entries (limit <= 0 means all) and returns
// the first entry satisfying pred.
func (c *Catalog) firstWhere(limit int, pred func(title string) bool) *model.Movie {
	n := len(c.movies)
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		if c.movies[i].Title == "" {
			continue
		}
		if pred(c.movies[i].Title) {
			return &c.movies[i]
		}
	}
	return nil
}
