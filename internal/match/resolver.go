package match

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Tier identifies which step of the cascade produced a match. Lower tiers
// carry higher confidence.
type Tier int

const (
	TierNone Tier = iota
	TierExternalID
	TierExact
	TierPrefix
	TierSuffix
	TierSubstring
	TierContainment
	TierKeyword
)

// String returns the tier name used in logs and reports.
func (t Tier) String() string {
	switch t {
	case TierExternalID:
		return "external_id"
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierSuffix:
		return "suffix"
	case TierSubstring:
		return "substring"
	case TierContainment:
		return "containment"
	case TierKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// Score is the match score recorded for rows joined at this tier when the
// source carries none of its own.
func (t Tier) Score() int {
	switch t {
	case TierExternalID, TierExact:
		return 100
	case TierPrefix, TierSuffix:
		return 80
	case TierSubstring:
		return 70
	case TierContainment:
		return 60
	case TierKeyword:
		return 50
	default:
		return 0
	}
}

// DefaultSampleLimit caps the bidirectional containment scan.
const DefaultSampleLimit = 500

// minKeywordRunes is the exclusive lower bound on keyword length.
const minKeywordRunes = 2

// decorations are stripped from a title before keyword splitting.
var decorations = strings.NewReplacer(
	"劇場版", " ",
	"「", " ",
	"」", " ",
	"『", " ",
	"』", " ",
)

// Match is the outcome of a resolution.
type Match struct {
	Movie *model.Movie
	Tier  Tier
}

// Found reports whether a catalog entry was resolved.
func (m Match) Found() bool { return m.Movie != nil }

// Resolver runs the ordered matching cascade against a Catalog.
type Resolver struct {
	catalog     *Catalog
	sampleLimit int
	source      string
	counts      map[Tier]int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSampleLimit sets how many catalog entries the bidirectional
// containment step may scan. Values <= 0 keep the default.
func WithSampleLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.sampleLimit = n
		}
	}
}

// WithSource labels fallback-match log lines with the external source name.
func WithSource(source string) Option {
	return func(r *Resolver) { r.source = source }
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog *Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:     catalog,
		sampleLimit: DefaultSampleLimit,
		counts:      make(map[Tier]int),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Catalog returns the catalog the resolver matches against.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Resolve finds the catalog entry for an external title and optional
// external id. Steps run strictly in order and the first hit wins:
//
//  1. external id present in the catalog
//  2. exact title
//  3. catalog title starts with title
//  4. catalog title ends with title
//  5. catalog title contains title
//  6. either title contains the other, over the first sampleLimit entries
//  7. keyword split: decorations removed, tokens longer than two runes
//     matched as substrings
func (r *Resolver) Resolve(title, externalID string) Match {
	m := r.resolve(strings.TrimSpace(title), strings.TrimSpace(externalID))
	r.counts[m.Tier]++
	if m.Tier >= TierPrefix {
		zap.L().Info("match: fallback match",
			zap.String("source", r.source),
			zap.String("tier", m.Tier.String()),
			zap.String("from", title),
			zap.String("to", m.Movie.Title),
		)
	}
	return m
}

func (r *Resolver) resolve(title, externalID string) Match {
	c := r.catalog
	if c == nil {
		return Match{}
	}

	if externalID != "" {
		if m, ok := c.ByExternalID(externalID); ok {
			return Match{Movie: m, Tier: TierExternalID}
		}
	}

	if title == "" {
		return Match{}
	}

	if m, ok := c.ByTitle(title); ok {
		return Match{Movie: m, Tier: TierExact}
	}

	if m := c.firstWhere(0, func(t string) bool { return strings.HasPrefix(t, title) }); m != nil {
		return Match{Movie: m, Tier: TierPrefix}
	}
	if m := c.firstWhere(0, func(t string) bool { return strings.HasSuffix(t, title) }); m != nil {
		return Match{Movie: m, Tier: TierSuffix}
	}
	if m := c.firstWhere(0, func(t string) bool { return strings.Contains(t, title) }); m != nil {
		return Match{Movie: m, Tier: TierSubstring}
	}
	if m := c.firstWhere(r.sampleLimit, func(t string) bool {
		return strings.Contains(t, title) || strings.Contains(title, t)
	}); m != nil {
		return Match{Movie: m, Tier: TierContainment}
	}

	for _, word := range Keywords(title) {
		if m := c.firstWhere(0, func(t string) bool { return strings.Contains(t, word) }); m != nil {
			return Match{Movie: m, Tier: TierKeyword}
		}
	}

	return Match{}
}

// Keywords strips decorative tokens from title and returns the whitespace
// separated words longer than two runes, in order.
func Keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(decorations.Replace(title)) {
		if utf8.RuneCountInString(w) > minKeywordRunes {
			out = append(out, w)
		}
	}
	return out
}

// Counts returns how many resolutions ended in each tier so far.
func (r *Resolver) Counts() map[Tier]int {
	out := make(map[Tier]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}
