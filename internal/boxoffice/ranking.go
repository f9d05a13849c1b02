package boxoffice

import (
	"sort"
	"strings"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

const animeGenre = "アニメ"

// Ranks holds a movie's revenue rank in each peer group. Zero means the
// movie is not ranked in that group.
type Ranks struct {
	All      int `json:"all,omitempty"`
	Year     int `json:"year,omitempty"`
	Category int `json:"category,omitempty"`
	Anime    int `json:"anime,omitempty"`
}

// Rankings ranks movie by revenue against catalog: overall, within its
// release year, within its category and, for anime titles, among anime.
// Movies without revenue are never ranked. Ties keep catalog order.
func Rankings(movie model.Movie, catalog []model.Movie) Ranks {
	var r Ranks
	if movie.Revenue == nil {
		return r
	}

	ranked := make([]model.Movie, 0, len(catalog))
	for _, m := range catalog {
		if m.Revenue != nil {
			ranked = append(ranked, m)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Revenue > *ranked[j].Revenue
	})

	r.All = rankWhere(ranked, movie, func(model.Movie) bool { return true })
	if movie.Year != nil {
		year := *movie.Year
		r.Year = rankWhere(ranked, movie, func(m model.Movie) bool { return m.Year != nil && *m.Year == year })
	}
	if movie.Category != "" {
		r.Category = rankWhere(ranked, movie, func(m model.Movie) bool { return m.Category == movie.Category })
	}
	if strings.Contains(movie.Genre, animeGenre) {
		r.Anime = rankWhere(ranked, movie, func(m model.Movie) bool { return strings.Contains(m.Genre, animeGenre) })
	}
	return r
}

// rankWhere returns the 1-based position of target among the entries of
// ranked that satisfy keep, or 0.
func rankWhere(ranked []model.Movie, target model.Movie, keep func(model.Movie) bool) int {
	pos := 0
	for _, m := range ranked {
		if !keep(m) {
			continue
		}
		pos++
		if sameMovie(m, target) {
			return pos
		}
	}
	return 0
}

func sameMovie(a, b model.Movie) bool {
	if a.ID != 0 || b.ID != 0 {
		return a.ID == b.ID
	}
	return a.Title == b.Title && a.ExternalID == b.ExternalID
}
