package boxoffice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestRankings(t *testing.T) {
	catalog := []model.Movie{
		{ID: 1, Title: "鬼滅", Revenue: ptr(404.3), Year: ptr(2020), Category: "邦画", Genre: "アニメ"},
		{ID: 2, Title: "Titanic", Revenue: ptr(277.7), Year: ptr(1997), Category: "洋画", Genre: "ドラマ"},
		{ID: 3, Title: "千と千尋", Revenue: ptr(316.8), Year: ptr(2001), Category: "邦画", Genre: "アニメ/ファンタジー"},
		{ID: 4, Title: "Unknown", Year: ptr(2020), Category: "邦画"},
		{ID: 5, Title: "Tenet", Revenue: ptr(27.3), Year: ptr(2020), Category: "洋画", Genre: "SF"},
	}

	assert.Equal(t, Ranks{All: 1, Year: 1, Category: 1, Anime: 1}, Rankings(catalog[0], catalog))
	assert.Equal(t, Ranks{All: 3, Year: 1, Category: 1}, Rankings(catalog[1], catalog))
	assert.Equal(t, Ranks{All: 2, Year: 1, Category: 2, Anime: 2}, Rankings(catalog[2], catalog))
	assert.Equal(t, Ranks{}, Rankings(catalog[3], catalog), "no revenue, no ranks")
	assert.Equal(t, Ranks{All: 4, Year: 2, Category: 2}, Rankings(catalog[4], catalog))
}

func TestRankings_TiesKeepCatalogOrder(t *testing.T) {
	catalog := []model.Movie{
		{ID: 1, Title: "first", Revenue: ptr(10.0)},
		{ID: 2, Title: "second", Revenue: ptr(10.0)},
	}
	assert.Equal(t, 1, Rankings(catalog[0], catalog).All)
	assert.Equal(t, 2, Rankings(catalog[1], catalog).All)
}

func TestRankings_NotInCatalog(t *testing.T) {
	m := model.Movie{ID: 9, Title: "ghost", Revenue: ptr(1.0)}
	assert.Equal(t, Ranks{}, Rankings(m, nil))
}
