package ingest

import (
	"encoding/binary"
	"hash/fnv"
	"time"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Bounds of the synthetic daily post count base.
const (
	fallbackBaseMin     = 50
	fallbackBaseMax     = 8000
	fallbackBaseUnknown = 100
)

// GenerateFallback manufactures daily post counts for the top movies by
// revenue, one observation per movie per day for days days ending at now.
// The base count is revenue×10 clamped to [50, 8000] (100 when revenue is
// unknown), varied between 70% and 130% by a hash of (rank, day), and
// raised by 20% on weekends. Output depends only on the arguments.
func GenerateFallback(movies []model.Movie, now time.Time, days, top int) []model.TrendObservation {
	ranked := make([]model.Movie, len(movies))
	copy(ranked, movies)
	sortByRevenue(ranked)
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	out := make([]model.TrendObservation, 0, len(ranked)*days)
	for day := 0; day < days; day++ {
		date := now.AddDate(0, 0, -day)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		for rank, m := range ranked {
			count := fallbackBase(m) * variation(rank, day) / 100
			if weekend {
				count = count * 12 / 10
			}
			out = append(out, model.TrendObservation{
				Date:       date.Format(model.TrendDateLayout),
				MovieTitle: m.Title,
				PostCount:  count,
			})
		}
	}
	return out
}

func fallbackBase(m model.Movie) int {
	if m.Revenue == nil {
		return fallbackBaseUnknown
	}
	return min(max(int(*m.Revenue*10), fallbackBaseMin), fallbackBaseMax)
}

// variation returns a percentage in [70, 130] derived from rank and day.
func variation(rank, day int) int {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(rank))
	binary.LittleEndian.PutUint64(buf[8:], uint64(day))
	h := fnv.New32a()
	_, _ = h.Write(buf[:])
	return 70 + int(h.Sum32()%61)
}
