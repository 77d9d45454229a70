package pattern

import (
	"sort"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
)

// FindLocationAtTime returns the fix closest in time to t and its distance in
// time. It reports false when there is no fix within tolerance.
func FindLocationAtTime(fixes []models.LocationFix, t time.Time, tolerance time.Duration) (models.LocationFix, time.Duration, bool) {
	sorted := models.SortFixes(fixes)
	if len(sorted) == 0 {
		return models.LocationFix{}, 0, false
	}

	i := sort.Search(len(sorted), func(i int) bool {
		return !sorted[i].Timestamp.Before(t)
	})

	best := -1
	var bestDelta time.Duration
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(sorted) {
			continue
		}
		delta := sorted[j].Timestamp.Sub(t).Abs()
		if best < 0 || delta < bestDelta {
			best, bestDelta = j, delta
		}
	}
	if bestDelta > tolerance {
		return models.LocationFix{}, bestDelta, false
	}
	return sorted[best], bestDelta, true
}
