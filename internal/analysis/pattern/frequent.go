package pattern

import (
	"sort"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// FrequentLocation is a cluster of fixes that was returned to repeatedly
type FrequentLocation struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Geohash    string    `json:"geohash"`
	FixCount   int       `json:"fix_count"`
	VisitCount int       `json:"visit_count"`
	Hours      float64   `json:"hours"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`

	// Name is the known location at the center, filled in by callers that hold a registry
	Name string `json:"name,omitempty"`
}

type cluster struct {
	center   spatial.Point
	fixes    int
	visits   int
	dwell    time.Duration
	first    time.Time
	last     time.Time
	runStart time.Time
}

// IdentifyFrequentLocations clusters fixes in a single greedy pass: each fix
// joins the nearest cluster whose center is within radiusM, moving that
// center to the running mean, or starts a new cluster. A visit is a maximal
// run of consecutive fixes in the same cluster. Clusters with fewer than
// minVisits visits are dropped; the rest are ordered by visits, then fixes.
//
// The result depends on fix order and is not a globally optimal clustering.
func IdentifyFrequentLocations(fixes []models.LocationFix, minVisits int, radiusM float64) []FrequentLocation {
	var clusters []*cluster
	var current *cluster

	endRun := func(c *cluster) {
		if c != nil {
			c.dwell += c.last.Sub(c.runStart)
		}
	}

	for _, f := range models.SortFixes(fixes) {
		p := f.Point()
		var best *cluster
		bestD := radiusM
		for _, c := range clusters {
			if d := spatial.Distance(c.center, p); d <= bestD {
				best, bestD = c, d
			}
		}
		if best == nil {
			best = &cluster{center: p, first: f.Timestamp}
			clusters = append(clusters, best)
		} else {
			best.center = spatial.RunningMean(best.center, best.fixes, p)
		}

		if best != current {
			endRun(current)
			best.visits++
			best.runStart = f.Timestamp
			current = best
		}
		best.fixes++
		best.last = f.Timestamp
	}
	endRun(current)

	out := make([]FrequentLocation, 0, len(clusters))
	for _, c := range clusters {
		if c.visits < minVisits {
			continue
		}
		out = append(out, FrequentLocation{
			Lat:        c.center.Lat,
			Lon:        c.center.Lon,
			Geohash:    spatial.EncodeGeohash(c.center.Lat, c.center.Lon, spatial.GeohashPrecisionCluster),
			FixCount:   c.fixes,
			VisitCount: c.visits,
			Hours:      models.DurationHours(c.dwell),
			FirstSeen:  c.first,
			LastSeen:   c.last,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VisitCount != out[j].VisitCount {
			return out[i].VisitCount > out[j].VisitCount
		}
		return out[i].FixCount > out[j].FixCount
	})
	return out
}
