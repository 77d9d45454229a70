// Package behavior holds the activity analyzers. Each file registers one
// analyzer with the analysis registry from its init function.
package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// Run order; lower runs first
const (
	priorityFlight       = 10
	priorityGolf         = 20
	priorityParkrun      = 30
	priorityCommute      = 40
	priorityDogWalk      = 50
	prioritySnowboarding = 60
	priorityVisit        = 100
)

// detection is a scored candidate
type detection struct {
	analysis.Candidate
	Stats   analysis.Stats
	Score   float64
	Factors []models.FactorScore
}

// detect segments fixes under p, scores every candidate with r and keeps
// those scoring at least minScore
func detect(fixes []models.LocationFix, p analysis.Profile, r analysis.Rubric, minScore float64) []detection {
	var out []detection
	for _, c := range analysis.Segment(fixes, p) {
		s := analysis.ComputeStats(c, p)
		score, factors := r.Evaluate(s)
		if score < minScore {
			continue
		}
		out = append(out, detection{Candidate: c, Stats: s, Score: score, Factors: factors})
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func weekday(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

// movingRegime returns the most common regime among moving fixes
func movingRegime(fixes []models.LocationFix) spatial.Regime {
	counts := make(map[spatial.Regime]int)
	best, mode := 0, spatial.RegimeStationary
	for _, f := range fixes {
		r := spatial.ClassifyVelocity(f.VelocityMPS)
		if r == spatial.RegimeStationary {
			continue
		}
		counts[r]++
		if counts[r] > best || (counts[r] == best && r > mode) {
			best, mode = counts[r], r
		}
	}
	return mode
}

// nearest returns the closest location to f within maxM, or nil
func nearest(locs []models.KnownLocation, f *models.LocationFix, maxM float64) *models.KnownLocation {
	if f == nil {
		return nil
	}
	var best *models.KnownLocation
	bestD := maxM
	for i := range locs {
		if d := locs[i].DistanceTo(*f); d <= bestD {
			best, bestD = &locs[i], d
		}
	}
	return best
}
