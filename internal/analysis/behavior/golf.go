package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	golfVenueBufferM = 50
	golfMaxGap       = 15 * time.Minute
	golfMinDuration  = 20 * time.Minute
	golfMinScore     = 0.4
	golfMergeGap     = 45 * time.Minute
)

// GolfAnalyzer detects golf rounds at known golf venues
type GolfAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewGolfAnalyzer creates a new golf analyzer
func NewGolfAnalyzer() analysis.Analyzer {
	return &GolfAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("golf", models.ActivityGolf),
	}
}

// Analyze looks for slow, long stretches inside each golf venue
func (a *GolfAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	var sessions []models.ActivitySession
	for _, venue := range day.Registry.ForActivity(models.ActivityGolf) {
		p := analysis.Profile{
			Regimes:      []spatial.Regime{spatial.RegimeStationary, spatial.RegimeWalking},
			Venue:        &venue,
			VenueBufferM: golfVenueBufferM,
			MaxGap:       golfMaxGap,
			MinDuration:  golfMinDuration,
		}
		for _, d := range detect(fixes, p, golfRubric(day), golfMinScore) {
			sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
				Type:         models.ActivityGolf,
				Start:        d.Start(),
				End:          d.End(),
				LocationName: venue.Name,
				LocationLat:  venue.Lat,
				LocationLon:  venue.Lon,
				Score:        d.Score,
				Factors:      d.Factors,
				Details: models.Details{Golf: &models.GolfDetails{
					Venue:          venue.Name,
					HolesEstimate:  EstimateHoles(d.Stats.Duration),
					RoundType:      roundType(d.Stats.Duration),
					DistanceM:      math.Round(d.Stats.DistanceM),
					AvgVelocityMPS: roundTo(d.Stats.MeanVelocity, 2),
				}},
			}))
		}
	}
	return a.Finish(day, analysis.Consolidate(sessions, golfMergeGap))
}

func golfRubric(day analysis.Day) analysis.Rubric {
	return analysis.Rubric{
		{Name: "duration", Weight: 30, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.Hours(), 2, 5.5, 1, 6.5)
		}},
		{Name: "avg_velocity", Weight: 25, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.MeanVelocity, 0.3, 1.6, 0, 2.5)
		}},
		{Name: "distance", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.DistanceM, 3000, 12000, 1000, 16000)
		}},
		{Name: "venue_fraction", Weight: 15, Score: func(s analysis.Stats) float64 {
			return s.VenueFraction
		}},
		{Name: "tee_time", Weight: 10, Score: func(s analysis.Stats) float64 {
			return analysis.HourBand(day.Local(s.Start), 6, 15, 5, 17)
		}},
	}
}

// EstimateHoles guesses how many holes were played from the time on the course
func EstimateHoles(d time.Duration) int {
	h := d.Hours()
	switch {
	case h >= 2.5:
		return 18
	case h >= 1.5:
		return 9
	default:
		return max(1, min(18, int(math.Round(h*6))))
	}
}

func roundType(d time.Duration) string {
	switch EstimateHoles(d) {
	case 18:
		return "full"
	case 9:
		return "nine"
	default:
		return "partial"
	}
}

func init() {
	analysis.RegisterAnalyzer("golf", priorityGolf, NewGolfAnalyzer)
}
