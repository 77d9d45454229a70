package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	dogWalkMaxGap      = 10 * time.Minute
	dogWalkMinDuration = 5 * time.Minute
	dogWalkMinScore    = 0.5
	dogWalkLoopM       = 200
)

// DogWalkAnalyzer detects walking loops away from known places
type DogWalkAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewDogWalkAnalyzer creates a new dog walk analyzer
func NewDogWalkAnalyzer() analysis.Analyzer {
	return &DogWalkAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("dog_walk", models.ActivityDogWalk),
	}
}

// Analyze returns the walks of the day. Walks that start at one known place
// and end at another are journeys and are left to the commute analyzer.
func (a *DogWalkAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	reg := day.Registry
	home, hasHome := reg.First(models.CategoryHome)

	p := analysis.Profile{
		Regimes: []spatial.Regime{spatial.RegimeStationary, spatial.RegimeWalking},
		Accept: func(f models.LocationFix) bool {
			loc := reg.Resolve(f.Lat, f.Lon)
			return loc == nil || (loc.Category != models.CategoryHome && loc.Allows(models.ActivityDogWalk))
		},
		MaxGap:      dogWalkMaxGap,
		MinDuration: dogWalkMinDuration,
	}

	var sessions []models.ActivitySession
	for _, c := range analysis.Segment(fixes, p) {
		from, to := endpoint(reg, c.Before), endpoint(reg, c.After)
		if from != nil && to != nil && from.ID != to.ID {
			continue
		}

		s := analysis.ComputeStats(c, p)
		roundTrip := s.DisplacementM <= math.Max(dogWalkLoopM, 0.2*s.DistanceM)
		fromHome := hasHome && ((from != nil && from.ID == home.ID) || home.DistanceTo(c.Fixes[0]) <= home.RadiusM+dogWalkLoopM)

		score, factors := dogWalkRubric(day, roundTrip).Evaluate(s)
		if score < dogWalkMinScore {
			continue
		}

		name, lat, lon := "Local area", s.Centroid.Lat, s.Centroid.Lon
		if fromHome {
			name, lat, lon = home.Name, home.Lat, home.Lon
		}
		sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
			Type:         models.ActivityDogWalk,
			Start:        c.Start(),
			End:          c.End(),
			LocationName: name,
			LocationLat:  lat,
			LocationLon:  lon,
			Score:        score,
			Factors:      factors,
			Details: models.Details{DogWalk: &models.DogWalkDetails{
				DistanceM: math.Round(s.DistanceM),
				RoundTrip: roundTrip,
				FromHome:  fromHome,
				Pauses:    s.Pauses,
			}},
		}))
	}
	return a.Finish(day, sessions)
}

func endpoint(reg *locations.Registry, f *models.LocationFix) *models.KnownLocation {
	if f == nil {
		return nil
	}
	return reg.Resolve(f.Lat, f.Lon)
}

func dogWalkRubric(day analysis.Day, roundTrip bool) analysis.Rubric {
	return analysis.Rubric{
		{Name: "duration", Weight: 25, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.Minutes(), 15, 75, 5, 120)
		}},
		{Name: "avg_velocity", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.MeanVelocity, 0.6, 1.6, 0.3, 2.2)
		}},
		{Name: "distance", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.DistanceM, 1000, 5000, 300, 8000)
		}},
		{Name: "round_trip", Weight: 20, Score: func(analysis.Stats) float64 {
			return analysis.Bool(roundTrip)
		}},
		{Name: "time_of_day", Weight: 15, Score: func(s analysis.Stats) float64 {
			return analysis.HourBand(day.Local(s.Start), 6, 21, 5, 23)
		}},
	}
}

func init() {
	analysis.RegisterAnalyzer("dog_walk", priorityDogWalk, NewDogWalkAnalyzer)
}
