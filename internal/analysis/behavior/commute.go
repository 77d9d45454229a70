package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	commuteMaxGap      = 75 * time.Minute
	commuteMinDuration = 5 * time.Minute
	commuteMinScore    = 0.5
)

// CommuteAnalyzer detects journeys between home and work. A commute is a
// run of fixes outside both places, bracketed by a fix at one and a fix at
// the other; its duration is measured door to door between those brackets.
type CommuteAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewCommuteAnalyzer creates a new commute analyzer
func NewCommuteAnalyzer() analysis.Analyzer {
	return &CommuteAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("commute", models.ActivityCommute),
	}
}

// Analyze returns the home/work journeys of the day
func (a *CommuteAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	home, okHome := day.Registry.First(models.CategoryHome)
	work, okWork := day.Registry.First(models.CategoryWork)
	if !okHome || !okWork {
		return a.Finish(day, nil)
	}

	p := analysis.Profile{
		Accept: func(f models.LocationFix) bool {
			return !home.Contains(f) && !work.Contains(f)
		},
		MaxGap:   commuteMaxGap,
		MinFixes: 1,
	}

	var sessions []models.ActivitySession
	for _, c := range analysis.Segment(fixes, p) {
		if c.Before == nil || c.After == nil {
			continue
		}
		var origin, dest models.KnownLocation
		var direction string
		switch {
		case home.Contains(*c.Before) && work.Contains(*c.After):
			origin, dest, direction = home, work, models.DirectionToWork
		case work.Contains(*c.Before) && home.Contains(*c.After):
			origin, dest, direction = work, home, models.DirectionToHome
		default:
			continue
		}

		// door to door
		door := analysis.Candidate{
			Fixes:  append(append([]models.LocationFix{*c.Before}, c.Fixes...), *c.After),
			Before: c.Before,
			After:  c.After,
		}
		if door.Duration() < commuteMinDuration {
			continue
		}
		s := analysis.ComputeStats(door, p)
		moving := analysis.ComputeStats(c, p)
		s.MeanVelocity = moving.MeanVelocity

		score, factors := commuteRubric(day, direction, origin, dest).Evaluate(s)
		if score < commuteMinScore {
			continue
		}

		departure, arrival := day.Local(door.Start()), day.Local(door.End())
		sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
			Type:         models.ActivityCommute,
			Start:        door.Start(),
			End:          door.End(),
			LocationName: origin.Name + " to " + dest.Name,
			LocationLat:  dest.Lat,
			LocationLon:  dest.Lon,
			Score:        score,
			Factors:      factors,
			Details: models.Details{Commute: &models.CommuteDetails{
				Direction:   direction,
				Origin:      origin.Name,
				Destination: dest.Name,
				DistanceM:   math.Round(s.DistanceM),
				Mode:        movingRegime(c.Fixes).String(),
				Departure:   clock(departure),
				Arrival:     clock(arrival),
			}},
		}))
	}
	return a.Finish(day, sessions)
}

func commuteRubric(day analysis.Day, direction string, origin, dest models.KnownLocation) analysis.Rubric {
	direct := spatial.Distance(origin.Point(), dest.Point())
	return analysis.Rubric{
		{Name: "duration", Weight: 35, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.Minutes(), 10, 90, 5, 150)
		}},
		{Name: "weekday", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.Bool(weekday(day.Local(s.Start)))
		}},
		{Name: "departure_window", Weight: 20, Score: func(s analysis.Stats) float64 {
			if direction == models.DirectionToWork {
				return analysis.HourBand(day.Local(s.Start), 6, 10, 5, 11.5)
			}
			return analysis.HourBand(day.Local(s.Start), 15, 20, 13, 22)
		}},
		{Name: "moving_speed", Weight: 10, Score: func(s analysis.Stats) float64 {
			return analysis.AtLeast(s.MeanVelocity, 0.3, 1.0)
		}},
		{Name: "directness", Weight: 15, Score: func(s analysis.Stats) float64 {
			if s.DistanceM <= 0 {
				return 0
			}
			return analysis.AtLeast(direct/s.DistanceM, 0.3, 0.7)
		}},
	}
}

func init() {
	analysis.RegisterAnalyzer("commute", priorityCommute, NewCommuteAnalyzer)
}
