package behavior

import (
	"fmt"
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	parkrunVenueBufferM = 100
	parkrunMaxVelocity  = 6.5
	parkrunMaxGap       = 5 * time.Minute
	parkrunMinDuration  = 12 * time.Minute
	parkrunMinScore     = 0.4
)

// parkrunThresholds counts anything from a slow jog up as running so a
// back-of-the-field 5 km stays in range.
var parkrunThresholds = spatial.VelocityThresholds{
	Stationary: spatial.DefaultThresholds.Stationary,
	Walking:    1.7,
	Running:    spatial.DefaultThresholds.Running,
	Cycling:    spatial.DefaultThresholds.Cycling,
}

// ParkrunAnalyzer detects timed 5 km runs at parkrun venues
type ParkrunAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewParkrunAnalyzer creates a new parkrun analyzer
func NewParkrunAnalyzer() analysis.Analyzer {
	return &ParkrunAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("parkrun", models.ActivityParkrun),
	}
}

// Analyze looks for running-pace stretches near each parkrun venue
func (a *ParkrunAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	var sessions []models.ActivitySession
	for _, venue := range day.Registry.ForActivity(models.ActivityParkrun) {
		p := analysis.Profile{
			Thresholds:   parkrunThresholds,
			Regimes:      []spatial.Regime{spatial.RegimeRunning, spatial.RegimeCycling},
			MaxVelocity:  parkrunMaxVelocity,
			Venue:        &venue,
			VenueBufferM: parkrunVenueBufferM,
			MaxGap:       parkrunMaxGap,
			MinDuration:  parkrunMinDuration,
		}
		for _, d := range detect(fixes, p, parkrunRubric(day), parkrunMinScore) {
			start := day.Local(d.Start())
			sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
				Type:         models.ActivityParkrun,
				Start:        d.Start(),
				End:          d.End(),
				LocationName: venue.Name,
				LocationLat:  venue.Lat,
				LocationLon:  venue.Lon,
				Score:        d.Score,
				Factors:      d.Factors,
				Details: models.Details{Parkrun: &models.ParkrunDetails{
					Event:         venue.Name,
					DistanceM:     math.Round(d.Stats.DistanceM),
					PaceMinPerKm:  pace(d.Stats),
					FinishTime:    finishTime(d.Stats.Duration),
					MaxSpeedMPS:   roundTo(d.Stats.MaxVelocity, 2),
					StartedOnTime: start.Weekday() == time.Saturday && minuteOfDay(start) >= 8*60+55 && minuteOfDay(start) <= 9*60+10,
				}},
			}))
		}
	}
	return a.Finish(day, sessions)
}

func parkrunRubric(day analysis.Day) analysis.Rubric {
	return analysis.Rubric{
		{Name: "duration", Weight: 25, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.Minutes(), 15, 45, 10, 60)
		}},
		{Name: "distance", Weight: 25, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.DistanceM, 4500, 5600, 3500, 6500)
		}},
		{Name: "avg_velocity", Weight: 15, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.MeanVelocity, 2, 5, 1.5, 6)
		}},
		{Name: "saturday", Weight: 15, Score: func(s analysis.Stats) float64 {
			return analysis.Bool(day.Local(s.Start).Weekday() == time.Saturday)
		}},
		{Name: "start_time", Weight: 10, Score: func(s analysis.Stats) float64 {
			return analysis.HourBand(day.Local(s.Start), 8.75, 9.5, 8.5, 10)
		}},
		{Name: "venue", Weight: 10, Score: func(s analysis.Stats) float64 {
			return s.VenueFraction
		}},
	}
}

func pace(s analysis.Stats) float64 {
	if s.DistanceM <= 0 {
		return 0
	}
	return roundTo(s.Minutes()/(s.DistanceM/1000), 2)
}

func finishTime(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, sec := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func init() {
	analysis.RegisterAnalyzer("parkrun", priorityParkrun, NewParkrunAnalyzer)
}
