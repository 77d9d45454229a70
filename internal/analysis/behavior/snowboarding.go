package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
)

const (
	snowMaxVelocity   = 35
	snowMinAltitudeM  = 1000
	snowResortBufferM = 500
	snowMaxGap        = 20 * time.Minute
	snowMinDuration   = 45 * time.Minute
	snowMinScore      = 0.5

	// A run starts after dropping runDropM below the last peak and ends
	// after climbing runClimbM above the lowest point since.
	runDropM  = 50
	runClimbM = 30
)

// SnowboardingAnalyzer detects days on the slopes from altitude cycles
type SnowboardingAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewSnowboardingAnalyzer creates a new snowboarding analyzer
func NewSnowboardingAnalyzer() analysis.Analyzer {
	return &SnowboardingAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("snowboarding", models.ActivitySnowboarding),
	}
}

// Analyze scores the day against every registered resort, or against any
// high-altitude stretch when no resort is registered
func (a *SnowboardingAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	hasAltitude := func(f models.LocationFix) bool {
		_, ok := f.Altitude()
		return ok
	}

	resorts := day.Registry.ForActivity(models.ActivitySnowboarding)
	var sessions []models.ActivitySession
	if len(resorts) == 0 {
		p := analysis.Profile{
			MaxVelocity: snowMaxVelocity,
			Accept: func(f models.LocationFix) bool {
				alt, ok := f.Altitude()
				return ok && alt >= snowMinAltitudeM
			},
			MaxGap:      snowMaxGap,
			MinDuration: snowMinDuration,
		}
		sessions = a.sessions(day, fixes, p, nil)
	}
	for _, resort := range resorts {
		p := analysis.Profile{
			MaxVelocity:  snowMaxVelocity,
			Venue:        &resort,
			VenueBufferM: snowResortBufferM,
			Accept:       hasAltitude,
			MaxGap:       snowMaxGap,
			MinDuration:  snowMinDuration,
		}
		sessions = append(sessions, a.sessions(day, fixes, p, &resort)...)
	}
	return a.Finish(day, sessions)
}

func (a *SnowboardingAnalyzer) sessions(day analysis.Day, fixes []models.LocationFix, p analysis.Profile, resort *models.KnownLocation) []models.ActivitySession {
	var out []models.ActivitySession
	for _, c := range analysis.Segment(fixes, p) {
		runs := CountRuns(c.Fixes)
		s := analysis.ComputeStats(c, p)
		score, factors := snowRubric(runs, resort != nil).Evaluate(s)
		if score < snowMinScore {
			continue
		}

		ss := analysis.SessionSpec{
			Type:        models.ActivitySnowboarding,
			Start:       c.Start(),
			End:         c.End(),
			LocationLat: s.Centroid.Lat,
			LocationLon: s.Centroid.Lon,
			Score:       score,
			Factors:     factors,
			Details: models.Details{Snowboard: &models.SnowboardDetails{
				Runs:           runs,
				VerticalMeters: math.Round(s.DescentM),
				MaxSpeedMPS:    roundTo(s.MaxVelocity, 1),
				TopAltitudeM:   math.Round(s.MaxAltitude),
				BaseAltitudeM:  math.Round(s.MinAltitude),
			}},
		}
		if resort != nil {
			ss.LocationName = resort.Name
			ss.LocationLat, ss.LocationLon = resort.Lat, resort.Lon
			ss.Details.Snowboard.Resort = resort.Name
		} else {
			ss.LocationName = "Mountain"
		}
		out = append(out, analysis.NewSession(day, ss))
	}
	return out
}

func snowRubric(runs int, atResort bool) analysis.Rubric {
	return analysis.Rubric{
		{Name: "duration", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.Hours(), 2, 7, 1, 9)
		}},
		{Name: "runs", Weight: 25, Score: func(analysis.Stats) float64 {
			return analysis.AtLeast(float64(runs), 0, 3)
		}},
		{Name: "vertical", Weight: 20, Score: func(s analysis.Stats) float64 {
			return analysis.AtLeast(s.DescentM, 0, 800)
		}},
		{Name: "max_speed", Weight: 15, Score: func(s analysis.Stats) float64 {
			return analysis.Band(s.MaxVelocity, 8, 25, 4, 32)
		}},
		{Name: "resort", Weight: 20, Score: func(s analysis.Stats) float64 {
			if atResort {
				return 1
			}
			return analysis.AtLeast(s.MaxAltitude, snowMinAltitudeM, 1500)
		}},
	}
}

// CountRuns counts descents separated by climbs, with hysteresis so that
// altitude noise does not split or invent runs
func CountRuns(fixes []models.LocationFix) int {
	runs := 0
	descending := false
	started := false
	var peak, trough float64
	for _, f := range fixes {
		alt, ok := f.Altitude()
		if !ok {
			continue
		}
		if !started {
			peak, trough, started = alt, alt, true
			continue
		}
		if descending {
			trough = math.Min(trough, alt)
			if alt-trough >= runClimbM {
				descending = false
				peak = alt
			}
			continue
		}
		peak = math.Max(peak, alt)
		if peak-alt >= runDropM {
			descending = true
			trough = alt
			runs++
		}
	}
	return runs
}

func init() {
	analysis.RegisterAnalyzer("snowboarding", prioritySnowboarding, NewSnowboardingAnalyzer)
}
