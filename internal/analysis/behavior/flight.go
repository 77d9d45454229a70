package behavior

import (
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
)

const (
	cruiseMinAltitudeM = 5000
	cruiseMinSpeedMPS  = 200
	flightMaxGap       = 30 * time.Minute
	flightMinFixes     = 10
	airportMaxDistM    = 200_000
)

// FlightAnalyzer detects flights from sustained cruise altitude and speed
type FlightAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewFlightAnalyzer creates a new flight analyzer
func NewFlightAnalyzer() analysis.Analyzer {
	return &FlightAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("flight", models.ActivityFlight),
	}
}

// Analyze returns one session per cruise segment. Origin and destination are
// the airports nearest the last fix before and the first fix after cruise.
func (a *FlightAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	p := analysis.Profile{
		Accept: func(f models.LocationFix) bool {
			alt, ok := f.Altitude()
			return ok && alt > cruiseMinAltitudeM && f.VelocityMPS > cruiseMinSpeedMPS
		},
		MaxGap:   flightMaxGap,
		MinFixes: flightMinFixes,
	}
	airports := day.Registry.ByCategory(models.CategoryAirport)

	var sessions []models.ActivitySession
	for _, d := range detect(fixes, p, flightRubric, 0) {
		first, last := d.Fixes[0], d.Fixes[len(d.Fixes)-1]
		before, after := d.Before, d.After
		if before == nil {
			before = &first
		}
		if after == nil {
			after = &last
		}
		origin := nearest(airports, before, airportMaxDistM)
		dest := nearest(airports, after, airportMaxDistM)

		details := &models.FlightDetails{
			MaxAltitudeM:   math.Round(d.Stats.MaxAltitude),
			AvgSpeedMPS:    roundTo(d.Stats.MeanVelocity, 1),
			DistanceM:      math.Round(d.Stats.DistanceM),
			CruiseFixCount: d.Stats.FixCount,
		}
		name := "In flight"
		lat, lon := d.Stats.Centroid.Lat, d.Stats.Centroid.Lon
		if origin != nil {
			details.Origin = origin.Name
		}
		if dest != nil {
			details.Destination = dest.Name
			lat, lon = dest.Lat, dest.Lon
		}
		switch {
		case origin != nil && dest != nil:
			name = origin.Name + " to " + dest.Name
		case dest != nil:
			name = "to " + dest.Name
		case origin != nil:
			name = "from " + origin.Name
		}

		// every cruise signal holds by construction of the profile
		score := math.Max(d.Score, models.ConfirmedThreshold)
		sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
			Type:         models.ActivityFlight,
			Start:        d.Start(),
			End:          d.End(),
			LocationName: name,
			LocationLat:  lat,
			LocationLon:  lon,
			Score:        score,
			Factors:      d.Factors,
			Details:      models.Details{Flight: details},
		}))
	}
	return a.Finish(day, sessions)
}

var flightRubric = analysis.Rubric{
	{Name: "fix_count", Weight: 30, Score: func(s analysis.Stats) float64 {
		return analysis.AtLeast(float64(s.FixCount), flightMinFixes, 3*flightMinFixes)
	}},
	{Name: "cruise_altitude", Weight: 25, Score: func(s analysis.Stats) float64 {
		return analysis.AtLeast(s.MaxAltitude, cruiseMinAltitudeM, 9000)
	}},
	{Name: "cruise_speed", Weight: 25, Score: func(s analysis.Stats) float64 {
		return analysis.AtLeast(s.MeanVelocity, cruiseMinSpeedMPS, 230)
	}},
	{Name: "duration", Weight: 20, Score: func(s analysis.Stats) float64 {
		return analysis.AtLeast(s.Minutes(), 10, 45)
	}},
}

func init() {
	analysis.RegisterAnalyzer("flight", priorityFlight, NewFlightAnalyzer)
}
