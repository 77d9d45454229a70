// Package pattern answers aggregate questions about where time was spent:
// dwell time at a place, frequently visited places, daily routines and
// commute habits.
package pattern

import (
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// Visit is one stay inside a geofence
type Visit struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Hours    float64   `json:"hours"`
	FixCount int       `json:"fix_count"`
}

// Duration returns End - Start
func (v Visit) Duration() time.Duration {
	return v.End.Sub(v.Start)
}

// TimeAtLocationResult is the dwell time inside one geofence
type TimeAtLocationResult struct {
	TotalDuration time.Duration `json:"-"`
	TotalHours    float64       `json:"total_hours"`
	VisitCount    int           `json:"visit_count"`
	Visits        []Visit       `json:"visits"`
}

// TimeAtLocation scans fixes in time order and collects the visits to the
// circle of radiusM around (lat, lon). A visit opens on the first fix inside,
// is extended by every following inside fix and closes at the last inside fix
// once a fix outside is seen. A visit still open at the final fix is closed
// there. Visits shorter than minDuration are discarded.
//
// The total never exceeds the time between the first and last fix.
func TimeAtLocation(fixes []models.LocationFix, lat, lon, radiusM float64, minDuration time.Duration) TimeAtLocationResult {
	res := TimeAtLocationResult{Visits: []Visit{}}
	var open *Visit

	closeVisit := func() {
		if open == nil {
			return
		}
		if open.Duration() >= minDuration {
			open.Hours = models.DurationHours(open.Duration())
			res.Visits = append(res.Visits, *open)
			res.TotalDuration += open.Duration()
		}
		open = nil
	}

	for _, f := range models.SortFixes(fixes) {
		if !spatial.IsWithin(f.Lat, f.Lon, lat, lon, radiusM) {
			closeVisit()
			continue
		}
		if open == nil {
			open = &Visit{Start: f.Timestamp}
		}
		open.End = f.Timestamp
		open.FixCount++
	}
	closeVisit()

	res.VisitCount = len(res.Visits)
	res.TotalHours = models.DurationHours(res.TotalDuration)
	return res
}

// TimeAt runs TimeAtLocation against a known location's geofence
func TimeAt(fixes []models.LocationFix, loc models.KnownLocation, minDuration time.Duration) TimeAtLocationResult {
	return TimeAtLocation(fixes, loc.Lat, loc.Lon, loc.RadiusM, minDuration)
}
