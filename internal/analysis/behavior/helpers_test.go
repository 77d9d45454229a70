package behavior

import (
	"testing"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/analysis/analysistest"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	homeLat = 51.5
	homeLon = -0.1
)

func newDay(t *testing.T, date string, locs ...models.KnownLocation) analysis.Day {
	t.Helper()
	day, err := analysis.NewDay(date, analysistest.London, locations.NewRegistry(locs))
	if err != nil {
		t.Fatalf("NewDay(%s): %v", date, err)
	}
	return day
}

// offset returns the point distM meters from home on bearing
func offset(bearing, distM float64) spatial.Point {
	lat, lon := spatial.DestinationPoint(homeLat, homeLon, bearing, distM)
	return spatial.Point{Lat: lat, Lon: lon}
}

func ofType(sessions []models.ActivitySession, typ models.ActivityType) []models.ActivitySession {
	var out []models.ActivitySession
	for _, s := range sessions {
		if s.ActivityType == typ {
			out = append(out, s)
		}
	}
	return out
}
