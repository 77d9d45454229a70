package behavior

import (
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/models"
)

const (
	visitMaxGap      = 30 * time.Minute
	visitMinDuration = 10 * time.Minute
)

// VisitAnalyzer reports dwells at known locations. Each fix is attributed to
// the most specific location containing it, so nested geofences do not
// double count.
type VisitAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewVisitAnalyzer creates a new visit analyzer
func NewVisitAnalyzer() analysis.Analyzer {
	return &VisitAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer("visit", models.ActivityVisit),
	}
}

// Analyze returns the visits to every non-golf location that allows them
func (a *VisitAnalyzer) Analyze(day analysis.Day, fixes []models.LocationFix) []models.ActivitySession {
	reg := day.Registry
	var sessions []models.ActivitySession
	for _, loc := range reg.ForActivity(models.ActivityVisit) {
		if loc.Category == models.CategoryGolf {
			continue
		}
		p := analysis.Profile{
			Accept: func(f models.LocationFix) bool {
				r := reg.Resolve(f.Lat, f.Lon)
				return r != nil && r.ID == loc.ID
			},
			MaxGap:      visitMaxGap,
			MinDuration: visitMinDuration,
		}
		for _, d := range detect(fixes, p, visitRubric, 0) {
			sessions = append(sessions, analysis.NewSession(day, analysis.SessionSpec{
				Type:         models.ActivityVisit,
				Start:        d.Start(),
				End:          d.End(),
				LocationName: loc.Name,
				LocationLat:  loc.Lat,
				LocationLon:  loc.Lon,
				Score:        d.Score,
				Factors:      d.Factors,
				Details: models.Details{Visit: &models.VisitDetails{
					LocationID: loc.ID,
					Category:   loc.Category,
					FixCount:   d.Stats.FixCount,
				}},
			}))
		}
	}
	return a.Finish(day, analysis.Consolidate(sessions, visitMaxGap))
}

var visitRubric = analysis.Rubric{
	{Name: "duration", Weight: 40, Score: func(s analysis.Stats) float64 {
		return analysis.AtLeast(s.Minutes(), 10, 30)
	}},
	{Name: "fix_density", Weight: 30, Score: func(s analysis.Stats) float64 {
		if s.Hours() <= 0 {
			return 0
		}
		return analysis.AtLeast(float64(s.FixCount)/s.Hours(), 2, 12)
	}},
	{Name: "low_speed", Weight: 30, Score: func(s analysis.Stats) float64 {
		return analysis.AtMost(s.MeanVelocity, 0.5, 2.0)
	}},
}

func init() {
	analysis.RegisterAnalyzer("visit", priorityVisit, NewVisitAnalyzer)
}
