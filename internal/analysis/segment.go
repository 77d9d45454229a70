package analysis

import (
	"slices"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// Profile describes which fixes count toward an activity and how they are
// grouped into candidate sessions
type Profile struct {
	// Thresholds classifies velocities. Zero value means spatial.DefaultThresholds.
	Thresholds spatial.VelocityThresholds

	// Regimes lists the in-range regimes. Empty accepts every regime.
	Regimes []spatial.Regime

	// MaxVelocity caps in-range speed in m/s. Zero means no cap.
	MaxVelocity float64

	// Venue, when set, restricts in-range fixes to its geofence plus VenueBufferM.
	Venue        *models.KnownLocation
	VenueBufferM float64

	// Accept is an extra per-fix predicate.
	Accept func(models.LocationFix) bool

	// MaxGap is the longest time between two in-range fixes of one candidate.
	MaxGap time.Duration

	// MinDuration and MinFixes drop short candidates. MinFixes defaults to 2.
	MinDuration time.Duration
	MinFixes    int
}

func (p Profile) thresholds() spatial.VelocityThresholds {
	if p.Thresholds == (spatial.VelocityThresholds{}) {
		return spatial.DefaultThresholds
	}
	return p.Thresholds
}

// Regime classifies a fix with the profile thresholds
func (p Profile) Regime(f models.LocationFix) spatial.Regime {
	return p.thresholds().Classify(f.VelocityMPS)
}

// InRange reports whether a fix counts toward the activity
func (p Profile) InRange(f models.LocationFix) bool {
	if len(p.Regimes) > 0 && !slices.Contains(p.Regimes, p.Regime(f)) {
		return false
	}
	if p.MaxVelocity > 0 && f.VelocityMPS > p.MaxVelocity {
		return false
	}
	if p.Venue != nil && p.Venue.DistanceTo(f) > p.Venue.RadiusM+p.VenueBufferM {
		return false
	}
	if p.Accept != nil && !p.Accept(f) {
		return false
	}
	return true
}

// Candidate is a run of in-range fixes that may become a session
type Candidate struct {
	Fixes []models.LocationFix

	// Before and After are the fixes immediately around the run in the full
	// day, whatever their range. Nil at the edges of the day.
	Before *models.LocationFix
	After  *models.LocationFix
}

// Start returns the first fix time
func (c Candidate) Start() time.Time {
	return c.Fixes[0].Timestamp
}

// End returns the last fix time
func (c Candidate) End() time.Time {
	return c.Fixes[len(c.Fixes)-1].Timestamp
}

// Duration returns End - Start
func (c Candidate) Duration() time.Duration {
	return c.End().Sub(c.Start())
}

// Segment walks the fixes once and groups in-range fixes into candidates.
// In-range fixes closer than MaxGap in time join the open candidate even when
// out-of-range fixes lie between them; a longer gap closes it. Candidates
// failing the duration floor are dropped. Invalid fixes are skipped.
func Segment(fixes []models.LocationFix, p Profile) []Candidate {
	sorted := models.SortFixes(fixes)
	minFixes := p.MinFixes
	if minFixes <= 0 {
		minFixes = 2
	}

	var out []Candidate
	var members []models.LocationFix
	first, last := -1, -1

	closeRun := func() {
		if len(members) >= minFixes {
			c := Candidate{Fixes: members}
			if first > 0 {
				before := sorted[first-1]
				c.Before = &before
			}
			if last+1 < len(sorted) {
				after := sorted[last+1]
				c.After = &after
			}
			if c.Duration() >= p.MinDuration {
				out = append(out, c)
			}
		}
		members, first, last = nil, -1, -1
	}

	for i, f := range sorted {
		if !p.InRange(f) {
			continue
		}
		if last >= 0 && f.Timestamp.Sub(sorted[last].Timestamp) > p.MaxGap {
			closeRun()
		}
		if first < 0 {
			first = i
		}
		last = i
		members = append(members, f)
	}
	if last >= 0 {
		closeRun()
	}
	return out
}
