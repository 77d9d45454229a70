package analysis

import (
	"time"

	"github.com/jengzang/records-activity-go/internal/spatial"
)

// altitudeNoiseM is ignored when summing climbs and descents
const altitudeNoiseM = 3.0

// Stats summarizes a candidate for scoring
type Stats struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	FixCount int

	MeanVelocity float64
	MaxVelocity  float64

	DistanceM     float64 // along the path
	DisplacementM float64 // first to last fix
	Centroid      spatial.Point

	// VenueFraction is the share of fixes inside the venue geofence, 1 without a venue
	VenueFraction float64

	HasAltitude bool
	MinAltitude float64
	MaxAltitude float64
	AscentM     float64
	DescentM    float64

	DominantRegime spatial.Regime
	Pauses         int // stationary stretches after moving
}

// Hours returns the duration in fractional hours
func (s Stats) Hours() float64 {
	return s.Duration.Hours()
}

// Minutes returns the duration in fractional minutes
func (s Stats) Minutes() float64 {
	return s.Duration.Minutes()
}

// ComputeStats measures a candidate under profile p
func ComputeStats(c Candidate, p Profile) Stats {
	s := Stats{FixCount: len(c.Fixes), VenueFraction: 1}
	if len(c.Fixes) == 0 {
		return s
	}
	s.Start, s.End = c.Start(), c.End()
	s.Duration = s.End.Sub(s.Start)

	points := make([]spatial.Point, len(c.Fixes))
	regimeCount := make(map[spatial.Regime]int)
	inside := 0
	var sumVelocity float64
	prevStationary := true
	var lastAlt float64

	for i, f := range c.Fixes {
		points[i] = f.Point()
		sumVelocity += f.VelocityMPS
		if f.VelocityMPS > s.MaxVelocity {
			s.MaxVelocity = f.VelocityMPS
		}

		regime := p.Regime(f)
		regimeCount[regime]++
		stationary := regime == spatial.RegimeStationary
		if stationary && !prevStationary {
			s.Pauses++
		}
		prevStationary = stationary

		if p.Venue != nil && p.Venue.Contains(f) {
			inside++
		}

		if alt, ok := f.Altitude(); ok {
			if !s.HasAltitude {
				s.HasAltitude = true
				s.MinAltitude, s.MaxAltitude, lastAlt = alt, alt, alt
				continue
			}
			s.MinAltitude = min(s.MinAltitude, alt)
			s.MaxAltitude = max(s.MaxAltitude, alt)
			if delta := alt - lastAlt; delta > altitudeNoiseM {
				s.AscentM += delta
				lastAlt = alt
			} else if delta < -altitudeNoiseM {
				s.DescentM -= delta
				lastAlt = alt
			}
		}
	}

	s.MeanVelocity = sumVelocity / float64(len(c.Fixes))
	s.DistanceM = spatial.PathLength(points)
	s.DisplacementM = spatial.Distance(points[0], points[len(points)-1])
	s.Centroid = spatial.Centroid(points)
	if p.Venue != nil {
		s.VenueFraction = float64(inside) / float64(len(c.Fixes))
	}

	best := -1
	for r := spatial.RegimeStationary; r <= spatial.RegimeDriving; r++ {
		if regimeCount[r] > best {
			best = regimeCount[r]
			s.DominantRegime = r
		}
	}
	return s
}
