package models

import (
	"math"
	"sort"
	"time"

	"github.com/jengzang/records-activity-go/internal/spatial"
)

// LocationFix is one timestamped GPS sample as delivered by the location recorder
type LocationFix struct {
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	VelocityMPS float64   `json:"velocity_mps"`
	AltitudeM   *float64  `json:"altitude_m,omitempty"`
	AccuracyM   *float64  `json:"accuracy_m,omitempty"`
}

// Valid reports whether the fix has a timestamp and usable coordinates
func (f LocationFix) Valid() bool {
	if f.Timestamp.IsZero() {
		return false
	}
	if math.IsNaN(f.Lat) || math.IsNaN(f.Lon) || math.IsNaN(f.VelocityMPS) {
		return false
	}
	return f.Lat >= -90 && f.Lat <= 90 && f.Lon >= -180 && f.Lon <= 180
}

// Point returns the fix position
func (f LocationFix) Point() spatial.Point {
	return spatial.Point{Lat: f.Lat, Lon: f.Lon}
}

// Altitude returns the altitude and whether the fix carries one
func (f LocationFix) Altitude() (float64, bool) {
	if f.AltitudeM == nil {
		return 0, false
	}
	return *f.AltitudeM, true
}

// SortFixes returns the valid fixes of in, sorted ascending by timestamp.
// Ties keep their original order. The input slice is not modified.
func SortFixes(in []LocationFix) []LocationFix {
	out := make([]LocationFix, 0, len(in))
	for _, f := range in {
		if f.Valid() {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Float returns a pointer to v, for optional fix fields
func Float(v float64) *float64 {
	return &v
}
