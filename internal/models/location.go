package models

import (
	"slices"

	"github.com/jengzang/records-activity-go/internal/spatial"
)

// Known-location categories
const (
	CategoryHome      = "home"
	CategoryWork      = "work"
	CategoryHealth    = "health"
	CategoryFitness   = "fitness"
	CategoryFamily    = "family"
	CategoryGolf      = "golf"
	CategoryParkrun   = "parkrun"
	CategoryAirport   = "airport"
	CategorySkiResort = "ski_resort"
)

// KnownLocation is a named place with a circular geofence
type KnownLocation struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Lat               float64        `json:"lat"`
	Lon               float64        `json:"lon"`
	RadiusM           float64        `json:"radius_m"`
	Category          string         `json:"category"`
	AllowedActivities []ActivityType `json:"allowed_activity_types"`
	TripID            string         `json:"trip_id,omitempty"`
}

// Point returns the geofence center
func (l KnownLocation) Point() spatial.Point {
	return spatial.Point{Lat: l.Lat, Lon: l.Lon}
}

// Contains reports whether the fix lies inside the geofence
func (l KnownLocation) Contains(f LocationFix) bool {
	return spatial.IsWithin(f.Lat, f.Lon, l.Lat, l.Lon, l.RadiusM)
}

// DistanceTo returns the distance in meters from the geofence center to the fix
func (l KnownLocation) DistanceTo(f LocationFix) float64 {
	return spatial.HaversineDistance(l.Lat, l.Lon, f.Lat, f.Lon)
}

// Allows reports whether sessions of type t may be attributed to this location
func (l KnownLocation) Allows(t ActivityType) bool {
	return slices.Contains(l.AllowedActivities, t)
}

// DefaultActivities returns the activity allow-list used when a catalogue entry names none
func DefaultActivities(category string) []ActivityType {
	switch category {
	case CategoryGolf:
		return []ActivityType{ActivityGolf}
	case CategoryParkrun:
		return []ActivityType{ActivityParkrun}
	case CategoryAirport:
		return []ActivityType{ActivityFlight, ActivityVisit}
	case CategorySkiResort:
		return []ActivityType{ActivitySnowboarding, ActivityVisit}
	case CategoryHome:
		return []ActivityType{ActivityVisit, ActivityCommute, ActivityDogWalk}
	case CategoryWork:
		return []ActivityType{ActivityVisit, ActivityCommute}
	default:
		return []ActivityType{ActivityVisit}
	}
}
