package models

import (
	"time"
)

// ActivityType labels a detected session
type ActivityType string

const (
	ActivityGolf         ActivityType = "golf"
	ActivityParkrun      ActivityType = "parkrun"
	ActivityCommute      ActivityType = "commute"
	ActivityDogWalk      ActivityType = "dog_walk"
	ActivitySnowboarding ActivityType = "snowboarding"
	ActivityFlight       ActivityType = "flight"
	ActivityVisit        ActivityType = "visit"
)

// Confidence is the bucketed label of a confidence score
type Confidence string

const (
	ConfidenceConfirmed Confidence = "CONFIRMED"
	ConfidenceMedium    Confidence = "MEDIUM"
	ConfidenceLow       Confidence = "LOW"
	ConfidenceUnknown   Confidence = "UNKNOWN"
)

// Confidence bucket lower bounds
const (
	ConfirmedThreshold = 0.8
	MediumThreshold    = 0.5
)

// BucketConfidence maps a score in [0,1] to its label. Monotone in score.
func BucketConfidence(score float64) Confidence {
	switch {
	case score >= ConfirmedThreshold:
		return ConfidenceConfirmed
	case score >= MediumThreshold:
		return ConfidenceMedium
	case score >= 0:
		return ConfidenceLow
	default:
		return ConfidenceUnknown
	}
}

// ActivitySession is a contiguous, scored interval classified as one activity
type ActivitySession struct {
	ID              string       `json:"id"`
	ActivityType    ActivityType `json:"activity_type"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DurationHours   float64      `json:"duration_hours"`
	LocationName    string       `json:"location_name"`
	LocationLat     float64      `json:"location_lat"`
	LocationLon     float64      `json:"location_lon"`
	Confidence      Confidence   `json:"confidence"`
	ConfidenceScore float64      `json:"confidence_score"`
	Details         Details      `json:"details"`
}

// Duration returns end minus start
func (s ActivitySession) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// DurationHours converts d to fractional hours rounded to 0.01
func DurationHours(d time.Duration) float64 {
	return float64(int64(d.Hours()*100+0.5)) / 100
}

// FactorScore is one rubric line kept for explainability
type FactorScore struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
	Points float64 `json:"points"`
}

// Details carries the per-activity payload of a session. Type selects which
// variant is set; Extra holds fields no variant models yet.
type Details struct {
	Type       ActivityType  `json:"type"`
	SourceDate string        `json:"source_date"`
	Factors    []FactorScore `json:"factors,omitempty"`

	Golf      *GolfDetails      `json:"golf,omitempty"`
	Parkrun   *ParkrunDetails   `json:"parkrun,omitempty"`
	Commute   *CommuteDetails   `json:"commute,omitempty"`
	DogWalk   *DogWalkDetails   `json:"dog_walk,omitempty"`
	Snowboard *SnowboardDetails `json:"snowboarding,omitempty"`
	Flight    *FlightDetails    `json:"flight,omitempty"`
	Visit     *VisitDetails     `json:"visit,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// GolfDetails describes a golf round
type GolfDetails struct {
	Venue          string  `json:"venue"`
	HolesEstimate  int     `json:"holes_estimate"`
	RoundType      string  `json:"round_type"`
	DistanceM      float64 `json:"distance_m"`
	AvgVelocityMPS float64 `json:"avg_velocity_mps"`
}

// ParkrunDetails describes a parkrun
type ParkrunDetails struct {
	Event         string  `json:"event"`
	DistanceM     float64 `json:"distance_m"`
	PaceMinPerKm  float64 `json:"pace_min_per_km"`
	FinishTime    string  `json:"finish_time"`
	MaxSpeedMPS   float64 `json:"max_speed_mps"`
	StartedOnTime bool    `json:"started_on_time"`
}

// Commute directions
const (
	DirectionToWork = "to_work"
	DirectionToHome = "to_home"
)

// CommuteDetails describes a home/work journey
type CommuteDetails struct {
	Direction   string  `json:"direction"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceM   float64 `json:"distance_m"`
	Mode        string  `json:"mode"`
	Departure   string  `json:"departure"`
	Arrival     string  `json:"arrival"`
}

// DogWalkDetails describes a dog walk
type DogWalkDetails struct {
	DistanceM float64 `json:"distance_m"`
	RoundTrip bool    `json:"round_trip"`
	FromHome  bool    `json:"from_home"`
	Pauses    int     `json:"pauses"`
}

// SnowboardDetails describes a day on the slopes
type SnowboardDetails struct {
	Resort         string  `json:"resort,omitempty"`
	Runs           int     `json:"runs"`
	VerticalMeters float64 `json:"vertical_meters"`
	MaxSpeedMPS    float64 `json:"max_speed_mps"`
	TopAltitudeM   float64 `json:"top_altitude_m"`
	BaseAltitudeM  float64 `json:"base_altitude_m"`
}

// FlightDetails describes a detected flight
type FlightDetails struct {
	Origin         string  `json:"origin,omitempty"`
	Destination    string  `json:"destination,omitempty"`
	MaxAltitudeM   float64 `json:"max_altitude_m"`
	AvgSpeedMPS    float64 `json:"avg_speed_mps"`
	DistanceM      float64 `json:"distance_m"`
	CruiseFixCount int     `json:"cruise_fix_count"`
}

// VisitDetails describes a dwell at a known location
type VisitDetails struct {
	LocationID string `json:"location_id"`
	Category   string `json:"category"`
	FixCount   int    `json:"fix_count"`
}
