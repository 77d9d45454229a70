// Package analysistest builds synthetic GPS tracks for analyzer tests.
package analysistest

import (
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// London is the zone most fixtures are written in
var London = mustZone("Europe/London")

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// At returns a wall-clock time in London
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, London)
}

// Leg is one stretch of a track
type Leg struct {
	Bearing  float64       // degrees
	Speed    float64       // m/s, reported as the fix velocity
	Duration time.Duration
	Every    time.Duration // fix interval, default one minute
	Climb    float64       // vertical m/s, applied only when the track has altitude
}

// Track accumulates fixes while walking a cursor through space and time
type Track struct {
	fixes []models.LocationFix
	now   time.Time
	pos   spatial.Point
	alt   *float64
}

// NewTrack starts a track at (lat, lon) at time start. No fix is emitted yet.
func NewTrack(start time.Time, lat, lon float64) *Track {
	return &Track{now: start, pos: spatial.Point{Lat: lat, Lon: lon}}
}

// WithAltitude makes subsequent fixes carry altitude, starting at m
func (tr *Track) WithAltitude(m float64) *Track {
	tr.alt = &m
	return tr
}

// Fix emits a single fix at the cursor with velocity v
func (tr *Track) Fix(v float64) *Track {
	f := models.LocationFix{
		Timestamp:   tr.now,
		Lat:         tr.pos.Lat,
		Lon:         tr.pos.Lon,
		VelocityMPS: v,
	}
	if tr.alt != nil {
		f.AltitudeM = models.Float(*tr.alt)
	}
	tr.fixes = append(tr.fixes, f)
	return tr
}

// Leg advances the cursor along l, emitting a fix at the end of every interval
func (tr *Track) Leg(l Leg) *Track {
	every := l.Every
	if every <= 0 {
		every = time.Minute
	}
	for elapsed := every; elapsed <= l.Duration; elapsed += every {
		step := l.Speed * every.Seconds()
		if step > 0 {
			lat, lon := spatial.DestinationPoint(tr.pos.Lat, tr.pos.Lon, l.Bearing, step)
			tr.pos = spatial.Point{Lat: lat, Lon: lon}
		}
		if tr.alt != nil {
			a := *tr.alt + l.Climb*every.Seconds()
			tr.alt = &a
		}
		tr.now = tr.now.Add(every)
		tr.Fix(l.Speed)
	}
	return tr
}

// Stay emits stationary fixes every interval for d
func (tr *Track) Stay(d, every time.Duration) *Track {
	return tr.Leg(Leg{Duration: d, Every: every})
}

// Move travels on bearing at speed for d, one fix per interval
func (tr *Track) Move(bearing, speed float64, d, every time.Duration) *Track {
	return tr.Leg(Leg{Bearing: bearing, Speed: speed, Duration: d, Every: every})
}

// MoveTo travels straight to (lat, lon) at speed, one fix per interval,
// finishing with a fix exactly at the target
func (tr *Track) MoveTo(lat, lon, speed float64, every time.Duration) *Track {
	if every <= 0 {
		every = time.Minute
	}
	target := spatial.Point{Lat: lat, Lon: lon}
	for {
		remaining := spatial.Distance(tr.pos, target)
		step := speed * every.Seconds()
		if remaining <= step || step <= 0 {
			tr.now = tr.now.Add(time.Duration(remaining / max(speed, 0.1) * float64(time.Second)))
			tr.pos = target
			return tr.Fix(speed)
		}
		bearing := spatial.Bearing(tr.pos.Lat, tr.pos.Lon, lat, lon)
		nlat, nlon := spatial.DestinationPoint(tr.pos.Lat, tr.pos.Lon, bearing, step)
		tr.pos = spatial.Point{Lat: nlat, Lon: nlon}
		tr.now = tr.now.Add(every)
		tr.Fix(speed)
	}
}

// Skip advances the clock without emitting fixes
func (tr *Track) Skip(d time.Duration) *Track {
	tr.now = tr.now.Add(d)
	return tr
}

// Jump moves the cursor without emitting fixes
func (tr *Track) Jump(lat, lon float64) *Track {
	tr.pos = spatial.Point{Lat: lat, Lon: lon}
	return tr
}

// Now returns the cursor time
func (tr *Track) Now() time.Time {
	return tr.now
}

// Fixes returns a copy of the emitted fixes
func (tr *Track) Fixes() []models.LocationFix {
	out := make([]models.LocationFix, len(tr.fixes))
	copy(out, tr.fixes)
	return out
}

// Location is a catalogue entry for tests with default allow-list
func Location(id, category string, lat, lon, radius float64) models.KnownLocation {
	return models.KnownLocation{
		ID:                id,
		Name:              id,
		Lat:               lat,
		Lon:               lon,
		RadiusM:           radius,
		Category:          category,
		AllowedActivities: models.DefaultActivities(category),
	}
}

// Workday is a commuter's day: home until 07:00, a five minute walk towards
// the station, no fixes until arriving at the office at 08:00, office until
// 17:00, the walk back and home from 17:45 until 19:45.
func Workday(date time.Time, home, office spatial.Point) []models.LocationFix {
	at := func(h, m int) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location())
	}
	toOffice := spatial.Bearing(home.Lat, home.Lon, office.Lat, office.Lon)
	return NewTrack(at(6, 0), home.Lat, home.Lon).
		Fix(0).
		Stay(time.Hour, 10*time.Minute).
		Move(toOffice, 2.0, 5*time.Minute, time.Minute).
		Skip(55*time.Minute).
		Jump(office.Lat, office.Lon).
		Fix(0).
		Stay(9*time.Hour, 10*time.Minute).
		Move(toOffice+180, 2.0, 5*time.Minute, time.Minute).
		Skip(40*time.Minute).
		Jump(home.Lat, home.Lon).
		Fix(0).
		Stay(2*time.Hour, 10*time.Minute).
		Fixes()
}

// HomeDay is a day spent at home from 08:00 to 18:00
func HomeDay(date time.Time, home spatial.Point) []models.LocationFix {
	start := time.Date(date.Year(), date.Month(), date.Day(), 8, 0, 0, 0, date.Location())
	return NewTrack(start, home.Lat, home.Lon).
		Fix(0).
		Stay(10*time.Hour, 10*time.Minute).
		Fixes()
}
