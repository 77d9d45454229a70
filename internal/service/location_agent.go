package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/analysis/behavior"
	"github.com/jengzang/records-activity-go/internal/analysis/pattern"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/cache"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	maxRangeDays = 366
)

// LocationSource is the location history backend, normally the recorder client
type LocationSource interface {
	ListDevices(ctx context.Context, user string) ([]string, error)
	Locations(ctx context.Context, user, device string, from, to time.Time) ([]models.LocationFix, error)
	Last(ctx context.Context, user, device string) (*models.LocationFix, error)
}

// AgentConfig tunes the location agent
type AgentConfig struct {
	User   string
	Device string // empty: first device listed by the source

	Location        *time.Location
	Pattern         pattern.Options
	FrequentRadiusM float64
	LookupTolerance time.Duration

	Now func() time.Time
}

// LocationAgent answers location questions over the recorder history. Fix
// windows are read through the cache; queries return results instead of
// failing on upstream errors, and fail fast on malformed input.
type LocationAgent struct {
	source   LocationSource
	cache    *cache.LocationCache
	registry *locations.Registry
	cfg      AgentConfig
	log      zerolog.Logger

	mu     sync.Mutex
	device string
}

// NewLocationAgent creates an agent. cache may be nil.
func NewLocationAgent(source LocationSource, c *cache.LocationCache, registry *locations.Registry, cfg AgentConfig) *LocationAgent {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Pattern == (pattern.Options{}) {
		cfg.Pattern = pattern.DefaultOptions()
		cfg.Pattern.Location = nil
	}
	if cfg.Pattern.Location == nil {
		cfg.Pattern.Location = cfg.Location
	}
	if cfg.FrequentRadiusM <= 0 {
		cfg.FrequentRadiusM = 100
	}
	if cfg.LookupTolerance <= 0 {
		cfg.LookupTolerance = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if registry == nil {
		registry = locations.NewRegistry(nil)
	}
	return &LocationAgent{
		source:   source,
		cache:    c,
		registry: registry,
		cfg:      cfg,
		log:      logging.WithComponent("location_agent"),
		device:   cfg.Device,
	}
}

// Registry returns the global known-location registry
func (a *LocationAgent) Registry() *locations.Registry {
	return a.registry
}

// Location returns the analysis time zone
func (a *LocationAgent) Location() *time.Location {
	return a.cfg.Location
}

// Device returns the configured device, or the first device the source lists
// for the user. The detected device is kept for the lifetime of the agent.
func (a *LocationAgent) Device(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.device != "" {
		return a.device, nil
	}

	devices, err := a.source.ListDevices(ctx, a.cfg.User)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", apperr.Configuration("recorder.device", "no devices recorded for user %q", a.cfg.User)
	}
	a.device = devices[0]
	a.log.Info().Str("user", a.cfg.User).Str("device", a.device).Msg("detected device")
	return a.device, nil
}

// CacheScope is the cache scope of the agent's user and device
func (a *LocationAgent) CacheScope(ctx context.Context) (string, error) {
	device, err := a.Device(ctx)
	if err != nil {
		return "", err
	}
	return cache.Scope(a.cfg.User, device), nil
}

// ParseDate parses a YYYY-MM-DD date as midnight in the analysis zone
func (a *LocationAgent) ParseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), a.cfg.Location)
	if err != nil {
		return time.Time{}, apperr.Validation(field, value, "expected YYYY-MM-DD")
	}
	return d, nil
}

// Today returns midnight of the current day in the analysis zone
func (a *LocationAgent) Today() time.Time {
	now := a.cfg.Now().In(a.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.cfg.Location)
}

// FixesForRange returns the fixes with from <= day < to, cache first
func (a *LocationAgent) FixesForRange(ctx context.Context, from, to time.Time) ([]models.LocationFix, error) {
	device, err := a.Device(ctx)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if fixes, ok := a.cache.GetFixes(ctx, a.cfg.User, device, from, to); ok {
			return fixes, nil
		}
	}

	fixes, err := a.source.Locations(ctx, a.cfg.User, device, from, to)
	if err != nil {
		return nil, err
	}
	fixes = models.SortFixes(fixes)
	if a.cache != nil {
		if err := a.cache.PutFixes(ctx, a.cfg.User, device, from, to, fixes); err != nil {
			a.log.Warn().Err(err).Str("from", from.Format(dateLayout)).Msg("failed to cache fixes")
		}
	}
	return fixes, nil
}

// FixesForDay returns the fixes of one calendar day. The source's end date is
// exclusive, so the window ends at the next midnight.
func (a *LocationAgent) FixesForDay(ctx context.Context, date time.Time) ([]models.LocationFix, error) {
	return a.FixesForRange(ctx, date, date.AddDate(0, 0, 1))
}

// soft turns upstream failures into unsuccessful results and passes every
// other error through
func soft[T any](err error) (models.Result[T], error) {
	if apperr.IsUpstream(err) {
		return models.Fail[T](err), nil
	}
	return models.Result[T]{}, err
}

// PlaceVisit is a dwell at a known location
type PlaceVisit struct {
	Location string    `json:"location"`
	Category string    `json:"category"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Hours    float64   `json:"hours"`
}

// Whereabouts answers "where was I"
type Whereabouts struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`

	// set when a time was asked for
	Fix           *models.LocationFix   `json:"fix,omitempty"`
	OffsetMinutes float64               `json:"offset_minutes,omitempty"`
	Location      *models.KnownLocation `json:"location,omitempty"`
	Regime        string                `json:"regime,omitempty"`

	// set for a whole day
	Visits   []PlaceVisit        `json:"visits,omitempty"`
	FirstFix *models.LocationFix `json:"first_fix,omitempty"`
	LastFix  *models.LocationFix `json:"last_fix,omitempty"`
	FixCount int                 `json:"fix_count"`
}

// WhereWasI reports the position at clock (HH:MM) on date, or the day's
// visits to known locations when clock is empty
func (a *LocationAgent) WhereWasI(ctx context.Context, date, clock string) (models.Result[Whereabouts], error) {
	day, err := a.ParseDate("date", date)
	if err != nil {
		return models.Result[Whereabouts]{}, err
	}
	var at time.Time
	if clock != "" {
		c, err := time.Parse(clockLayout, strings.TrimSpace(clock))
		if err != nil {
			return models.Result[Whereabouts]{}, apperr.Validation("time", clock, "expected HH:MM")
		}
		at = time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, a.cfg.Location)
	}

	fixes, err := a.FixesForDay(ctx, day)
	if err != nil {
		return soft[Whereabouts](err)
	}
	w := Whereabouts{Date: day.Format(dateLayout), Time: clock, FixCount: len(fixes)}
	if len(fixes) == 0 {
		return models.Empty(w), nil
	}

	if clock != "" {
		fix, delta, ok := pattern.FindLocationAtTime(fixes, at, a.cfg.LookupTolerance)
		if !ok {
			return models.Empty(w), nil
		}
		ctxFix := a.registry.Classify(fix)
		w.Fix = &fix
		w.OffsetMinutes = roundTo(delta.Minutes(), 1)
		w.Location = ctxFix.Location
		w.Regime = ctxFix.Regime.String()
		return models.OK(w), nil
	}

	first, last := fixes[0], fixes[len(fixes)-1]
	w.FirstFix, w.LastFix = &first, &last
	aday := analysis.Day{Date: day, Location: a.cfg.Location, Registry: a.registry}
	w.Visits = []PlaceVisit{}
	for _, s := range behavior.NewVisitAnalyzer().Analyze(aday, fixes) {
		w.Visits = append(w.Visits, PlaceVisit{
			Location: s.LocationName,
			Category: s.Details.Visit.Category,
			Start:    s.StartTime,
			End:      s.EndTime,
			Hours:    s.DurationHours,
		})
	}
	return models.OK(w), nil
}

// DayHours is the dwell time of one day
type DayHours struct {
	Date   string  `json:"date"`
	Hours  float64 `json:"hours"`
	Visits int     `json:"visits"`
}

// TimeAtLocationReport is the dwell time at a place over a date range
type TimeAtLocationReport struct {
	Location   string     `json:"location"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	RadiusM    float64    `json:"radius_m"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	TotalHours float64    `json:"total_hours"`
	VisitCount int        `json:"visit_count"`
	Days       []DayHours `json:"days"`
}

// AnalyzeTimeAtLocation measures the time spent at target between two dates
// (inclusive). target is a known location name or id, or "lat,lon". A zero
// radius uses the known location's radius, or the frequent-location radius
// for coordinates.
func (a *LocationAgent) AnalyzeTimeAtLocation(ctx context.Context, target, startDate, endDate string, radiusM float64) (models.Result[TimeAtLocationReport], error) {
	name, lat, lon, radius, err := a.resolveTarget(target)
	if err != nil {
		return models.Result[TimeAtLocationReport]{}, err
	}
	if radiusM < 0 {
		return models.Result[TimeAtLocationReport]{}, apperr.Validation("radius", strconv.FormatFloat(radiusM, 'f', -1, 64), "must not be negative")
	}
	if radiusM > 0 {
		radius = radiusM
	}
	start, end, err := a.dateRange(startDate, endDate)
	if err != nil {
		return models.Result[TimeAtLocationReport]{}, err
	}

	fixes, err := a.FixesForRange(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		return soft[TimeAtLocationReport](err)
	}

	report := TimeAtLocationReport{
		Location:  name,
		Lat:       lat,
		Lon:       lon,
		RadiusM:   radius,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		Days:      []DayHours{},
	}
	if len(fixes) == 0 {
		return models.Empty(report), nil
	}

	var total time.Duration
	for _, d := range splitDays(fixes, start, end.AddDate(0, 0, 1), a.cfg.Location) {
		r := pattern.TimeAtLocation(d.Fixes, lat, lon, radius, a.cfg.Pattern.MinVisit)
		total += r.TotalDuration
		report.VisitCount += r.VisitCount
		report.Days = append(report.Days, DayHours{
			Date:   d.Date.Format(dateLayout),
			Hours:  r.TotalHours,
			Visits: r.VisitCount,
		})
	}
	report.TotalHours = models.DurationHours(total)
	return models.OK(report), nil
}

// AnalyzeCommutePattern classifies the last days weekdays, ending yesterday,
// as office, home or other days
func (a *LocationAgent) AnalyzeCommutePattern(ctx context.Context, days int) (models.Result[pattern.CommutePattern], error) {
	if days < 1 || days > maxRangeDays {
		return models.Result[pattern.CommutePattern]{}, apperr.Validation("days", strconv.Itoa(days), "must be between 1 and %d", maxRangeDays)
	}
	home, okHome := a.registry.First(models.CategoryHome)
	work, okWork := a.registry.First(models.CategoryWork)
	if !okHome || !okWork {
		return models.Result[pattern.CommutePattern]{}, apperr.Configuration("locations.catalogue", "home and work locations are required for commute analysis")
	}

	end := a.Today()
	start := end.AddDate(0, 0, -days)
	fixes, err := a.FixesForRange(ctx, start, end)
	if err != nil {
		return soft[pattern.CommutePattern](err)
	}

	cp := pattern.DetectCommutePattern(splitDays(fixes, start, end, a.cfg.Location), &home, &work, a.cfg.Pattern)
	if len(fixes) == 0 {
		return models.Empty(cp), nil
	}
	return models.OK(cp), nil
}

// GetFrequentLocations clusters the last days of fixes, today included, and
// names the clusters that fall inside known locations
func (a *LocationAgent) GetFrequentLocations(ctx context.Context, days, minVisits int) (models.Result[[]pattern.FrequentLocation], error) {
	if days < 1 || days > maxRangeDays {
		return models.Result[[]pattern.FrequentLocation]{}, apperr.Validation("days", strconv.Itoa(days), "must be between 1 and %d", maxRangeDays)
	}
	if minVisits < 1 {
		return models.Result[[]pattern.FrequentLocation]{}, apperr.Validation("min_visits", strconv.Itoa(minVisits), "must be at least 1")
	}

	end := a.Today().AddDate(0, 0, 1)
	fixes, err := a.FixesForRange(ctx, end.AddDate(0, 0, -days), end)
	if err != nil {
		return soft[[]pattern.FrequentLocation](err)
	}

	found := pattern.IdentifyFrequentLocations(fixes, minVisits, a.cfg.FrequentRadiusM)
	for i := range found {
		if loc := a.registry.Resolve(found[i].Lat, found[i].Lon); loc != nil {
			found[i].Name = loc.Name
		}
	}
	if len(fixes) == 0 {
		return models.Empty(found), nil
	}
	return models.OK(found), nil
}

// CurrentLocation is the latest known position
type CurrentLocation struct {
	Fix        models.LocationFix    `json:"fix"`
	Location   *models.KnownLocation `json:"location,omitempty"`
	Regime     string                `json:"regime"`
	Geohash    string                `json:"geohash"`
	AgeMinutes float64               `json:"age_minutes"`
}

// GetCurrentLocation returns the most recent fix, resolved against the registry
func (a *LocationAgent) GetCurrentLocation(ctx context.Context) (models.Result[CurrentLocation], error) {
	device, err := a.Device(ctx)
	if err != nil {
		return soft[CurrentLocation](err)
	}
	fix, err := a.source.Last(ctx, a.cfg.User, device)
	if err != nil {
		return soft[CurrentLocation](err)
	}
	if fix == nil {
		return models.Empty(CurrentLocation{}), nil
	}

	fc := a.registry.Classify(*fix)
	return models.OK(CurrentLocation{
		Fix:        *fix,
		Location:   fc.Location,
		Regime:     fc.Regime.String(),
		Geohash:    spatial.EncodeGeohash(fix.Lat, fix.Lon, spatial.GeohashPrecisionCluster),
		AgeMinutes: roundTo(a.cfg.Now().Sub(fix.Timestamp).Minutes(), 1),
	}), nil
}

func (a *LocationAgent) resolveTarget(target string) (name string, lat, lon, radius float64, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", 0, 0, 0, apperr.Validation("location", target, "is required")
	}
	if parts := strings.Split(target, ","); len(parts) == 2 {
		la, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lo, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLat != nil || errLon != nil || la < -90 || la > 90 || lo < -180 || lo > 180 {
			return "", 0, 0, 0, apperr.Validation("location", target, "expected lat,lon in degrees")
		}
		return target, la, lo, a.cfg.FrequentRadiusM, nil
	}
	loc, ok := a.registry.Find(target)
	if !ok {
		return "", 0, 0, 0, apperr.Validation("location", target, "unknown location")
	}
	return loc.Name, loc.Lat, loc.Lon, loc.RadiusM, nil
}

func (a *LocationAgent) dateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := a.ParseDate("start_date", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := a.ParseDate("end_date", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation("end_date", endDate, "is before start_date")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, apperr.Validation("end_date", endDate, "range exceeds %d days", maxRangeDays)
	}
	return start, end, nil
}

// splitDays buckets sorted fixes by local calendar day over [from, to)
func splitDays(fixes []models.LocationFix, from, to time.Time, loc *time.Location) []pattern.DayFixes {
	var days []pattern.DayFixes
	i := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		next := d.AddDate(0, 0, 1)
		day := pattern.DayFixes{Date: d.In(loc)}
		for i < len(fixes) && fixes[i].Timestamp.Before(next) {
			if !fixes[i].Timestamp.Before(d) {
				day.Fixes = append(day.Fixes, fixes[i])
			}
			i++
		}
		days = append(days, day)
	}
	return days
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
