package pattern

import (
	"fmt"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
)

// Day classifications
const (
	DayOffice = "office"
	DayHome   = "home"
	DayOther  = "other"
	DayNoData = "no_data"
)

// Options tunes the daily and commute pattern analyses
type Options struct {
	// Location is the zone clock times are reported in
	Location *time.Location

	// OfficeHoursThreshold and HomeHoursThreshold are the dwell hours that make
	// a day an office day or a home day
	OfficeHoursThreshold float64
	HomeHoursThreshold   float64

	// MinVisit drops dwells shorter than this
	MinVisit time.Duration

	IncludeWeekends bool
}

// DefaultOptions returns the thresholds used when none are configured
func DefaultOptions() Options {
	return Options{
		Location:             time.UTC,
		OfficeHoursThreshold: 4,
		HomeHoursThreshold:   6,
		MinVisit:             5 * time.Minute,
	}
}

func (o Options) zone() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// DailyPattern is how one day split between home, office and elsewhere
type DailyPattern struct {
	Date           string     `json:"date"`
	Weekday        string     `json:"weekday"`
	Classification string     `json:"classification"`
	HomeHours      float64    `json:"home_hours"`
	OfficeHours    float64    `json:"office_hours"`
	OtherHours     float64    `json:"other_hours"`
	FixCount       int        `json:"fix_count"`
	FirstFix       *time.Time `json:"first_fix,omitempty"`
	LastFix        *time.Time `json:"last_fix,omitempty"`
	LeftHome       *time.Time `json:"left_home,omitempty"`
	ArrivedOffice  *time.Time `json:"arrived_office,omitempty"`
	LeftOffice     *time.Time `json:"left_office,omitempty"`
	ArrivedHome    *time.Time `json:"arrived_home,omitempty"`
	NoData         bool       `json:"no_data"`
}

// AnalyzeDailyPattern measures dwell time at home and work on date. Either
// location may be nil. A day without fixes is classified as no_data.
func AnalyzeDailyPattern(date time.Time, fixes []models.LocationFix, home, work *models.KnownLocation, opts Options) DailyPattern {
	loc := opts.zone()
	date = date.In(loc)
	dp := DailyPattern{
		Date:    date.Format("2006-01-02"),
		Weekday: date.Weekday().String(),
	}

	sorted := models.SortFixes(fixes)
	dp.FixCount = len(sorted)
	if len(sorted) == 0 {
		dp.NoData = true
		dp.Classification = DayNoData
		return dp
	}
	first, last := sorted[0].Timestamp.In(loc), sorted[len(sorted)-1].Timestamp.In(loc)
	dp.FirstFix, dp.LastFix = &first, &last

	var homeVisits, officeVisits []Visit
	var homeTotal, officeTotal time.Duration
	if home != nil {
		r := TimeAt(sorted, *home, opts.MinVisit)
		homeVisits, homeTotal = r.Visits, r.TotalDuration
	}
	if work != nil {
		r := TimeAt(sorted, *work, opts.MinVisit)
		officeVisits, officeTotal = r.Visits, r.TotalDuration
	}
	// nested geofences count once, as office time
	if home != nil && work != nil {
		homeTotal = max(0, homeTotal-overlap(homeVisits, officeVisits))
	}

	dp.HomeHours = models.DurationHours(homeTotal)
	dp.OfficeHours = models.DurationHours(officeTotal)
	dp.OtherHours = models.DurationHours(max(0, last.Sub(first)-homeTotal-officeTotal))

	if len(officeVisits) > 0 {
		arrived := officeVisits[0].Start.In(loc)
		left := officeVisits[len(officeVisits)-1].End.In(loc)
		dp.ArrivedOffice, dp.LeftOffice = &arrived, &left
		for _, v := range homeVisits {
			if !v.End.After(arrived) {
				t := v.End.In(loc)
				dp.LeftHome = &t
			}
			if dp.ArrivedHome == nil && !v.Start.Before(left) {
				t := v.Start.In(loc)
				dp.ArrivedHome = &t
			}
		}
	}

	dp.Classification = Classify(dp, opts)
	return dp
}

// Classify labels a day from its dwell hours
func Classify(dp DailyPattern, opts Options) string {
	switch {
	case dp.NoData:
		return DayNoData
	case dp.OfficeHours >= opts.OfficeHoursThreshold:
		return DayOffice
	case dp.HomeHours >= opts.HomeHoursThreshold:
		return DayHome
	default:
		return DayOther
	}
}

func overlap(a, b []Visit) time.Duration {
	var total time.Duration
	for _, x := range a {
		for _, y := range b {
			start, end := x.Start, x.End
			if y.Start.After(start) {
				start = y.Start
			}
			if y.End.Before(end) {
				end = y.End
			}
			if end.After(start) {
				total += end.Sub(start)
			}
		}
	}
	return total
}

// String is a one-line summary of the day
func (dp DailyPattern) String() string {
	if dp.NoData {
		return fmt.Sprintf("%s: no location data", dp.Date)
	}
	return fmt.Sprintf("%s (%s): home %.1fh, office %.1fh, other %.1fh",
		dp.Date, dp.Classification, dp.HomeHours, dp.OfficeHours, dp.OtherHours)
}
