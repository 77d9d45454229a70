package pattern

import (
	"fmt"
	"math"
	"time"

	"github.com/jengzang/records-activity-go/internal/models"
)

// DayFixes is one calendar day of fixes. Date is midnight in the analysis zone.
type DayFixes struct {
	Date  time.Time
	Fixes []models.LocationFix
}

// CommutePattern summarizes office attendance over a window of days
type CommutePattern struct {
	Days             []DailyPattern `json:"days"`
	OfficeDays       int            `json:"office_days"`
	HomeDays         int            `json:"home_days"`
	OtherDays        int            `json:"other_days"`
	NoDataDays       int            `json:"no_data_days"`
	OfficeRatio      float64        `json:"office_ratio"`
	AverageArrival   string         `json:"average_arrival,omitempty"`
	AverageDeparture string         `json:"average_departure,omitempty"`
	Summary          string         `json:"summary"`
}

// DetectCommutePattern classifies every weekday in days and aggregates the
// counts. Weekends are skipped unless opts.IncludeWeekends is set. The office
// ratio is taken over days that have data.
func DetectCommutePattern(days []DayFixes, home, work *models.KnownLocation, opts Options) CommutePattern {
	cp := CommutePattern{Days: []DailyPattern{}}
	var arrivals, departures []time.Time

	for _, d := range days {
		date := d.Date.In(opts.zone())
		if !opts.IncludeWeekends && (date.Weekday() == time.Saturday || date.Weekday() == time.Sunday) {
			continue
		}
		dp := AnalyzeDailyPattern(date, d.Fixes, home, work, opts)
		cp.Days = append(cp.Days, dp)

		switch dp.Classification {
		case DayOffice:
			cp.OfficeDays++
			if dp.ArrivedOffice != nil {
				arrivals = append(arrivals, *dp.ArrivedOffice)
			}
			if dp.LeftOffice != nil {
				departures = append(departures, *dp.LeftOffice)
			}
		case DayHome:
			cp.HomeDays++
		case DayOther:
			cp.OtherDays++
		default:
			cp.NoDataDays++
		}
	}

	withData := cp.OfficeDays + cp.HomeDays + cp.OtherDays
	if withData > 0 {
		cp.OfficeRatio = math.Round(float64(cp.OfficeDays)/float64(withData)*100) / 100
	}
	cp.AverageArrival = averageClock(arrivals)
	cp.AverageDeparture = averageClock(departures)
	cp.Summary = cp.summary()
	return cp
}

// averageClock averages wall-clock times of day as HH:MM
func averageClock(ts []time.Time) string {
	if len(ts) == 0 {
		return ""
	}
	var sum int
	for _, t := range ts {
		sum += t.Hour()*60 + t.Minute()
	}
	avg := int(math.Round(float64(sum) / float64(len(ts))))
	return fmt.Sprintf("%02d:%02d", avg/60, avg%60)
}

func (cp CommutePattern) summary() string {
	total := len(cp.Days)
	if total == 0 || total == cp.NoDataDays {
		return "No location data"
	}
	s := fmt.Sprintf("%d office, %d home, %d other of %d days (%.0f%% in office)",
		cp.OfficeDays, cp.HomeDays, cp.OtherDays, total, cp.OfficeRatio*100)
	if cp.NoDataDays > 0 {
		s += fmt.Sprintf(", %d without data", cp.NoDataDays)
	}
	if cp.AverageArrival != "" {
		s += fmt.Sprintf("; usually at the office %s-%s", cp.AverageArrival, cp.AverageDeparture)
	}
	return s
}
