package pattern

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis/analysistest"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

var (
	homePoint   = spatial.Point{Lat: 51.5, Lon: -0.1}
	officePoint = func() spatial.Point {
		lat, lon := spatial.DestinationPoint(homePoint.Lat, homePoint.Lon, 90, 2000)
		return spatial.Point{Lat: lat, Lon: lon}
	}()
	home   = analysistest.Location("home", models.CategoryHome, homePoint.Lat, homePoint.Lon, 100)
	office = analysistest.Location("office", models.CategoryWork, officePoint.Lat, officePoint.Lon, 100)
)

func londonOptions() Options {
	opts := DefaultOptions()
	opts.Location = analysistest.London
	return opts
}

func TestTimeAtLocationVisits(t *testing.T) {
	fixes := analysistest.Workday(analysistest.At(2024, 6, 4, 0, 0), homePoint, officePoint)

	got := TimeAt(fixes, home, 5*time.Minute)
	if got.VisitCount != 2 {
		t.Fatalf("VisitCount = %d, want 2", got.VisitCount)
	}
	if got.TotalHours != 3 {
		t.Errorf("TotalHours = %v, want 3", got.TotalHours)
	}
	// the evening visit is still open at the last fix
	last := got.Visits[1]
	if !last.End.Equal(fixes[len(fixes)-1].Timestamp) {
		t.Errorf("open visit ended at %v, want the last fix", last.End)
	}
}

func TestTimeAtLocationDropsShortVisits(t *testing.T) {
	fixes := analysistest.NewTrack(analysistest.At(2024, 6, 4, 9, 0), homePoint.Lat, homePoint.Lon).
		Fix(0).
		Stay(3*time.Minute, time.Minute).
		Move(0, 5, 10*time.Minute, time.Minute).
		Fixes()

	if got := TimeAt(fixes, home, 5*time.Minute); got.VisitCount != 0 || got.TotalDuration != 0 {
		t.Errorf("got %+v, want no visits", got)
	}
	if got := TimeAt(fixes, home, 0); got.VisitCount != 1 {
		t.Errorf("VisitCount without a floor = %d, want 1", got.VisitCount)
	}
}

func TestTimeAtLocationBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	start := analysistest.At(2024, 6, 4, 0, 0)
	for trial := range 50 {
		n := 1 + rng.Intn(200)
		fixes := make([]models.LocationFix, n)
		for i := range fixes {
			fixes[i] = models.LocationFix{
				Timestamp: start.Add(time.Duration(rng.Intn(86400)) * time.Second),
				Lat:       homePoint.Lat + (rng.Float64()-0.5)*0.004,
				Lon:       homePoint.Lon + (rng.Float64()-0.5)*0.004,
			}
		}
		sorted := models.SortFixes(fixes)
		span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)

		got := TimeAtLocation(fixes, homePoint.Lat, homePoint.Lon, 100, 0)
		if got.TotalDuration > span {
			t.Fatalf("trial %d: total %v exceeds span %v", trial, got.TotalDuration, span)
		}
	}
}

func TestIdentifyFrequentLocations(t *testing.T) {
	var fixes []models.LocationFix
	for d := range 5 {
		fixes = append(fixes, analysistest.Workday(analysistest.At(2024, 6, 3+d, 0, 0), homePoint, officePoint)...)
	}

	got := IdentifyFrequentLocations(fixes, 5, 150)
	// the walks towards the station also recur daily, but with few fixes
	if len(got) < 2 {
		t.Fatalf("got %d frequent locations, want at least home and office", len(got))
	}
	if got[0].VisitCount != 10 || spatial.Distance(spatial.Point{Lat: got[0].Lat, Lon: got[0].Lon}, homePoint) > 10 {
		t.Errorf("first cluster = %+v, want home with 10 visits", got[0])
	}
	if got[1].VisitCount != 5 || math.Abs(got[1].Hours-45) > 0.1 {
		t.Errorf("second cluster = %+v, want office with 5 visits and about 45h", got[1])
	}
	if len(got[0].Geohash) != spatial.GeohashPrecisionCluster {
		t.Errorf("geohash %q has wrong precision", got[0].Geohash)
	}
}

func TestIdentifyFrequentLocationsEmpty(t *testing.T) {
	if got := IdentifyFrequentLocations(nil, 1, 100); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestAnalyzeDailyPatternWorkday(t *testing.T) {
	date := analysistest.At(2024, 6, 4, 0, 0)
	dp := AnalyzeDailyPattern(date, analysistest.Workday(date, homePoint, officePoint), &home, &office, londonOptions())

	if math.Abs(dp.OfficeHours-9) > 0.1 {
		t.Errorf("OfficeHours = %v, want about 9", dp.OfficeHours)
	}
	if dp.HomeHours != 3 {
		t.Errorf("HomeHours = %v, want 3", dp.HomeHours)
	}
	if dp.Classification != DayOffice {
		t.Errorf("Classification = %s, want office", dp.Classification)
	}
	span := dp.LastFix.Sub(*dp.FirstFix).Hours()
	if total := dp.HomeHours + dp.OfficeHours + dp.OtherHours; math.Abs(total-span) > 0.02 {
		t.Errorf("hours add up to %v, want %v", total, span)
	}
	if dp.LeftHome.Format("15:04") != "07:00" || dp.ArrivedOffice.Format("15:04") != "08:00" {
		t.Errorf("morning = %v -> %v", dp.LeftHome, dp.ArrivedOffice)
	}
	if dp.LeftOffice.Format("15:04") != "17:00" || dp.ArrivedHome.Format("15:04") != "17:45" {
		t.Errorf("evening = %v -> %v", dp.LeftOffice, dp.ArrivedHome)
	}
}

func TestAnalyzeDailyPatternNoData(t *testing.T) {
	dp := AnalyzeDailyPattern(analysistest.At(2024, 6, 4, 0, 0), nil, &home, &office, londonOptions())
	if !dp.NoData || dp.Classification != DayNoData {
		t.Errorf("got %+v, want no_data", dp)
	}
}

func TestDetectCommutePatternTwentyWeekdays(t *testing.T) {
	wfh := map[int]bool{4: true, 11: true, 18: true}
	var days []DayFixes
	for i := range 28 {
		date := analysistest.At(2024, 6, 3+i, 0, 0)
		var fixes []models.LocationFix
		switch {
		case date.Weekday() == time.Saturday || date.Weekday() == time.Sunday:
			fixes = analysistest.HomeDay(date, homePoint)
		case wfh[i]:
			fixes = analysistest.HomeDay(date, homePoint)
		default:
			fixes = analysistest.Workday(date, homePoint, officePoint)
		}
		days = append(days, DayFixes{Date: date, Fixes: fixes})
	}

	cp := DetectCommutePattern(days, &home, &office, londonOptions())
	if len(cp.Days) != 20 {
		t.Fatalf("classified %d days, want 20 weekdays", len(cp.Days))
	}
	if cp.OfficeDays != 17 || cp.HomeDays != 3 {
		t.Errorf("office/home = %d/%d, want 17/3", cp.OfficeDays, cp.HomeDays)
	}
	if cp.OfficeDays <= len(cp.Days)/2 {
		t.Error("majority of weekdays should be office days")
	}
	if cp.OfficeRatio != 0.85 {
		t.Errorf("OfficeRatio = %v, want 0.85", cp.OfficeRatio)
	}
	if cp.AverageArrival != "08:00" || cp.AverageDeparture != "17:00" {
		t.Errorf("average day = %s-%s, want 08:00-17:00", cp.AverageArrival, cp.AverageDeparture)
	}
}

func TestDetectCommutePatternMissingDays(t *testing.T) {
	days := []DayFixes{
		{Date: analysistest.At(2024, 6, 3, 0, 0)},
		{Date: analysistest.At(2024, 6, 4, 0, 0), Fixes: analysistest.Workday(analysistest.At(2024, 6, 4, 0, 0), homePoint, officePoint)},
	}
	cp := DetectCommutePattern(days, &home, &office, londonOptions())
	if cp.NoDataDays != 1 || cp.OfficeDays != 1 || cp.OfficeRatio != 1 {
		t.Errorf("got %+v", cp)
	}
}

func TestFindLocationAtTime(t *testing.T) {
	date := analysistest.At(2024, 6, 4, 0, 0)
	fixes := analysistest.Workday(date, homePoint, officePoint)

	f, delta, ok := FindLocationAtTime(fixes, analysistest.At(2024, 6, 4, 12, 4), 30*time.Minute)
	if !ok || delta != 4*time.Minute {
		t.Fatalf("got %v, %v, %v; want a fix 4 minutes away", f, delta, ok)
	}
	if !office.Contains(f) {
		t.Errorf("fix at noon should be at the office")
	}

	// no fixes between 07:05 and 08:00
	if _, _, ok := FindLocationAtTime(fixes, analysistest.At(2024, 6, 4, 7, 30), 20*time.Minute); ok {
		t.Error("want no fix within 20 minutes of 07:30")
	}
	if _, _, ok := FindLocationAtTime(fixes, analysistest.At(2024, 6, 4, 3, 0), time.Hour); ok {
		t.Error("want no fix three hours before the first one")
	}
	if _, _, ok := FindLocationAtTime(nil, date, time.Hour); ok {
		t.Error("want no fix in an empty list")
	}
}
