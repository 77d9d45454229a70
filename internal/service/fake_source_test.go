package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis/analysistest"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/cache"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

var (
	homePoint   = spatial.Point{Lat: 51.5, Lon: -0.1}
	officePoint = func() spatial.Point {
		lat, lon := spatial.DestinationPoint(homePoint.Lat, homePoint.Lon, 90, 2000)
		return spatial.Point{Lat: lat, Lon: lon}
	}()
)

// fakeSource serves fixes with the recorder's exclusive end date
type fakeSource struct {
	mu       sync.Mutex
	devices  []string
	fixes    []models.LocationFix
	err      error
	failFrom map[string]bool

	listCalls int
	locCalls  int
	windows   [][2]string
}

func (f *fakeSource) ListDevices(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, apperr.Upstream("list", f.err)
	}
	return f.devices, nil
}

func (f *fakeSource) Locations(_ context.Context, _, _ string, from, to time.Time) ([]models.LocationFix, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locCalls++
	f.windows = append(f.windows, [2]string{from.Format(dateLayout), to.Format(dateLayout)})
	if f.err != nil || f.failFrom[from.Format(dateLayout)] {
		return nil, apperr.Upstream("locations", errors.New("recorder unavailable"))
	}
	var out []models.LocationFix
	for _, fix := range f.fixes {
		if !fix.Timestamp.Before(from) && fix.Timestamp.Before(to) {
			out = append(out, fix)
		}
	}
	return out, nil
}

func (f *fakeSource) Last(_ context.Context, _, _ string) (*models.LocationFix, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, apperr.Upstream("last", f.err)
	}
	if len(f.fixes) == 0 {
		return nil, nil
	}
	last := f.fixes[len(f.fixes)-1]
	return &last, nil
}

func catalogue() []models.KnownLocation {
	return []models.KnownLocation{
		analysistest.Location("home", models.CategoryHome, homePoint.Lat, homePoint.Lon, 100),
		analysistest.Location("office", models.CategoryWork, officePoint.Lat, officePoint.Lon, 100),
	}
}

// workdays returns n consecutive workdays of fixes starting at date
func workdays(date time.Time, n int) []models.LocationFix {
	var fixes []models.LocationFix
	for i := range n {
		fixes = append(fixes, analysistest.Workday(date.AddDate(0, 0, i), homePoint, officePoint)...)
	}
	return fixes
}

type agentFixture struct {
	source *fakeSource
	agent  *LocationAgent
	cache  *cache.LocationCache
}

func newAgent(t *testing.T, fixes []models.LocationFix, locs []models.KnownLocation) agentFixture {
	t.Helper()
	now := func() time.Time { return analysistest.At(2024, 7, 1, 12, 0) }
	src := &fakeSource{devices: []string{"phone", "watch"}, fixes: fixes}
	c := cache.New(cache.NewMemoryStore(), cache.Options{
		TTL:           time.Hour,
		HistoricalTTL: 24 * time.Hour,
		Location:      analysistest.London,
		Now:           now,
	})
	agent := NewLocationAgent(src, c, locations.NewRegistry(locs), AgentConfig{
		User:     "me",
		Location: analysistest.London,
		Now:      now,
	})
	return agentFixture{source: src, agent: agent, cache: c}
}
