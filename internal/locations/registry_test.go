package locations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const catalogueJSON = `{
  "home": {"home": {"name": "Home", "lat": 51.5000, "lon": -0.1000, "radius": 100}},
  "work": {"office": {"name": "Office", "lat": 51.5200, "lon": -0.0800, "radius": 150}},
  "fitness": {
    "park": {"name": "Victoria Park", "lat": 51.5360, "lon": -0.0380, "radius": 800},
    "gym": {"name": "Gym", "lat": 51.5362, "lon": -0.0382, "radius": 50}
  },
  "golf": {"royal": {"name": "Royal Golf Club", "lat": 51.4000, "lon": -0.3000, "radius": 600}}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalogueJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "known.json", catalogueJSON)

	locs, err := LoadCatalogue(path)
	if err != nil {
		t.Fatalf("LoadCatalogue() error = %v", err)
	}
	if len(locs) != 5 {
		t.Fatalf("got %d locations, want 5", len(locs))
	}
	// sorted by category then key
	if locs[0].Category != "fitness" || locs[0].ID != "gym" {
		t.Errorf("first location = %s/%s, want fitness/gym", locs[0].Category, locs[0].ID)
	}
	golf, ok := NewRegistry(locs).Find("royal golf club")
	if !ok {
		t.Fatal("Find by name failed")
	}
	if !golf.Allows(models.ActivityGolf) || golf.Allows(models.ActivityVisit) {
		t.Errorf("golf allow-list = %v", golf.AllowedActivities)
	}
}

func TestLoadCatalogueYAML(t *testing.T) {
	content := `
airport:
  lhr:
    name: Heathrow
    lat: 51.47
    lon: -0.4543
    radius: 3000
family:
  mum:
    lat: 52.2
    lon: 0.12
    activities: [visit, dog_walk]
`
	path := writeFile(t, t.TempDir(), "known.yaml", content)
	locs, err := LoadCatalogue(path)
	if err != nil {
		t.Fatalf("LoadCatalogue() error = %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	mum := locs[1]
	if mum.Name != "mum" || mum.RadiusM != DefaultRadiusM || !mum.Allows(models.ActivityDogWalk) {
		t.Errorf("unexpected defaults: %+v", mum)
	}
}

func TestLoadCatalogueInvalidEntry(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"home": {"home": {"name": "Home", "lon": 0}}}`)
	_, err := LoadCatalogue(path)
	ve, ok := err.(*apperr.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Field != "home.home.lat" {
		t.Errorf("Field = %q, want home.home.lat", ve.Field)
	}
}

func TestResolvePrefersSmallestRadius(t *testing.T) {
	locs, err := ParseCatalogue([]byte(catalogueJSON), "json", "")
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(locs)

	// inside both the park (800 m) and the gym (50 m)
	got := reg.Resolve(51.5361, -0.0381)
	if got == nil || got.ID != "gym" {
		t.Fatalf("Resolve = %v, want gym", got)
	}

	// inside the park only
	lat, lon := spatial.DestinationPoint(51.5360, -0.0380, 180, 400)
	if got := reg.Resolve(lat, lon); got == nil || got.ID != "park" {
		t.Errorf("Resolve = %v, want park", got)
	}

	// nowhere known
	if got := reg.Resolve(0, 0); got != nil {
		t.Errorf("Resolve(0,0) = %v, want nil", got)
	}
}

func TestTripScopeTakesPrecedence(t *testing.T) {
	global := []models.KnownLocation{
		{ID: "cafe", Name: "Cafe", Lat: 46.0, Lon: 7.0, RadiusM: 50, Category: "fitness"},
	}
	trip := []models.KnownLocation{
		{ID: "chalet", Name: "Chalet", Lat: 46.0, Lon: 7.0, RadiusM: 500, Category: "home"},
	}

	base := NewRegistry(global)
	scoped := base.WithTrip("alps-2024", trip)

	if got := scoped.Resolve(46.0, 7.0); got == nil || got.ID != "chalet" || got.TripID != "alps-2024" {
		t.Errorf("scoped Resolve = %+v, want trip chalet", got)
	}
	if got := base.Resolve(46.0, 7.0); got == nil || got.ID != "cafe" {
		t.Errorf("base registry must be unchanged, Resolve = %+v", got)
	}
	if home, ok := scoped.First(models.CategoryHome); !ok || home.ID != "chalet" {
		t.Errorf("First(home) = %+v, %v", home, ok)
	}
}

func TestFingerprint(t *testing.T) {
	office := models.KnownLocation{ID: "office", Name: "Office", Lat: 51.52, Lon: -0.08, RadiusM: 150, Category: models.CategoryWork}
	base := NewRegistry([]models.KnownLocation{office})

	moved := office
	moved.Lat += 0.001
	resized := office
	resized.RadiusM = 60
	renamed := office
	renamed.Name = "Cowork"
	extra := models.KnownLocation{ID: "cowork", Name: "Cowork", Lat: 51.52, Lon: -0.08, RadiusM: 60, Category: models.CategoryWork}

	tests := []struct {
		name string
		reg  *Registry
		same bool
	}{
		{"same contents", NewRegistry([]models.KnownLocation{office}), true},
		{"moved", NewRegistry([]models.KnownLocation{moved}), false},
		{"resized", NewRegistry([]models.KnownLocation{resized}), false},
		{"renamed", NewRegistry([]models.KnownLocation{renamed}), false},
		{"empty trip", base.WithTrip("london", nil), false},
		{"trip entry added", base.WithTrip("london", []models.KnownLocation{extra}), false},
	}
	want := base.Fingerprint()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reg.Fingerprint() == want; got != tt.same {
				t.Errorf("fingerprint equal = %v, want %v", got, tt.same)
			}
		})
	}
	if base.WithTrip("london", nil).Fingerprint() == base.WithTrip("london", []models.KnownLocation{extra}).Fingerprint() {
		t.Error("adding a trip entry must change the fingerprint")
	}
}

func TestLoadTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ski.yaml", "ski_resort:\n  verbier:\n    name: Verbier\n    lat: 46.1\n    lon: 7.23\n    radius: 5000\n")

	locs, err := LoadTrip(dir, "ski")
	if err != nil {
		t.Fatalf("LoadTrip() error = %v", err)
	}
	if len(locs) != 1 || locs[0].TripID != "ski" || !locs[0].Allows(models.ActivitySnowboarding) {
		t.Errorf("unexpected trip locations %+v", locs)
	}

	locs, err = LoadTrip(dir, "missing")
	if err != nil || locs != nil {
		t.Errorf("missing trip = %v, %v; want nil, nil", locs, err)
	}

	if _, err := LoadTrip(dir, "../etc"); !apperr.IsValidation(err) {
		t.Errorf("path traversal should be a validation error, got %v", err)
	}
}

func TestClassifyFallsThroughToVelocity(t *testing.T) {
	reg := NewRegistry(nil)
	ctx := reg.Classify(models.LocationFix{Lat: 10, Lon: 10, VelocityMPS: 12})
	if ctx.Location != nil || ctx.Regime != spatial.RegimeDriving {
		t.Errorf("Classify = %+v", ctx)
	}
}
