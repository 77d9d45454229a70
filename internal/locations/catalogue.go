package locations

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/models"
)

// entry is one named place in a catalogue document
type entry struct {
	Name       string   `json:"name" yaml:"name"`
	Lat        *float64 `json:"lat" yaml:"lat"`
	Lon        *float64 `json:"lon" yaml:"lon"`
	Radius     float64  `json:"radius" yaml:"radius"`
	Activities []string `json:"activities,omitempty" yaml:"activities,omitempty"`
}

// document is keyed by category, then by entry key
type document map[string]map[string]entry

// DefaultRadiusM applies to entries without a radius
const DefaultRadiusM = 100.0

// LoadCatalogue reads a known-location catalogue. The format follows the
// file extension: .yaml/.yml is YAML, anything else JSON.
func LoadCatalogue(path string) ([]models.KnownLocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue %s: %w", path, err)
	}
	return ParseCatalogue(data, formatOf(path), "")
}

// LoadTrip reads <dir>/<tripID>.{json,yaml,yml}. A trip without a catalogue
// file has no trip-scoped locations and is not an error.
func LoadTrip(dir, tripID string) ([]models.KnownLocation, error) {
	if tripID == "" {
		return nil, nil
	}
	if strings.ContainsAny(tripID, `/\`) || strings.Contains(tripID, "..") {
		return nil, apperr.Validation("trip_id", tripID, "must be a plain identifier")
	}

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, tripID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trip catalogue %s: %w", path, err)
		}
		return ParseCatalogue(data, formatOf(path), tripID)
	}
	return nil, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// ParseCatalogue decodes a catalogue document. Entries are returned sorted by
// category then key so that every load yields the same order.
func ParseCatalogue(data []byte, format, tripID string) ([]models.KnownLocation, error) {
	var doc document
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, apperr.Validation("catalogue", "", "failed to decode %s: %v", format, err)
	}

	categories := make([]string, 0, len(doc))
	for c := range doc {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var out []models.KnownLocation
	for _, category := range categories {
		keys := make([]string, 0, len(doc[category]))
		for k := range doc[category] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			loc, err := toLocation(category, key, doc[category][key])
			if err != nil {
				return nil, err
			}
			loc.TripID = tripID
			out = append(out, loc)
		}
	}
	return out, nil
}

func toLocation(category, key string, e entry) (models.KnownLocation, error) {
	field := category + "." + key
	if e.Lat == nil || math.IsNaN(*e.Lat) || *e.Lat < -90 || *e.Lat > 90 {
		return models.KnownLocation{}, apperr.Validation(field+".lat", "", "latitude missing or out of range")
	}
	if e.Lon == nil || math.IsNaN(*e.Lon) || *e.Lon < -180 || *e.Lon > 180 {
		return models.KnownLocation{}, apperr.Validation(field+".lon", "", "longitude missing or out of range")
	}
	if e.Radius < 0 {
		return models.KnownLocation{}, apperr.Validation(field+".radius", fmt.Sprint(e.Radius), "must not be negative")
	}

	radius := e.Radius
	if radius == 0 {
		radius = DefaultRadiusM
	}
	name := e.Name
	if name == "" {
		name = key
	}

	allowed := models.DefaultActivities(category)
	if len(e.Activities) > 0 {
		allowed = make([]models.ActivityType, 0, len(e.Activities))
		for _, a := range e.Activities {
			allowed = append(allowed, models.ActivityType(strings.ToLower(a)))
		}
	}

	return models.KnownLocation{
		ID:                key,
		Name:              name,
		Lat:               *e.Lat,
		Lon:               *e.Lon,
		RadiusM:           radius,
		Category:          category,
		AllowedActivities: allowed,
	}, nil
}
