// Package locations loads known-location catalogues and resolves fixes
// against them.
//
// A Registry is an immutable value. Analyses receive it explicitly; loading a
// trip produces a new Registry whose trip-scoped entries take precedence over
// the global catalogue.
package locations

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

// Registry resolves fixes to known locations
type Registry struct {
	global []models.KnownLocation
	trip   []models.KnownLocation
	tripID string
}

// FixContext is what the registry knows about a single fix
type FixContext struct {
	Location *models.KnownLocation `json:"location,omitempty"`
	Regime   spatial.Regime        `json:"regime"`
}

// NewRegistry creates a registry over the global catalogue
func NewRegistry(global []models.KnownLocation) *Registry {
	return &Registry{global: slices.Clone(global)}
}

// WithTrip returns a registry that layers trip-scoped locations over r's
// global catalogue. r itself is unchanged.
func (r *Registry) WithTrip(tripID string, locs []models.KnownLocation) *Registry {
	if r == nil {
		r = &Registry{}
	}
	trip := make([]models.KnownLocation, len(locs))
	for i, l := range locs {
		l.TripID = tripID
		trip[i] = l
	}
	return &Registry{global: r.global, trip: trip, tripID: tripID}
}

// TripID returns the trip scope, empty for the global registry
func (r *Registry) TripID() string {
	if r == nil {
		return ""
	}
	return r.tripID
}

// Resolve returns the most specific known location whose geofence contains
// (lat, lon), or nil. Trip-scoped locations are considered before global
// ones; within a scope the smallest radius wins, then the nearest center.
func (r *Registry) Resolve(lat, lon float64) *models.KnownLocation {
	if r == nil {
		return nil
	}
	if loc := mostSpecific(r.trip, lat, lon); loc != nil {
		return loc
	}
	return mostSpecific(r.global, lat, lon)
}

func mostSpecific(locs []models.KnownLocation, lat, lon float64) *models.KnownLocation {
	var best *models.KnownLocation
	var bestDist float64
	for i := range locs {
		l := &locs[i]
		d := spatial.HaversineDistance(lat, lon, l.Lat, l.Lon)
		if d > l.RadiusM {
			continue
		}
		if best == nil || l.RadiusM < best.RadiusM ||
			(l.RadiusM == best.RadiusM && (d < bestDist || (d == bestDist && l.ID < best.ID))) {
			best, bestDist = l, d
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}

// Classify resolves a fix and classifies its velocity. Fixes outside every
// geofence carry only the regime.
func (r *Registry) Classify(f models.LocationFix) FixContext {
	return FixContext{
		Location: r.Resolve(f.Lat, f.Lon),
		Regime:   spatial.ClassifyVelocity(f.VelocityMPS),
	}
}

// All returns every location, trip entries first. A trip entry hides a
// global entry with the same id.
func (r *Registry) All() []models.KnownLocation {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.trip))
	out := make([]models.KnownLocation, 0, len(r.trip)+len(r.global))
	for _, l := range r.trip {
		seen[l.ID] = true
		out = append(out, l)
	}
	for _, l := range r.global {
		if !seen[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

// Fingerprint hashes the effective catalogue. It changes whenever an entry is
// added, removed, moved, resized, renamed or given a different allow-list.
func (r *Registry) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "trip=%s\n", r.TripID())
	for _, l := range r.All() {
		fmt.Fprintf(h, "%s|%s|%s|%.7f|%.7f|%.2f|%s|%v\n",
			l.TripID, l.ID, l.Name, l.Lat, l.Lon, l.RadiusM, l.Category, l.AllowedActivities)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Find looks a location up by id or name, case-insensitively
func (r *Registry) Find(nameOrID string) (models.KnownLocation, bool) {
	for _, l := range r.All() {
		if strings.EqualFold(l.ID, nameOrID) || strings.EqualFold(l.Name, nameOrID) {
			return l, true
		}
	}
	return models.KnownLocation{}, false
}

// ByCategory returns the locations of one category
func (r *Registry) ByCategory(category string) []models.KnownLocation {
	var out []models.KnownLocation
	for _, l := range r.All() {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

// First returns the first location of a category, e.g. home or work
func (r *Registry) First(category string) (models.KnownLocation, bool) {
	locs := r.ByCategory(category)
	if len(locs) == 0 {
		return models.KnownLocation{}, false
	}
	return locs[0], true
}

// ForActivity returns the locations whose allow-list contains t
func (r *Registry) ForActivity(t models.ActivityType) []models.KnownLocation {
	var out []models.KnownLocation
	for _, l := range r.All() {
		if l.Allows(t) {
			out = append(out, l)
		}
	}
	return out
}
