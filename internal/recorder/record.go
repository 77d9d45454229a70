package recorder

import (
	"time"

	"github.com/jengzang/records-activity-go/internal/metrics"
	"github.com/jengzang/records-activity-go/internal/models"
)

// record is one location as the recorder serves it. vel is in m/s.
type record struct {
	Type string   `json:"_type"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Tst  *int64   `json:"tst"`
	Vel  *float64 `json:"vel"`
	Alt  *float64 `json:"alt"`
	Acc  *float64 `json:"acc"`
}

func (r *record) toFix() (models.LocationFix, bool) {
	if r == nil || r.Lat == nil || r.Lon == nil || r.Tst == nil || *r.Tst <= 0 {
		return models.LocationFix{}, false
	}
	if r.Type != "" && r.Type != "location" {
		return models.LocationFix{}, false
	}

	fix := models.LocationFix{
		Timestamp: time.Unix(*r.Tst, 0).UTC(),
		Lat:       *r.Lat,
		Lon:       *r.Lon,
		AltitudeM: r.Alt,
		AccuracyM: r.Acc,
	}
	if r.Vel != nil && *r.Vel > 0 {
		fix.VelocityMPS = *r.Vel
	}
	return fix, fix.Valid()
}

// decodeRecords converts records to sorted fixes, skipping malformed ones
func decodeRecords(recs []*record) []models.LocationFix {
	fixes := make([]models.LocationFix, 0, len(recs))
	for _, r := range recs {
		fix, ok := r.toFix()
		if !ok {
			metrics.FixesSkipped.Inc()
			continue
		}
		fixes = append(fixes, fix)
	}
	return models.SortFixes(fixes)
}
