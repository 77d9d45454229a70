package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/records-activity-go/internal/models"
)

// sessionNamespace seeds deterministic session ids
var sessionNamespace = uuid.MustParse("6f1f0a52-7c1e-4b8e-9b4a-2d6c1c7e5a10")

// SessionSpec is what an analyzer decided about one candidate
type SessionSpec struct {
	Type         models.ActivityType
	Start        time.Time
	End          time.Time
	LocationName string
	LocationLat  float64
	LocationLon  float64
	Score        float64
	Factors      []models.FactorScore
	Details      models.Details
}

// NewSession builds a session in the day's zone. The id is derived from the type and
// the time interval, so rerunning an analysis yields the same ids.
func NewSession(day Day, ss SessionSpec) models.ActivitySession {
	details := ss.Details
	details.Type = ss.Type
	details.SourceDate = day.SourceDate()
	details.Factors = ss.Factors

	s := models.ActivitySession{
		ActivityType:    ss.Type,
		StartTime:       day.Local(ss.Start),
		EndTime:         day.Local(ss.End),
		LocationName:    ss.LocationName,
		LocationLat:     ss.LocationLat,
		LocationLon:     ss.LocationLon,
		ConfidenceScore: ss.Score,
		Confidence:      models.BucketConfidence(ss.Score),
		Details:         details,
	}
	finalize(&s)
	return s
}

func finalize(s *models.ActivitySession) {
	s.DurationHours = models.DurationHours(s.Duration())
	s.ID = sessionID(s.ActivityType, s.StartTime, s.EndTime, s.LocationName)
}

func sessionID(t models.ActivityType, start, end time.Time, location string) string {
	name := fmt.Sprintf("%s|%d|%d|%s", t, start.UnixNano(), end.UnixNano(), location)
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String()
}

// SortSessions orders sessions by start time, keeping the order of ties
func SortSessions(sessions []models.ActivitySession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}

// Consolidate merges sessions of the same type and location that are no
// more than maxGap apart. The merged session spans both parts, keeps the
// details of the longer part, and scores the duration-weighted mean.
func Consolidate(sessions []models.ActivitySession, maxGap time.Duration) []models.ActivitySession {
	if len(sessions) == 0 {
		return []models.ActivitySession{}
	}
	sorted := make([]models.ActivitySession, len(sessions))
	copy(sorted, sessions)
	SortSessions(sorted)

	out := make([]models.ActivitySession, 0, len(sorted))
	for _, s := range sorted {
		merged := false
		for i := len(out) - 1; i >= 0; i-- {
			prev := &out[i]
			if prev.ActivityType != s.ActivityType || prev.LocationName != s.LocationName {
				continue
			}
			if s.StartTime.Sub(prev.EndTime) <= maxGap {
				merge(prev, s)
				merged = true
			}
			break
		}
		if !merged {
			out = append(out, s)
		}
	}
	return out
}

func merge(into *models.ActivitySession, s models.ActivitySession) {
	a, b := into.Duration().Seconds(), s.Duration().Seconds()
	if a+b > 0 {
		into.ConfidenceScore = round3((into.ConfidenceScore*a + s.ConfidenceScore*b) / (a + b))
	} else {
		into.ConfidenceScore = round3(max(into.ConfidenceScore, s.ConfidenceScore))
	}
	into.Confidence = models.BucketConfidence(into.ConfidenceScore)

	fixCount := 0
	if into.Details.Visit != nil && s.Details.Visit != nil {
		fixCount = into.Details.Visit.FixCount + s.Details.Visit.FixCount
	}
	if b > a {
		into.Details = s.Details
		into.LocationLat, into.LocationLon = s.LocationLat, s.LocationLon
	}
	if fixCount > 0 {
		v := *into.Details.Visit
		v.FixCount = fixCount
		into.Details.Visit = &v
	}
	if s.EndTime.After(into.EndTime) {
		into.EndTime = s.EndTime
	}
	finalize(into)
}
