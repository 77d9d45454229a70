package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/records-activity-go/internal/analysis"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/cache"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/validation"
)

// resultVersion is part of every cached summary key; bump it when detection changes
const resultVersion = "v1"

// TripService runs the analyzers over days and trips
type TripService struct {
	agent     *LocationAgent
	cache     *cache.LocationCache
	tripsDir  string
	analyzers []string
	log       zerolog.Logger
}

// NewTripService creates a trip service. cache may be nil. analyzers names
// the analyzers to run; empty runs every registered one.
func NewTripService(agent *LocationAgent, c *cache.LocationCache, tripsDir string, analyzers ...string) *TripService {
	return &TripService{
		agent:     agent,
		cache:     c,
		tripsDir:  tripsDir,
		analyzers: analyzers,
		log:       logging.WithComponent("trip_service"),
	}
}

// RegistryFor layers the catalogue of tripID over the global registry. A trip
// without a catalogue file uses the global registry alone.
func (s *TripService) RegistryFor(tripID string) (*locations.Registry, error) {
	global := s.agent.Registry()
	if tripID == "" {
		return global, nil
	}
	locs, err := locations.LoadTrip(s.tripsDir, tripID)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		s.log.Debug().Str("trip_id", tripID).Msg("no trip catalogue, using global locations")
	}
	return global.WithTrip(tripID, locs), nil
}

// AnalyzeDay runs every analyzer over the fixes of date (YYYY-MM-DD). reg
// nil means the global registry.
func (s *TripService) AnalyzeDay(ctx context.Context, date string, reg *locations.Registry) (models.DailySummary, error) {
	d, err := s.agent.ParseDate("date", date)
	if err != nil {
		return models.DailySummary{}, err
	}
	if reg == nil {
		reg = s.agent.Registry()
	}
	return s.analyzeDay(ctx, d, reg)
}

func (s *TripService) analyzeDay(ctx context.Context, date time.Time, reg *locations.Registry) (models.DailySummary, error) {
	scope, err := s.agent.CacheScope(ctx)
	if err != nil {
		return models.DailySummary{}, err
	}
	key := cache.Key("daily", resultVersion, scope, reg.TripID(), reg.Fingerprint(),
		s.agent.Location().String(), date.Format(dateLayout), strings.Join(s.analyzers, ","))
	if s.cache != nil {
		var cached models.DailySummary
		if s.cache.GetResult(ctx, key, &cached) {
			return cached, nil
		}
	}

	fixes, err := s.agent.FixesForDay(ctx, date)
	if err != nil {
		return models.DailySummary{}, err
	}
	summary := s.summarize(date, fixes, reg)

	if s.cache != nil {
		if err := s.cache.PutResult(ctx, scope, key, date.AddDate(0, 0, 1), summary); err != nil {
			s.log.Warn().Err(err).Str("date", summary.Date).Msg("failed to cache daily summary")
		}
	}
	return summary, nil
}

func (s *TripService) summarize(date time.Time, fixes []models.LocationFix, reg *locations.Registry) models.DailySummary {
	day := analysis.Day{Date: date, Location: s.agent.Location(), Registry: reg}
	sessions := []models.ActivitySession{}
	for _, a := range analysis.BuildAnalyzers(s.analyzers...) {
		sessions = append(sessions, a.Analyze(day, fixes)...)
	}
	analysis.SortSessions(sessions)

	summary := models.DailySummary{
		Date:            day.SourceDate(),
		DayName:         date.Weekday().String(),
		Activities:      sessions,
		TotalActivities: len(sessions),
		LocationSummary: locationSummary(fixes, sessions),
		FixCount:        len(fixes),
	}
	s.log.Debug().
		Str("date", summary.Date).
		Str("trip_id", reg.TripID()).
		Int("fixes", len(fixes)).
		Int("activities", len(sessions)).
		Msg("analyzed day")
	return summary
}

// locationSummary lists hours per visited place in order of first visit,
// e.g. "Home 3.2h, Office 8.9h"
func locationSummary(fixes []models.LocationFix, sessions []models.ActivitySession) string {
	if len(fixes) == 0 {
		return "No location data"
	}
	var order []string
	hours := make(map[string]float64)
	for _, s := range sessions {
		if s.ActivityType != models.ActivityVisit {
			continue
		}
		if _, ok := hours[s.LocationName]; !ok {
			order = append(order, s.LocationName)
		}
		hours[s.LocationName] += s.DurationHours
	}
	if len(order) == 0 {
		return "No known locations visited"
	}
	parts := make([]string, len(order))
	for i, name := range order {
		parts[i] = fmt.Sprintf("%s %.1fh", name, hours[name])
	}
	return strings.Join(parts, ", ")
}

// AnalyzeTrip analyzes every day of the trip, both ends included. Days whose
// fixes cannot be fetched are logged and reported empty.
func (s *TripService) AnalyzeTrip(ctx context.Context, info models.TripInfo) (models.TripAnalysis, error) {
	if err := validation.Struct(info); err != nil {
		return models.TripAnalysis{}, err
	}
	start, end, err := s.agent.dateRange(info.StartDate, info.EndDate)
	if err != nil {
		return models.TripAnalysis{}, err
	}
	reg, err := s.RegistryFor(info.ID)
	if err != nil {
		return models.TripAnalysis{}, err
	}

	ta := models.TripAnalysis{
		TripInfo: info,
		Period: models.TripPeriod{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		},
		Statistics: models.TripStatistics{
			ActivityTypeCounts: make(map[models.ActivityType]int),
		},
		DailySummaries: []models.DailySummary{},
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return models.TripAnalysis{}, err
		}
		summary, err := s.analyzeDay(ctx, d, reg)
		if err != nil {
			if !apperr.IsUpstream(err) {
				return models.TripAnalysis{}, err
			}
			logging.Ctx(ctx).Warn().Err(err).Str("date", d.Format(dateLayout)).Msg("failed to fetch day, reporting it empty")
			summary = models.DailySummary{
				Date:            d.Format(dateLayout),
				DayName:         d.Weekday().String(),
				Activities:      []models.ActivitySession{},
				LocationSummary: "No location data",
			}
		}

		ta.DailySummaries = append(ta.DailySummaries, summary)
		ta.Statistics.TotalActivities += summary.TotalActivities
		for _, a := range summary.Activities {
			ta.Statistics.ActivityTypeCounts[a.ActivityType]++
		}
	}
	ta.Period.Days = len(ta.DailySummaries)

	s.log.Info().
		Str("trip_id", info.ID).
		Str("start", ta.Period.Start).
		Str("end", ta.Period.End).
		Int("activities", ta.Statistics.TotalActivities).
		Msg("trip analyzed")
	return ta, nil
}
