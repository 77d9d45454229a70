package models

// DailySummary groups one day's sessions sorted by start time
type DailySummary struct {
	Date            string            `json:"date"`
	DayName         string            `json:"day_name"`
	Activities      []ActivitySession `json:"activities"`
	TotalActivities int               `json:"total_activities"`
	LocationSummary string            `json:"location_summary"`
	FixCount        int               `json:"fix_count"`
}

// TripInfo identifies a trip and its date range (YYYY-MM-DD, inclusive)
type TripInfo struct {
	ID          string `json:"trip_id" validate:"omitempty,max=128"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Destination string `json:"destination,omitempty"`
}

// TripPeriod is the analyzed date range
type TripPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// TripStatistics aggregates sessions across the trip
type TripStatistics struct {
	TotalActivities    int                  `json:"total_activities"`
	ActivityTypeCounts map[ActivityType]int `json:"activity_type_counts"`
}

// TripAnalysis is the trip-level report
type TripAnalysis struct {
	TripInfo       TripInfo       `json:"trip_info"`
	Period         TripPeriod     `json:"period"`
	Statistics     TripStatistics `json:"statistics"`
	DailySummaries []DailySummary `json:"daily_summaries"`
}
