package analysis

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/metrics"
	"github.com/jengzang/records-activity-go/internal/models"
)

const dateLayout = "2006-01-02"

// Analyzer detects one kind of activity in a day of fixes
type Analyzer interface {
	// Name returns the registry name of the analyzer
	Name() string

	// Type returns the activity type of the sessions it emits
	Type() models.ActivityType

	// Analyze returns the sessions found in fixes. It never fails: malformed
	// fixes are skipped and an empty day yields an empty slice.
	Analyze(day Day, fixes []models.LocationFix) []models.ActivitySession
}

// Day is the context an analyzer runs in
type Day struct {
	Date     time.Time // midnight of the analyzed day in Location
	Location *time.Location
	Registry *locations.Registry
}

// NewDay builds a Day for date (YYYY-MM-DD) in loc
func NewDay(date string, loc *time.Location, reg *locations.Registry) (Day, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return Day{}, err
	}
	if reg == nil {
		reg = locations.NewRegistry(nil)
	}
	return Day{Date: d, Location: loc, Registry: reg}, nil
}

// SourceDate is the YYYY-MM-DD form of the day
func (d Day) SourceDate() string {
	return d.Date.Format(dateLayout)
}

// Local converts t to the day's time zone
func (d Day) Local(t time.Time) time.Time {
	if d.Location == nil {
		return t.UTC()
	}
	return t.In(d.Location)
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	name     string
	activity models.ActivityType
	Log      zerolog.Logger
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(name string, activity models.ActivityType) *BaseAnalyzer {
	return &BaseAnalyzer{
		name:     name,
		activity: activity,
		Log:      logging.WithComponent(name),
	}
}

// Name returns the analyzer name
func (a *BaseAnalyzer) Name() string {
	return a.name
}

// Type returns the emitted activity type
func (a *BaseAnalyzer) Type() models.ActivityType {
	return a.activity
}

// Finish records metrics for the sessions of one run and returns them sorted.
// A nil input becomes an empty slice.
func (a *BaseAnalyzer) Finish(day Day, sessions []models.ActivitySession) []models.ActivitySession {
	if sessions == nil {
		return []models.ActivitySession{}
	}
	SortSessions(sessions)
	for _, s := range sessions {
		metrics.SessionsDetected.WithLabelValues(string(s.ActivityType), string(s.Confidence)).Inc()
	}
	a.Log.Debug().Str("date", day.SourceDate()).Int("sessions", len(sessions)).Msg("analysis complete")
	return sessions
}

// AnalyzerFactory creates an analyzer instance
type AnalyzerFactory func() Analyzer

type registration struct {
	name     string
	priority int
	factory  AnalyzerFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// RegisterAnalyzer registers a factory. Lower priorities run first.
func RegisterAnalyzer(name string, priority int, factory AnalyzerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = registration{name: name, priority: priority, factory: factory}
}

func ordered() []registration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	regs := make([]registration, 0, len(registry))
	for _, r := range registry {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority < regs[j].priority
		}
		return regs[i].name < regs[j].name
	})
	return regs
}

// AnalyzerNames returns the registered names in run order
func AnalyzerNames() []string {
	regs := ordered()
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.name
	}
	return names
}

// BuildAnalyzers instantiates the named analyzers, or all registered ones
// when names is empty, in run order. Unknown names are ignored.
func BuildAnalyzers(names ...string) []Analyzer {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []Analyzer
	for _, r := range ordered() {
		if len(names) == 0 || want[r.name] {
			out = append(out, r.factory())
		}
	}
	return out
}
