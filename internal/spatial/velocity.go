package spatial

// Regime is a discretized speed bucket used to infer the mode of movement
type Regime int

const (
	RegimeStationary Regime = iota
	RegimeWalking
	RegimeRunning
	RegimeCycling
	RegimeDriving
)

var regimeNames = [...]string{"stationary", "walking", "running", "cycling", "driving"}

func (r Regime) String() string {
	if r < RegimeStationary || r > RegimeDriving {
		return "unknown"
	}
	return regimeNames[r]
}

// MarshalText renders the regime name in JSON output
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// VelocityThresholds holds the exclusive upper bound (m/s) of each regime below driving
type VelocityThresholds struct {
	Stationary float64
	Walking    float64
	Running    float64
	Cycling    float64
}

// DefaultThresholds are the general purpose speed buckets
var DefaultThresholds = VelocityThresholds{
	Stationary: 0.5,
	Walking:    2.5,
	Running:    4.0,
	Cycling:    8.0,
}

// Classify maps a speed in m/s to its regime
func (t VelocityThresholds) Classify(v float64) Regime {
	switch {
	case v < t.Stationary:
		return RegimeStationary
	case v < t.Walking:
		return RegimeWalking
	case v < t.Running:
		return RegimeRunning
	case v < t.Cycling:
		return RegimeCycling
	default:
		return RegimeDriving
	}
}

// ClassifyVelocity classifies v with DefaultThresholds
func ClassifyVelocity(v float64) Regime {
	return DefaultThresholds.Classify(v)
}
