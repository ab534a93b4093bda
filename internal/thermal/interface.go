package thermal

import "time"

// Status is the discrete platform-reported severity of the current
// throttling state. The ordering matches the platform thermal API so that
// severity comparisons stay meaningful.
type Status int32

const (
	StatusError     Status = -1
	StatusNone      Status = 0
	StatusLight     Status = 1
	StatusModerate  Status = 2
	StatusSevere    Status = 3
	StatusCritical  Status = 4
	StatusEmergency Status = 5
	StatusShutdown  Status = 6
)

// String implements the Stringer interface
func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusNone:
		return "none"
	case StatusLight:
		return "light"
	case StatusModerate:
		return "moderate"
	case StatusSevere:
		return "severe"
	case StatusCritical:
		return "critical"
	case StatusEmergency:
		return "emergency"
	case StatusShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Signal is one sampled thermal observation. Headroom is a forward-looking
// normalized load estimate: 1.0 means at the throttling limit, above 1.0
// means severe throttling is forecast. Headroom is NaN if and only if the
// underlying facility cannot answer; callers must treat NaN as "provider
// unusable", distinct from a legitimate headroom of 0.
type Signal struct {
	Status          Status
	Headroom        float64
	ForecastHorizon time.Duration
}

// Callback receives push-based status updates. It may run on an arbitrary
// provider-managed goroutine; implementations must confine themselves to a
// StatusCell store.
type Callback func(Status)

// Provider is a platform-specific thermal data source. Probe may allocate
// platform resources; Release tears them down and is idempotent.
type Provider interface {
	// Name identifies the provider variant for logging
	Name() string

	// Probe checks availability; it is called once, at selection time
	Probe() bool

	// GetStatus returns the current discrete throttling status
	GetStatus() Status

	// GetHeadroom returns the forecast headroom, NaN when unsupported
	GetHeadroom(forecastSeconds int) float64

	// RegisterCallback wires push-based status updates where the platform
	// supports them; returns false when polling is the only option
	RegisterCallback(cb Callback) bool

	// UnregisterCallback removes a previously registered callback
	UnregisterCallback()

	// Release frees platform resources; safe to call more than once
	Release()
}

// Factory constructs a provider variant. Returning nil means the variant is
// not built into this binary.
type Factory func() Provider
