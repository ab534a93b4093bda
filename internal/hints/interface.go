package hints

// Workload identifies one tracked execution context.
type Workload int

const (
	// WorkloadGame is the primary simulation thread.
	WorkloadGame Workload = iota
	// WorkloadRender is the render submission thread.
	WorkloadRender
	// WorkloadGraphicsBackend is the graphics backend (RHI) thread.
	WorkloadGraphicsBackend

	workloadCount
)

// String implements the Stringer interface
func (w Workload) String() string {
	switch w {
	case WorkloadGame:
		return "game"
	case WorkloadRender:
		return "render"
	case WorkloadGraphicsBackend:
		return "graphics_backend"
	default:
		return "unknown"
	}
}

// DefaultTargetDurationNs is the initial target work duration handed to new
// sessions, one frame at 60 Hz.
const DefaultTargetDurationNs int64 = 16666666

// BackendSession is one platform hint session handle. Report and update
// failures are transient platform conditions; the manager absorbs them.
type BackendSession interface {
	ReportActualWorkDuration(durationNs int64) error
	UpdateTargetWorkDuration(targetNs int64) error
	Close() error
}

// Backend abstracts the platform performance-hint facility. A nil session
// or an error from CreateSession means the facility refused the request;
// the caller must not retry within the same process run.
type Backend interface {
	CreateSession(threadIDs []int32, initialTargetNs int64) (BackendSession, error)
	PreferredUpdateRateNanos() int64
}
