package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/thermalctl/internal/thermal"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot captures the adaptive loop's state at one poll boundary.
type Snapshot struct {
	Timestamp time.Time
	Thermal   ThermalSample
	Quality   QualitySample
	Hints     HintSample
}

// Domain value objects
type ThermalSample struct {
	Status   thermal.Status
	Headroom float64
}

type QualitySample struct {
	CurrentTier int
	TargetTier  int
	AverageFPS  float64
}

type HintSample struct {
	SessionsOpen     bool
	TargetDurationNs int64
}
