package controller

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/thermalctl/internal/config"
	"codeberg.org/mutker/thermalctl/internal/errors"
	"codeberg.org/mutker/thermalctl/internal/hints"
	"codeberg.org/mutker/thermalctl/internal/logger"
	"codeberg.org/mutker/thermalctl/internal/quality"
	"codeberg.org/mutker/thermalctl/internal/telemetry"
	"codeberg.org/mutker/thermalctl/internal/thermal"
)

const defaultForecastSeconds = 1

// unsetMaxFPS forces a target-duration recompute on the next cap reading.
const unsetMaxFPS = -1.0

// Options wires the controller's collaborators. Factories, Ambient and
// Applier are required; the rest have usable defaults.
type Options struct {
	Factories       []thermal.Factory
	Ambient         quality.Level
	Applier         quality.Applier
	HintBackend     hints.Backend
	Threads         map[hints.Workload][]int32
	Telemetry       telemetry.Collector
	Settings        Settings
	ForecastSeconds int
	Clock           func() time.Time
}

// Controller runs the thermal-adaptive loop once per host tick. All of its
// work happens synchronously on the tick goroutine; the only cross-thread
// inputs are the status cell (written by provider callbacks) and the
// settings snapshot. Platform calls are assumed instantaneous; a hung call
// stalls the tick, which this design does not protect against.
type Controller struct {
	factories       []thermal.Factory
	provider        thermal.Provider
	statusCell      thermal.StatusCell
	settings        atomic.Pointer[Settings]
	applier         quality.Applier
	hintManager     *hints.Manager
	threads         map[hints.Workload][]int32
	collector       telemetry.Collector
	clock           func() time.Time
	forecastSeconds int

	ladder      [quality.TierCount]quality.Level
	currentTier int
	targetTier  int

	lastPoll     time.Time
	lastHeadroom float64

	prevMaxFPS       float64
	targetDurationNs int64

	// diagnostics only, never control-affecting
	fpsTotal float64
	fpsCount int

	usable bool
}

func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ForecastSeconds <= 0 {
		opts.ForecastSeconds = defaultForecastSeconds
	}
	if opts.Factories == nil {
		opts.Factories = thermal.DefaultFactories()
	}

	c := &Controller{
		factories:        opts.Factories,
		applier:          opts.Applier,
		hintManager:      hints.NewManager(opts.HintBackend),
		threads:          opts.Threads,
		collector:        opts.Telemetry,
		clock:            opts.Clock,
		forecastSeconds:  opts.ForecastSeconds,
		ladder:           quality.BuildLadder(opts.Ambient),
		currentTier:      quality.TierCount - 1,
		targetTier:       quality.TierCount - 1,
		lastHeadroom:     math.NaN(),
		prevMaxFPS:       unsetMaxFPS,
		targetDurationNs: hints.DefaultTargetDurationNs,
	}

	settings := opts.Settings
	if settings.PollInterval <= 0 {
		settings = DefaultSettings()
	}
	c.settings.Store(&settings)

	return c
}

// UpdateSettings swaps the runtime toggles. Safe from any goroutine.
func (c *Controller) UpdateSettings(settings Settings) {
	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultSettings().PollInterval
	}
	c.settings.Store(&settings)
}

// Initialize selects a thermal provider and prepares the loop. It returns
// whether the core is usable on this device; on false every subsequent
// Tick is a no-op. Failures here are silent degradation, never fatal to
// the host.
func (c *Controller) Initialize() bool {
	errFactory := errors.New()

	provider, ok := thermal.Select(c.factories)
	if !ok {
		logger.ErrorWithCode(errFactory.New(errors.ErrProviderUnavailable)).
			Msg("Thermal adaptation disabled")

		return false
	}

	// A provider that probes fine but cannot answer headroom is just as
	// unusable as no provider at all.
	if math.IsNaN(provider.GetHeadroom(c.forecastSeconds)) {
		logger.ErrorWithCode(errFactory.New(errors.ErrHeadroomUnsupported)).
			Str("provider", provider.Name()).
			Msg("Thermal adaptation disabled")
		provider.Release()

		return false
	}

	c.provider = provider
	if provider.RegisterCallback(func(s thermal.Status) { c.statusCell.Store(s) }) {
		logger.Debug().Msgf("Thermal status callback registered with %s", provider.Name())
	} else {
		c.statusCell.Store(provider.GetStatus())
	}

	c.lastPoll = c.clock()
	c.usable = true

	return true
}

// Shutdown closes hint sessions and releases the provider. Idempotent.
func (c *Controller) Shutdown() {
	c.hintManager.Close()

	if c.provider != nil {
		c.provider.UnregisterCallback()
		c.provider.Release()
		c.provider = nil
	}
	c.usable = false
}

// Tick runs one pass of the control loop: sample the thermal signal when a
// poll is due, re-evaluate the quality tier, then feed the hint sessions.
// Call once per frame from the host tick.
func (c *Controller) Tick(frame FrameStats) {
	if !c.usable {
		return
	}

	settings := *c.settings.Load()
	if !settings.Enabled {
		if c.hintManager.IsOpen() {
			c.hintManager.Close()
			c.prevMaxFPS = unsetMaxFPS
			logger.Info().Msg("Hint sessions closed: adaptive loop disabled")
		}

		return
	}

	c.fpsTotal += frame.AverageFPS
	c.fpsCount++

	if polled := c.pollIfDue(settings); polled {
		c.evaluateTier(settings.QualityMode)
	}
	c.applyTierChange()
	c.updateHintSessions(settings, frame)
}

// CurrentTier returns the tier most recently applied.
func (c *Controller) CurrentTier() int {
	return c.currentTier
}

// Headroom returns the most recently polled headroom, NaN before the
// first poll.
func (c *Controller) Headroom() float64 {
	return c.lastHeadroom
}

// Status returns the latest pushed or polled thermal status.
func (c *Controller) Status() thermal.Status {
	return c.statusCell.Load()
}

func (c *Controller) pollIfDue(settings Settings) bool {
	now := c.clock()
	if now.Sub(c.lastPoll) < settings.PollInterval {
		return false
	}

	c.lastHeadroom = c.provider.GetHeadroom(c.forecastSeconds)
	c.lastPoll = now

	// Pull-only providers have no callback feeding the cell.
	if status := c.provider.GetStatus(); status != thermal.StatusError {
		c.statusCell.Store(status)
	}

	averageFPS := 0.0
	if c.fpsCount > 0 {
		averageFPS = c.fpsTotal / float64(c.fpsCount)
	}
	logger.Debug().
		Float64("headroom", c.lastHeadroom).
		Str("status", c.statusCell.Load().String()).
		Float64("fps", averageFPS).
		Msg("Thermal poll")

	c.record(now, averageFPS)
	c.fpsTotal = 0
	c.fpsCount = 0

	return true
}

func (c *Controller) evaluateTier(mode config.QualityMode) {
	switch mode {
	case config.QualityModeHeadroom:
		if !math.IsNaN(c.lastHeadroom) {
			c.targetTier = quality.TierForHeadroom(c.lastHeadroom)
		}
	case config.QualityModeStatus:
		c.targetTier = quality.TierForStatus(c.statusCell.Load())
	case config.QualityModeOff:
	}
}

// applyTierChange pushes the target tier into the host settings, at most
// once per tick and only when it differs from the applied tier.
func (c *Controller) applyTierChange() {
	if c.targetTier == c.currentTier {
		return
	}

	errFactory := errors.New()
	tier := quality.ClampTier(c.targetTier)
	if err := c.applier.Apply(tier, c.ladder[tier], true); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(errors.ErrPlatformCallFailed, err)).
			Int("tier", tier).
			Msg("Failed to apply quality tier")
	} else {
		logger.Info().Msgf("Changed quality tier to %d", tier)
	}
	c.currentTier = tier
	c.targetTier = tier
}

func (c *Controller) updateHintSessions(settings Settings, frame FrameStats) {
	if !settings.HintSessions || !c.hintManager.IsSupported() {
		if c.hintManager.IsOpen() {
			c.hintManager.Close()
			c.prevMaxFPS = unsetMaxFPS
			logger.Info().Msg("Hint sessions closed: feature disabled")
		}

		return
	}

	if !c.hintManager.IsOpen() {
		if !c.hintManager.Open(c.threads) {
			return
		}
		// Force target duration calculation on the first update after the
		// sessions come up.
		c.prevMaxFPS = unsetMaxFPS
	}

	targetChanged := false
	if frame.MaxFPS != c.prevMaxFPS {
		c.prevMaxFPS = frame.MaxFPS
		c.targetDurationNs = targetDurationNs(frame.MaxFPS)
		targetChanged = true
		logger.Debug().Msgf("Frame cap changed to %.2f, target duration %d ns", frame.MaxFPS, c.targetDurationNs)
	}

	// A non-positive primary duration means the simulation did not run
	// this tick (paused, loading). Skip its report and treat the target
	// as unknown so the next tick recomputes it.
	if frame.GameNs > 0 {
		c.reportWorkload(hints.WorkloadGame, frame.GameNs, targetChanged)
	} else {
		c.prevMaxFPS = unsetMaxFPS
	}
	c.reportWorkload(hints.WorkloadRender, frame.RenderNs, targetChanged)
	c.reportWorkload(hints.WorkloadGraphicsBackend, frame.GraphicsBackendNs, targetChanged)
}

func (c *Controller) reportWorkload(workload hints.Workload, durationNs int64, targetChanged bool) {
	c.hintManager.ReportActual(workload, durationNs)
	if targetChanged {
		c.hintManager.UpdateTarget(workload, c.targetDurationNs)
	}
}

func (c *Controller) record(now time.Time, averageFPS float64) {
	if c.collector == nil {
		return
	}

	snapshot := &telemetry.Snapshot{
		Timestamp: now,
		Thermal: telemetry.ThermalSample{
			Status:   c.statusCell.Load(),
			Headroom: c.lastHeadroom,
		},
		Quality: telemetry.QualitySample{
			CurrentTier: c.currentTier,
			TargetTier:  c.targetTier,
			AverageFPS:  averageFPS,
		},
		Hints: telemetry.HintSample{
			SessionsOpen:     c.hintManager.IsOpen(),
			TargetDurationNs: c.targetDurationNs,
		},
	}
	if err := c.collector.Record(context.Background(), snapshot); err != nil {
		logger.Debug().Err(err).Msg("Failed to record telemetry snapshot")
	}
}

// targetDurationNs converts the configured frame-rate cap to the expected
// per-frame duration; an uncapped (zero or negative) rate falls back to
// one frame at 60 Hz.
func targetDurationNs(maxFPS float64) int64 {
	if maxFPS <= 0 {
		return hints.DefaultTargetDurationNs
	}

	return int64(math.Round(1e9 / maxFPS))
}
