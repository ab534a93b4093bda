package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"codeberg.org/mutker/thermalctl/internal/config"
	"codeberg.org/mutker/thermalctl/internal/controller"
	"codeberg.org/mutker/thermalctl/internal/hints"
	"codeberg.org/mutker/thermalctl/internal/logger"
	"codeberg.org/mutker/thermalctl/internal/pid"
	"codeberg.org/mutker/thermalctl/internal/quality"
	"codeberg.org/mutker/thermalctl/internal/telemetry"
)

const (
	// The demo host ticks at a fixed 60 Hz and splits each measured frame
	// across the three workloads with a static ratio.
	frameInterval       = 16666666 * time.Nanosecond
	gameShare           = 0.45
	renderShare         = 0.35
	ambientResolution   = 100.0
	ambientKnobMaximum  = 3
	demoGameThreadID    = 1
	demoRenderThreadID  = 2
	demoBackendThreadID = 3
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Error().Err(err).Msg("failed to write PID file")
		os.Exit(1)
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	var collector telemetry.Collector
	if cfg.IsTelemetryEnabled() {
		var err error
		collector, err = telemetry.NewService(telemetry.Config{DBPath: cfg.GetTelemetryDBPath()})
		if err != nil {
			logger.Error().Err(err).Msg("failed to open telemetry journal; continuing without")
		} else {
			defer collector.Close()
		}
	}

	frames := newFrameSource(cfg.GetMaxFPS())

	ctrl := controller.New(controller.Options{
		Ambient:     ambientLevel(),
		Applier:     &logApplier{},
		HintBackend: &logBackend{},
		Threads: map[hints.Workload][]int32{
			hints.WorkloadGame:            {demoGameThreadID},
			hints.WorkloadRender:          {demoRenderThreadID},
			hints.WorkloadGraphicsBackend: {demoBackendThreadID},
		},
		Telemetry: collector,
		Settings:  controller.SettingsFromConfig(cfg),
	})
	if !ctrl.Initialize() {
		logger.Error().Msg("No usable thermal provider; exiting")

		return
	}
	defer ctrl.Shutdown()

	cfg.Watch(func(updated *config.Config) {
		ctrl.UpdateSettings(controller.SettingsFromConfig(updated))
		frames.SetMaxFPS(updated.GetMaxFPS())
		logger.Info().Msg("Configuration reloaded")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	loop(ctx, ctrl, frames)
	logger.Info().Msg("Exiting...")
}

func loop(ctx context.Context, ctrl *controller.Controller, frames *frameSource) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ctrl.Tick(frames.Sample(now))
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func ambientLevel() quality.Level {
	return quality.Level{
		ResolutionQuality:   ambientResolution,
		ViewDistanceQuality: ambientKnobMaximum,
		ShadowQuality:       ambientKnobMaximum,
		AntiAliasingQuality: ambientKnobMaximum,
		PostProcessQuality:  ambientKnobMaximum,
		TextureQuality:      ambientKnobMaximum,
		EffectsQuality:      ambientKnobMaximum,
		FoliageQuality:      ambientKnobMaximum,
		ShadingQuality:      ambientKnobMaximum,
	}
}

// frameSource synthesizes per-workload frame timings from the real tick
// cadence. MaxFPS may be swapped from the config watcher goroutine.
type frameSource struct {
	lastTick   time.Time
	maxFPSBits atomic.Uint64
}

func newFrameSource(maxFPS float64) *frameSource {
	fs := &frameSource{}
	fs.SetMaxFPS(maxFPS)

	return fs
}

func (fs *frameSource) SetMaxFPS(maxFPS float64) {
	fs.maxFPSBits.Store(math.Float64bits(maxFPS))
}

func (fs *frameSource) Sample(now time.Time) controller.FrameStats {
	frameNs := int64(frameInterval)
	if !fs.lastTick.IsZero() {
		if measured := now.Sub(fs.lastTick).Nanoseconds(); measured > 0 {
			frameNs = measured
		}
	}
	fs.lastTick = now

	gameNs := int64(float64(frameNs) * gameShare)
	renderNs := int64(float64(frameNs) * renderShare)

	return controller.FrameStats{
		GameNs:            gameNs,
		RenderNs:          renderNs,
		GraphicsBackendNs: frameNs - gameNs - renderNs,
		MaxFPS:            math.Float64frombits(fs.maxFPSBits.Load()),
		AverageFPS:        1e9 / float64(frameNs),
	}
}

// logApplier stands in for the host's settings system: applied tiers only
// show up in the log.
type logApplier struct{}

func (*logApplier) Apply(tier int, level quality.Level, immediate bool) error {
	logger.Info().
		Int("tier", tier).
		Float64("resolution", level.ResolutionQuality).
		Int("shadow", level.ShadowQuality).
		Int("effects", level.EffectsQuality).
		Bool("immediate", immediate).
		Msg("Quality tier applied")

	return nil
}

// logBackend stands in for the platform performance-hint facility.
type logBackend struct{}

func (*logBackend) CreateSession(threadIDs []int32, initialTargetNs int64) (hints.BackendSession, error) {
	logger.Debug().
		Ints32("threads", threadIDs).
		Int64("target_ns", initialTargetNs).
		Msg("Hint session created")

	return &logSession{threadIDs: threadIDs}, nil
}

func (*logBackend) PreferredUpdateRateNanos() int64 {
	return 0
}

type logSession struct {
	threadIDs []int32
}

func (*logSession) ReportActualWorkDuration(int64) error {
	return nil
}

func (s *logSession) UpdateTargetWorkDuration(targetNs int64) error {
	logger.Debug().
		Ints32("threads", s.threadIDs).
		Int64("target_ns", targetNs).
		Msg("Target work duration updated")

	return nil
}

func (s *logSession) Close() error {
	logger.Debug().Ints32("threads", s.threadIDs).Msg("Hint session closed")

	return nil
}
