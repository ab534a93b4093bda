package controller_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"codeberg.org/mutker/thermalctl/internal/config"
	"codeberg.org/mutker/thermalctl/internal/controller"
	"codeberg.org/mutker/thermalctl/internal/hints"
	"codeberg.org/mutker/thermalctl/internal/quality"
	"codeberg.org/mutker/thermalctl/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	headrooms []float64
	idx       int
	status    thermal.Status
	available bool
	released  bool
	cb        thermal.Callback
}

func (p *scriptedProvider) Name() string              { return "scripted" }
func (p *scriptedProvider) Probe() bool               { return p.available }
func (p *scriptedProvider) GetStatus() thermal.Status { return p.status }
func (p *scriptedProvider) UnregisterCallback()       { p.cb = nil }
func (p *scriptedProvider) Release()                  { p.released = true }

func (p *scriptedProvider) GetHeadroom(_ int) float64 {
	if len(p.headrooms) == 0 {
		return math.NaN()
	}
	h := p.headrooms[p.idx]
	if p.idx < len(p.headrooms)-1 {
		p.idx++
	}
	return h
}

func (p *scriptedProvider) RegisterCallback(cb thermal.Callback) bool {
	p.cb = cb
	return true
}

type recordingApplier struct {
	tiers []int
	err   error
}

func (a *recordingApplier) Apply(tier int, _ quality.Level, _ bool) error {
	a.tiers = append(a.tiers, tier)
	return a.err
}

type fakeSession struct {
	reported []int64
	targets  []int64
	closed   int
}

func (s *fakeSession) ReportActualWorkDuration(durationNs int64) error {
	s.reported = append(s.reported, durationNs)
	return nil
}

func (s *fakeSession) UpdateTargetWorkDuration(targetNs int64) error {
	s.targets = append(s.targets, targetNs)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeBackend struct {
	sessions map[int32]*fakeSession
	created  int
	fail     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sessions: map[int32]*fakeSession{}}
}

func (b *fakeBackend) CreateSession(threadIDs []int32, _ int64) (hints.BackendSession, error) {
	b.created++
	if b.fail {
		return nil, errors.New("facility refused")
	}
	s := &fakeSession{}
	b.sessions[threadIDs[0]] = s
	return s, nil
}

func (*fakeBackend) PreferredUpdateRateNanos() int64 {
	return 0
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func ambientMax() quality.Level {
	return quality.Level{
		ResolutionQuality:   100,
		ViewDistanceQuality: 3,
		ShadowQuality:       3,
		AntiAliasingQuality: 3,
		PostProcessQuality:  3,
		TextureQuality:      3,
		EffectsQuality:      3,
		FoliageQuality:      3,
		ShadingQuality:      3,
	}
}

func threads() map[hints.Workload][]int32 {
	return map[hints.Workload][]int32{
		hints.WorkloadGame:            {201},
		hints.WorkloadRender:          {202},
		hints.WorkloadGraphicsBackend: {203},
	}
}

type harness struct {
	ctrl     *controller.Controller
	provider *scriptedProvider
	applier  *recordingApplier
	backend  *fakeBackend
	clock    *fakeClock
}

func newHarness(t *testing.T, provider *scriptedProvider, settings controller.Settings) *harness {
	t.Helper()

	h := &harness{
		provider: provider,
		applier:  &recordingApplier{},
		backend:  newFakeBackend(),
		clock:    &fakeClock{now: time.Unix(1000, 0)},
	}
	h.ctrl = controller.New(controller.Options{
		Factories: []thermal.Factory{
			func() thermal.Provider { return provider },
		},
		Ambient:     ambientMax(),
		Applier:     h.applier,
		HintBackend: h.backend,
		Threads:     threads(),
		Settings:    settings,
		Clock:       h.clock.Now,
	})

	return h
}

func frame(gameNs int64, maxFPS float64) controller.FrameStats {
	return controller.FrameStats{
		GameNs:            gameNs,
		RenderNs:          5000000,
		GraphicsBackendNs: 3000000,
		MaxFPS:            maxFPS,
		AverageFPS:        59.5,
	}
}

// tickAfterPoll advances the clock past the poll interval and ticks once.
func (h *harness) tickAfterPoll(f controller.FrameStats) {
	h.clock.Advance(time.Second)
	h.ctrl.Tick(f)
}

func TestInitializeFailsWithoutProvider(t *testing.T) {
	h := newHarness(t, &scriptedProvider{available: false}, controller.DefaultSettings())

	require.False(t, h.ctrl.Initialize())

	// Subsequent ticks are no-ops that never reach the collaborators.
	h.tickAfterPoll(frame(8000000, 60))
	assert.Empty(t, h.applier.tiers)
	assert.Zero(t, h.backend.created)
}

func TestInitializeFailsOnNaNHeadroom(t *testing.T) {
	provider := &scriptedProvider{available: true} // empty script reads NaN
	h := newHarness(t, provider, controller.DefaultSettings())

	require.False(t, h.ctrl.Initialize())
	assert.True(t, provider.released, "Unusable provider must be released")
}

func TestHeadroomScenario(t *testing.T) {
	// First value feeds the initialization headroom check.
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97, 0.91, 0.80, 0.60, 0.96},
	}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	for i := 0; i < 5; i++ {
		h.tickAfterPoll(frame(8000000, 60))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 0}, h.applier.tiers, "Each poll differs from the previous tier, so each applies exactly once")
	assert.Equal(t, 0, h.ctrl.CurrentTier())
}

func TestNoApplyWithoutTierChange(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97}, // repeats 0.97 once exhausted
	}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	for i := 0; i < 4; i++ {
		h.tickAfterPoll(frame(8000000, 60))
	}

	assert.Equal(t, []int{0}, h.applier.tiers, "Stable headroom must apply the tier only once")
}

func TestNoPollBeforeInterval(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97},
	}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	// Clock has not advanced past the poll interval.
	h.ctrl.Tick(frame(8000000, 60))
	assert.Empty(t, h.applier.tiers)
	assert.True(t, math.IsNaN(h.ctrl.Headroom()), "No poll yet, headroom unknown")

	h.tickAfterPoll(frame(8000000, 60))
	assert.Equal(t, []int{0}, h.applier.tiers)
	assert.InDelta(t, 0.97, h.ctrl.Headroom(), 1e-9)
}

func TestStatusMode(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{0.5},
		status:    thermal.StatusModerate,
	}
	settings := controller.DefaultSettings()
	settings.QualityMode = config.QualityModeStatus
	h := newHarness(t, provider, settings)
	require.True(t, h.ctrl.Initialize())

	h.tickAfterPoll(frame(8000000, 60))

	// Moderate (ordinal 2) maps to tier 1, headroom is ignored.
	assert.Equal(t, []int{1}, h.applier.tiers)
}

func TestQualityModeOffLeavesTierAlone(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97},
	}
	settings := controller.DefaultSettings()
	settings.QualityMode = config.QualityModeOff
	h := newHarness(t, provider, settings)
	require.True(t, h.ctrl.Initialize())

	h.tickAfterPoll(frame(8000000, 60))
	assert.Empty(t, h.applier.tiers)
	assert.Equal(t, quality.TierCount-1, h.ctrl.CurrentTier())
}

func TestTargetDurationFromFrameCap(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	// Uncapped: sessions keep their initial 60 Hz default, nothing pushed.
	h.ctrl.Tick(frame(8000000, 0))
	require.Equal(t, 3, h.backend.created)
	assert.Empty(t, h.backend.sessions[201].targets)

	// Cap 30: one push of 33,333,333 ns to every session.
	h.ctrl.Tick(frame(8000000, 30))
	for _, id := range []int32{201, 202, 203} {
		assert.Equal(t, []int64{33333333}, h.backend.sessions[id].targets, "session %d", id)
	}

	// Unchanged cap: no further pushes.
	h.ctrl.Tick(frame(8000000, 30))
	assert.Len(t, h.backend.sessions[201].targets, 1)
}

func TestActualDurationsReportedEachTick(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	h.ctrl.Tick(frame(8000000, 60))
	h.ctrl.Tick(frame(9000000, 60))

	assert.Equal(t, []int64{8000000, 9000000}, h.backend.sessions[201].reported)
	assert.Equal(t, []int64{5000000, 5000000}, h.backend.sessions[202].reported)
	assert.Equal(t, []int64{3000000, 3000000}, h.backend.sessions[203].reported)
}

func TestZeroGameDurationSkipsReportAndForcesRecompute(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	h.ctrl.Tick(frame(8000000, 30))
	require.Equal(t, []int64{33333333}, h.backend.sessions[201].targets)

	// Paused simulation: no game report, other workloads still report.
	h.ctrl.Tick(frame(0, 30))
	assert.Equal(t, []int64{8000000}, h.backend.sessions[201].reported)
	assert.Len(t, h.backend.sessions[202].reported, 2)

	// Next tick recomputes the target even though the cap is unchanged;
	// the manager drops the push because the value is identical.
	h.ctrl.Tick(frame(8000000, 30))
	assert.Equal(t, []int64{8000000, 8000000}, h.backend.sessions[201].reported)
	assert.Equal(t, []int64{33333333}, h.backend.sessions[201].targets)
}

func TestDisableClosesSessions(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	h.ctrl.Tick(frame(8000000, 60))
	require.Equal(t, 3, h.backend.created)

	settings := controller.DefaultSettings()
	settings.Enabled = false
	h.ctrl.UpdateSettings(settings)
	h.ctrl.Tick(frame(8000000, 60))

	for _, s := range h.backend.sessions {
		assert.Equal(t, 1, s.closed)
	}
}

func TestHintToggleOffClosesSessionsButLoopContinues(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97},
	}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())

	h.ctrl.Tick(frame(8000000, 60))
	require.Equal(t, 3, h.backend.created)

	settings := controller.DefaultSettings()
	settings.HintSessions = false
	h.ctrl.UpdateSettings(settings)
	h.tickAfterPoll(frame(8000000, 60))

	for _, s := range h.backend.sessions {
		assert.Equal(t, 1, s.closed)
	}
	// Quality adaptation keeps running.
	assert.Equal(t, []int{0}, h.applier.tiers)
}

func TestSessionCreateFailureDisablesHintsForRun(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	h.backend.fail = true
	require.True(t, h.ctrl.Initialize())

	h.ctrl.Tick(frame(8000000, 60))
	created := h.backend.created
	require.Positive(t, created)

	h.ctrl.Tick(frame(8000000, 60))
	h.ctrl.Tick(frame(8000000, 60))
	assert.Equal(t, created, h.backend.created, "Failed session creation must never be retried in the same run")
}

func TestStatusCallbackFeedsStatusMode(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{0.5},
		status:    thermal.StatusError, // polling cannot refresh the cell
	}
	settings := controller.DefaultSettings()
	settings.QualityMode = config.QualityModeStatus
	h := newHarness(t, provider, settings)
	require.True(t, h.ctrl.Initialize())
	require.NotNil(t, provider.cb, "Controller must register for push updates")

	provider.cb(thermal.StatusSevere)
	h.tickAfterPoll(frame(8000000, 60))

	assert.Equal(t, thermal.StatusSevere, h.ctrl.Status())
	assert.Equal(t, []int{0}, h.applier.tiers)
}

func TestShutdownReleasesEverything(t *testing.T) {
	provider := &scriptedProvider{available: true, headrooms: []float64{0.5}}
	h := newHarness(t, provider, controller.DefaultSettings())
	require.True(t, h.ctrl.Initialize())
	h.ctrl.Tick(frame(8000000, 60))

	h.ctrl.Shutdown()
	h.ctrl.Shutdown() // idempotent

	assert.True(t, provider.released)
	for _, s := range h.backend.sessions {
		assert.Equal(t, 1, s.closed)
	}

	// Ticks after shutdown are no-ops.
	h.tickAfterPoll(frame(8000000, 60))
	assert.Empty(t, h.applier.tiers)
}

func TestApplierErrorIsSwallowed(t *testing.T) {
	provider := &scriptedProvider{
		available: true,
		headrooms: []float64{1.0, 0.97},
	}
	h := newHarness(t, provider, controller.DefaultSettings())
	h.applier.err = errors.New("settings system busy")
	require.True(t, h.ctrl.Initialize())

	h.tickAfterPoll(frame(8000000, 60))

	// The failure is absorbed and the tier is considered applied.
	assert.Equal(t, []int{0}, h.applier.tiers)
	assert.Equal(t, 0, h.ctrl.CurrentTier())
}
