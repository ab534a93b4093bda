package quality

import "codeberg.org/mutker/thermalctl/internal/thermal"

// TierCount is the number of discrete fidelity presets. Tier 0 is the
// highest fidelity, TierCount-1 the lowest.
const TierCount = 4

// Knob scale shared by the integer quality knobs.
const (
	knobMin = 0
	knobMax = 3
)

// Level is one immutable bundle of per-feature quality knobs. The integer
// knobs use the 0..3 engine scale; ResolutionQuality is a render scale
// percentage.
type Level struct {
	ResolutionQuality   float64
	ViewDistanceQuality int
	ShadowQuality       int
	AntiAliasingQuality int
	PostProcessQuality  int
	TextureQuality      int
	EffectsQuality      int
	FoliageQuality      int
	ShadingQuality      int
}

// standardResolution holds the stock render-scale preset per tier rank.
var standardResolution = [TierCount]float64{100, 75, 50, 25}

// StandardLevel returns the stock preset for a tier rank, before ambient
// clamping.
func StandardLevel(tier int) Level {
	knob := knobMax - tier
	if knob < knobMin {
		knob = knobMin
	}

	return Level{
		ResolutionQuality:   standardResolution[tier],
		ViewDistanceQuality: knob,
		ShadowQuality:       knob,
		AntiAliasingQuality: knob,
		PostProcessQuality:  knob,
		TextureQuality:      knob,
		EffectsQuality:      knob,
		FoliageQuality:      knob,
		ShadingQuality:      knob,
	}
}

// BuildLadder constructs the tier table once at startup. Every knob of
// every tier is clamped to the ambient baseline so the ladder can only ever
// ask for less than the host's current settings, never more. The result is
// immutable by convention; callers must not mutate entries.
func BuildLadder(ambient Level) [TierCount]Level {
	var ladder [TierCount]Level
	for tier := 0; tier < TierCount; tier++ {
		ladder[tier] = clampToAmbient(StandardLevel(tier), ambient)
	}

	return ladder
}

func clampToAmbient(level, ambient Level) Level {
	if level.ResolutionQuality > ambient.ResolutionQuality {
		level.ResolutionQuality = ambient.ResolutionQuality
	}
	level.ViewDistanceQuality = minKnob(level.ViewDistanceQuality, ambient.ViewDistanceQuality)
	level.ShadowQuality = minKnob(level.ShadowQuality, ambient.ShadowQuality)
	level.AntiAliasingQuality = minKnob(level.AntiAliasingQuality, ambient.AntiAliasingQuality)
	level.PostProcessQuality = minKnob(level.PostProcessQuality, ambient.PostProcessQuality)
	level.TextureQuality = minKnob(level.TextureQuality, ambient.TextureQuality)
	level.EffectsQuality = minKnob(level.EffectsQuality, ambient.EffectsQuality)
	level.FoliageQuality = minKnob(level.FoliageQuality, ambient.FoliageQuality)
	level.ShadingQuality = minKnob(level.ShadingQuality, ambient.ShadingQuality)

	return level
}

func minKnob(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// TierForHeadroom maps a headroom sample onto a tier. The intervals are
// fixed and deliberately non-hysteretic: a value oscillating across a
// boundary flips the tier every poll. That matches the historical behavior
// exactly and is kept literal on purpose.
func TierForHeadroom(headroom float64) int {
	switch {
	case headroom < 0.75:
		return 3
	case headroom < 0.85:
		return 2
	case headroom < 0.95:
		return 1
	default:
		return 0
	}
}

// TierForStatus maps a discrete throttling status onto a tier: each
// severity step lowers the tier by one, clamped to the ladder bounds.
func TierForStatus(status thermal.Status) int {
	return ClampTier(TierCount - 1 - int(status))
}

// ClampTier clamps a tier index into [0, TierCount-1].
func ClampTier(tier int) int {
	if tier < 0 {
		return 0
	}
	if tier > TierCount-1 {
		return TierCount - 1
	}

	return tier
}
