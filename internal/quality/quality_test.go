package quality_test

import (
	"testing"

	"codeberg.org/mutker/thermalctl/internal/quality"
	"codeberg.org/mutker/thermalctl/internal/thermal"
	"github.com/stretchr/testify/assert"
)

func TestTierForHeadroomThresholds(t *testing.T) {
	tests := []struct {
		name     string
		headroom float64
		tier     int
	}{
		{"well below first boundary", 0.0, 3},
		{"just below first boundary", 0.7499999, 3},
		{"exactly first boundary", 0.75, 2},
		{"just below second boundary", 0.8499999, 2},
		{"exactly second boundary", 0.85, 1},
		{"just below third boundary", 0.9499999, 1},
		{"exactly third boundary", 0.95, 0},
		{"above one", 1.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tier, quality.TierForHeadroom(tt.headroom))
		})
	}
}

func TestTierForHeadroomIsDeterministic(t *testing.T) {
	for _, h := range []float64{0.1, 0.75, 0.85, 0.95, 2.0} {
		assert.Equal(t, quality.TierForHeadroom(h), quality.TierForHeadroom(h))
	}
}

func TestTierForStatus(t *testing.T) {
	assert.Equal(t, 3, quality.TierForStatus(thermal.StatusNone))
	assert.Equal(t, 2, quality.TierForStatus(thermal.StatusLight))
	assert.Equal(t, 1, quality.TierForStatus(thermal.StatusModerate))
	assert.Equal(t, 0, quality.TierForStatus(thermal.StatusSevere))
	// Severities beyond the ladder clamp to the boundary tiers.
	assert.Equal(t, 0, quality.TierForStatus(thermal.StatusShutdown))
	assert.Equal(t, 3, quality.TierForStatus(thermal.StatusError))
}

func TestBuildLadderClampsToAmbient(t *testing.T) {
	ambient := quality.Level{
		ResolutionQuality:   80,
		ViewDistanceQuality: 2,
		ShadowQuality:       1,
		AntiAliasingQuality: 3,
		PostProcessQuality:  2,
		TextureQuality:      2,
		EffectsQuality:      1,
		FoliageQuality:      0,
		ShadingQuality:      2,
	}

	ladder := quality.BuildLadder(ambient)

	for tier := 0; tier < quality.TierCount; tier++ {
		level := ladder[tier]
		assert.LessOrEqual(t, level.ResolutionQuality, ambient.ResolutionQuality, "tier %d resolution", tier)
		assert.LessOrEqual(t, level.ViewDistanceQuality, ambient.ViewDistanceQuality, "tier %d view distance", tier)
		assert.LessOrEqual(t, level.ShadowQuality, ambient.ShadowQuality, "tier %d shadow", tier)
		assert.LessOrEqual(t, level.AntiAliasingQuality, ambient.AntiAliasingQuality, "tier %d anti-aliasing", tier)
		assert.LessOrEqual(t, level.PostProcessQuality, ambient.PostProcessQuality, "tier %d post-process", tier)
		assert.LessOrEqual(t, level.TextureQuality, ambient.TextureQuality, "tier %d texture", tier)
		assert.LessOrEqual(t, level.EffectsQuality, ambient.EffectsQuality, "tier %d effects", tier)
		assert.LessOrEqual(t, level.FoliageQuality, ambient.FoliageQuality, "tier %d foliage", tier)
		assert.LessOrEqual(t, level.ShadingQuality, ambient.ShadingQuality, "tier %d shading", tier)
	}

	// Tiers below the ambient baseline keep their stock values.
	assert.Equal(t, 50.0, ladder[2].ResolutionQuality)
	assert.Equal(t, 1, ladder[2].ShadowQuality)
}

func TestBuildLadderIsIdempotent(t *testing.T) {
	ambient := quality.Level{
		ResolutionQuality:   90,
		ViewDistanceQuality: 3,
		ShadowQuality:       2,
		AntiAliasingQuality: 2,
		PostProcessQuality:  3,
		TextureQuality:      3,
		EffectsQuality:      2,
		FoliageQuality:      1,
		ShadingQuality:      3,
	}

	assert.Equal(t, quality.BuildLadder(ambient), quality.BuildLadder(ambient))
}

func TestStandardLevelOrdering(t *testing.T) {
	for tier := 1; tier < quality.TierCount; tier++ {
		higher := quality.StandardLevel(tier - 1)
		lower := quality.StandardLevel(tier)
		assert.Greater(t, higher.ResolutionQuality, lower.ResolutionQuality)
		assert.GreaterOrEqual(t, higher.ShadowQuality, lower.ShadowQuality)
	}
}

func TestClampTier(t *testing.T) {
	assert.Equal(t, 0, quality.ClampTier(-1))
	assert.Equal(t, 2, quality.ClampTier(2))
	assert.Equal(t, quality.TierCount-1, quality.ClampTier(quality.TierCount))
}
