package controller

import (
	"time"

	"codeberg.org/mutker/thermalctl/internal/config"
)

// FrameStats is what the frame-timing collaborator supplies for one tick:
// measured per-workload durations (nanoseconds; non-positive means the
// workload did not run this tick), the configured frame-rate cap (0 or
// negative = uncapped) and an average-FPS diagnostic value.
type FrameStats struct {
	GameNs            int64
	RenderNs          int64
	GraphicsBackendNs int64
	MaxFPS            float64
	AverageFPS        float64
}

// Settings are the externally owned runtime toggles. They may be swapped
// at any time from any goroutine via UpdateSettings; the controller reads
// one consistent snapshot at the top of each tick.
type Settings struct {
	Enabled      bool
	HintSessions bool
	QualityMode  config.QualityMode
	PollInterval time.Duration
}

// DefaultSettings returns the stock toggles: everything on, headroom mode,
// one-second polling.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		HintSessions: true,
		QualityMode:  config.QualityModeHeadroom,
		PollInterval: time.Second,
	}
}

// SettingsFromConfig derives controller settings from the loaded
// configuration.
func SettingsFromConfig(cfg config.Provider) Settings {
	return Settings{
		Enabled:      cfg.IsEnabled(),
		HintSessions: cfg.IsHintSessionsEnabled(),
		QualityMode:  cfg.GetQualityMode(),
		PollInterval: time.Duration(cfg.GetPollInterval()) * time.Second,
	}
}
