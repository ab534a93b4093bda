package config

// QualityMode selects how the thermal signal drives the quality tier.
type QualityMode string

const (
	// QualityModeOff disables tier adaptation entirely.
	QualityModeOff QualityMode = "off"
	// QualityModeHeadroom maps the continuous headroom estimate onto tiers.
	QualityModeHeadroom QualityMode = "headroom"
	// QualityModeStatus maps the discrete throttling status onto tiers.
	QualityModeStatus QualityMode = "status"
)

// IsValid returns whether the quality mode is a known value.
func (m QualityMode) IsValid() bool {
	switch m {
	case QualityModeOff, QualityModeHeadroom, QualityModeStatus:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (m QualityMode) String() string {
	return string(m)
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Provider defines read access to configuration values. All values are
// immutable after loading; live updates arrive as whole new snapshots
// through Watch.
type Provider interface {
	// IsEnabled returns whether the adaptive loop is active
	IsEnabled() bool

	// IsHintSessionsEnabled returns whether performance hint sessions are used
	IsHintSessionsEnabled() bool

	// GetQualityMode returns the configured quality adaptation mode
	GetQualityMode() QualityMode

	// GetPollInterval returns the headroom refresh interval in seconds
	GetPollInterval() int

	// GetMaxFPS returns the configured frame rate cap (<= 0 means uncapped)
	GetMaxFPS() float64

	// IsTelemetryEnabled returns whether telemetry collection is enabled
	IsTelemetryEnabled() bool

	// GetTelemetryDBPath returns the path to the telemetry database
	GetTelemetryDBPath() string
}

func (c *Config) IsEnabled() bool             { return c.Enabled }
func (c *Config) IsHintSessionsEnabled() bool { return c.HintSessions }
func (c *Config) GetQualityMode() QualityMode { return QualityMode(c.QualityMode) }
func (c *Config) GetPollInterval() int        { return c.PollInterval }
func (c *Config) GetMaxFPS() float64          { return c.MaxFPS }
func (c *Config) IsTelemetryEnabled() bool    { return c.Telemetry }
func (c *Config) GetTelemetryDBPath() string  { return c.TelemetryDB }
