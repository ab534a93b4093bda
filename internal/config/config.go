package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/thermalctl/internal/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPollInterval = 1
	DefaultQualityMode  = "headroom"
	DefaultLogLevel     = "info"
	DefaultDBPath       = "/var/lib/thermalctl/telemetry.db"

	configEnvVar = "THERMALCTL_CONFIG"
)

// Config holds the runtime toggles and tuning knobs of the adaptive loop.
// The zero value is not usable; obtain instances through Load.
type Config struct {
	Enabled      bool    `mapstructure:"enabled"`
	HintSessions bool    `mapstructure:"hint_sessions"`
	QualityMode  string  `mapstructure:"quality_mode"`
	PollInterval int     `mapstructure:"poll_interval"`
	MaxFPS       float64 `mapstructure:"max_fps"`
	Telemetry    bool    `mapstructure:"telemetry"`
	TelemetryDB  string  `mapstructure:"database"`
	LogLevel     string  `mapstructure:"log_level"`
	Debug        bool    `mapstructure:"debug"`
	Verbose      bool    `mapstructure:"verbose"`

	v *viper.Viper
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	// A fresh flag set per call keeps repeated loads (tests, reloads) from
	// tripping over flag redefinition.
	flags := pflag.NewFlagSet("thermalctl", pflag.ContinueOnError)
	flags.Bool("enabled", true, "Enable thermal-adaptive quality control")
	flags.Bool("hint-sessions", true, "Enable performance hint sessions")
	flags.String("quality-mode", DefaultQualityMode, "Quality adaptation mode: off, headroom or status")
	flags.Int("poll-interval", DefaultPollInterval, "Seconds between thermal headroom refreshes")
	flags.Float64("max-fps", 0, "Frame rate cap (0 or negative = uncapped)")
	flags.Bool("telemetry", false, "Enable telemetry collection")
	flags.String("database", DefaultDBPath, "Path to the telemetry database")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	bindFlag := func(key, flag string) {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Command line flags win over file values.
	bindFlag("enabled", "enabled")
	bindFlag("hint_sessions", "hint-sessions")
	bindFlag("quality_mode", "quality-mode")
	bindFlag("poll_interval", "poll-interval")
	bindFlag("max_fps", "max-fps")
	bindFlag("telemetry", "telemetry")
	bindFlag("database", "database")
	bindFlag("log_level", "log-level")
	bindFlag("debug", "debug")
	bindFlag("verbose", "verbose")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}
	config.v = v

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", true)
	v.SetDefault("hint_sessions", true)
	v.SetDefault("quality_mode", DefaultQualityMode)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("max_fps", 0.0)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", DefaultDBPath)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()

	if path := os.Getenv(configEnvVar); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}

		return nil
	}

	v.SetConfigName("thermalctl")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
	}

	return nil
}

// Validate checks the loaded configuration for invalid values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.PollInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.PollInterval)
	}
	if !QualityMode(c.QualityMode).IsValid() {
		return errFactory.WithData(errors.ErrInvalidQualityMode, c.QualityMode)
	}
	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// Watch re-reads the configuration whenever the underlying file changes and
// hands the freshly unmarshaled result to onChange. Invalid updates are
// dropped. onChange runs on the watcher goroutine; treat the passed config
// as immutable.
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		updated := &Config{}
		if err := c.v.Unmarshal(updated); err != nil {
			return
		}
		if err := updated.Validate(); err != nil {
			return
		}
		updated.v = c.v
		onChange(updated)
	})
	c.v.WatchConfig()
}
