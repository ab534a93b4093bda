package thermal

import "codeberg.org/mutker/thermalctl/internal/logger"

// Select walks the factory list in priority order and returns the first
// provider whose Probe succeeds. Providers that fail their probe are
// released before the next variant is tried. Returns (nil, false) when no
// variant is usable; the caller treats that as a tagged absence, not an
// error. Selection is meant to happen once per process, not per frame.
func Select(factories []Factory) (Provider, bool) {
	for _, factory := range factories {
		provider := factory()
		if provider == nil {
			continue
		}

		if provider.Probe() {
			logger.Info().Msgf("Selected thermal provider: %s", provider.Name())
			return provider, true
		}

		logger.Debug().Msgf("Thermal provider %s not available", provider.Name())
		provider.Release()
	}

	return nil, false
}

// DefaultFactories returns the built-in provider variants in priority
// order: the native thermal sysfs source first, the legacy hwmon source
// second, the vendor SDK source last.
func DefaultFactories() []Factory {
	return []Factory{
		func() Provider { return NewSysfsProvider() },
		func() Provider { return NewHwmonProvider() },
		func() Provider { return NewNVMLProvider() },
	}
}
