package thermal

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/thermalctl/internal/logger"
)

const defaultSysfsRoot = "/sys/class/thermal"

// sysfsZone is one usable thermal zone: a temperature file plus the trip
// point (millidegrees) at which the kernel starts throttling.
type sysfsZone struct {
	name     string
	tempPath string
	tripTemp float64
}

// SysfsProvider is the native signal source. It derives status and headroom
// from the kernel thermal sysfs zones; the throttling trip point of each
// zone is the 1.0 headroom mark. Sysfs exposes no forecast facility, so the
// forecast horizon is always zero and push callbacks are unsupported.
type SysfsProvider struct {
	root  string
	zones []sysfsZone
}

func NewSysfsProvider() *SysfsProvider {
	return NewSysfsProviderAt(defaultSysfsRoot)
}

// NewSysfsProviderAt exists for tests that stage a fake sysfs tree.
func NewSysfsProviderAt(root string) *SysfsProvider {
	return &SysfsProvider{root: root}
}

func (*SysfsProvider) Name() string {
	return "sysfs"
}

func (p *SysfsProvider) Probe() bool {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return false
	}

	p.zones = p.zones[:0]
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "thermal_zone") {
			continue
		}

		zoneDir := filepath.Join(p.root, entry.Name())
		tempPath := filepath.Join(zoneDir, "temp")
		if _, err := readMilli(tempPath); err != nil {
			continue
		}

		trip, ok := throttleTripTemp(zoneDir)
		if !ok {
			continue
		}

		p.zones = append(p.zones, sysfsZone{
			name:     entry.Name(),
			tempPath: tempPath,
			tripTemp: trip,
		})
	}

	if len(p.zones) == 0 {
		return false
	}

	logger.Debug().Msgf("Detected thermal zones: %d", len(p.zones))

	return true
}

func (p *SysfsProvider) GetStatus() Status {
	headroom := p.GetHeadroom(0)
	if math.IsNaN(headroom) {
		return StatusError
	}

	return statusForRatio(headroom)
}

// GetHeadroom reports the worst zone: current temperature over trip
// temperature. The forecast argument is accepted for contract parity but
// sysfs cannot look ahead.
func (p *SysfsProvider) GetHeadroom(_ int) float64 {
	headroom := math.NaN()
	for i := range p.zones {
		temp, err := readMilli(p.zones[i].tempPath)
		if err != nil {
			continue
		}

		ratio := temp / p.zones[i].tripTemp
		if math.IsNaN(headroom) || ratio > headroom {
			headroom = ratio
		}
	}

	return headroom
}

func (*SysfsProvider) RegisterCallback(Callback) bool {
	return false
}

func (*SysfsProvider) UnregisterCallback() {}

func (p *SysfsProvider) Release() {
	p.zones = nil
}

// throttleTripTemp returns the temperature at which the zone starts
// throttling: the passive trip point when present, otherwise hot, otherwise
// critical.
func throttleTripTemp(zoneDir string) (float64, bool) {
	var passive, hot, critical float64

	for i := 0; ; i++ {
		typePath := filepath.Join(zoneDir, fmt.Sprintf("trip_point_%d_type", i))
		tripType, err := os.ReadFile(typePath)
		if err != nil {
			break
		}

		temp, err := readMilli(filepath.Join(zoneDir, fmt.Sprintf("trip_point_%d_temp", i)))
		if err != nil || temp <= 0 {
			continue
		}

		switch strings.TrimSpace(string(tripType)) {
		case "passive":
			if passive == 0 || temp < passive {
				passive = temp
			}
		case "hot":
			if hot == 0 || temp < hot {
				hot = temp
			}
		case "critical":
			if critical == 0 || temp < critical {
				critical = temp
			}
		}
	}

	for _, trip := range []float64{passive, hot, critical} {
		if trip > 0 {
			return trip, true
		}
	}

	return 0, false
}

// readMilli reads a sysfs integer attribute expressed in millidegrees.
func readMilli(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, err
	}

	return float64(value), nil
}

// statusForRatio maps a headroom ratio onto the discrete status ladder.
// The bands mirror how the platform thermal service grades severity around
// the throttling limit.
func statusForRatio(ratio float64) Status {
	switch {
	case ratio < 0.65:
		return StatusNone
	case ratio < 0.80:
		return StatusLight
	case ratio < 0.90:
		return StatusModerate
	case ratio < 1.00:
		return StatusSevere
	case ratio < 1.05:
		return StatusCritical
	case ratio < 1.10:
		return StatusEmergency
	default:
		return StatusShutdown
	}
}
