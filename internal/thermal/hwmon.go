package thermal

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/thermalctl/internal/logger"
)

const defaultHwmonRoot = "/sys/class/hwmon"

// hwmonSensor is one usable temperature channel: an input file plus its
// configured limit (millidegrees).
type hwmonSensor struct {
	name      string
	inputPath string
	limitTemp float64
}

// HwmonProvider is the legacy-service signal source, kept for kernels that
// expose hardware monitoring channels but no thermal zones. It grades
// severity against each channel's max (falling back to crit) limit. No
// push callbacks, no forecast.
type HwmonProvider struct {
	root    string
	sensors []hwmonSensor
}

func NewHwmonProvider() *HwmonProvider {
	return NewHwmonProviderAt(defaultHwmonRoot)
}

// NewHwmonProviderAt exists for tests that stage a fake hwmon tree.
func NewHwmonProviderAt(root string) *HwmonProvider {
	return &HwmonProvider{root: root}
}

func (*HwmonProvider) Name() string {
	return "hwmon"
}

func (p *HwmonProvider) Probe() bool {
	chips, err := os.ReadDir(p.root)
	if err != nil {
		return false
	}

	p.sensors = p.sensors[:0]
	for _, chip := range chips {
		if !strings.HasPrefix(chip.Name(), "hwmon") {
			continue
		}

		chipDir := filepath.Join(p.root, chip.Name())
		entries, err := os.ReadDir(chipDir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, "temp") || !strings.HasSuffix(name, "_input") {
				continue
			}

			inputPath := filepath.Join(chipDir, name)
			if _, err := readMilli(inputPath); err != nil {
				continue
			}

			channel := strings.TrimSuffix(name, "_input")
			limit, ok := sensorLimitTemp(chipDir, channel)
			if !ok {
				continue
			}

			p.sensors = append(p.sensors, hwmonSensor{
				name:      chip.Name() + "/" + channel,
				inputPath: inputPath,
				limitTemp: limit,
			})
		}
	}

	if len(p.sensors) == 0 {
		return false
	}

	logger.Debug().Msgf("Detected hwmon channels: %d", len(p.sensors))

	return true
}

func (p *HwmonProvider) GetStatus() Status {
	headroom := p.GetHeadroom(0)
	if math.IsNaN(headroom) {
		return StatusError
	}

	return statusForRatio(headroom)
}

// GetHeadroom reports the worst channel: current temperature over its
// configured limit.
func (p *HwmonProvider) GetHeadroom(_ int) float64 {
	headroom := math.NaN()
	for i := range p.sensors {
		temp, err := readMilli(p.sensors[i].inputPath)
		if err != nil {
			continue
		}

		ratio := temp / p.sensors[i].limitTemp
		if math.IsNaN(headroom) || ratio > headroom {
			headroom = ratio
		}
	}

	return headroom
}

func (*HwmonProvider) RegisterCallback(Callback) bool {
	return false
}

func (*HwmonProvider) UnregisterCallback() {}

func (p *HwmonProvider) Release() {
	p.sensors = nil
}

func sensorLimitTemp(chipDir, channel string) (float64, bool) {
	for _, suffix := range []string{"_max", "_crit"} {
		limit, err := readMilli(filepath.Join(chipDir, channel+suffix))
		if err == nil && limit > 0 {
			return limit, true
		}
	}

	return 0, false
}
