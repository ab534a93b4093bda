package thermal

import (
	"math"

	"codeberg.org/mutker/thermalctl/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVMLProvider is the vendor-SDK signal source. It synthesizes status and
// headroom from the GPU die temperature relative to the driver's slowdown
// threshold, which is where hardware throttling begins. Tried last because
// it only sees the GPU, not the whole device.
type NVMLProvider struct {
	device      nvml.Device
	slowdownC   float64
	initialized bool
}

func NewNVMLProvider() *NVMLProvider {
	return &NVMLProvider{}
}

func (*NVMLProvider) Name() string {
	return "nvml"
}

func (p *NVMLProvider) Probe() bool {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return false
	}
	p.initialized = true

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		p.Release()
		return false
	}
	p.device = device

	slowdown, ret := device.GetTemperatureThreshold(nvml.TEMPERATURE_THRESHOLD_SLOWDOWN)
	if ret != nvml.SUCCESS || slowdown == 0 {
		p.Release()
		return false
	}
	p.slowdownC = float64(slowdown)

	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		logger.Info().Msgf("Detected GPU: %v", name)
	}
	logger.Debug().Msgf("GPU slowdown threshold: %.0f°C", p.slowdownC)

	return true
}

func (p *NVMLProvider) GetStatus() Status {
	headroom := p.GetHeadroom(0)
	if math.IsNaN(headroom) {
		return StatusError
	}

	return statusForRatio(headroom)
}

func (p *NVMLProvider) GetHeadroom(_ int) float64 {
	if !p.initialized {
		return math.NaN()
	}

	temp, ret := p.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		logger.Debug().Msgf("Failed to read GPU temperature: %v", nvml.ErrorString(ret))
		return math.NaN()
	}

	return float64(temp) / p.slowdownC
}

func (*NVMLProvider) RegisterCallback(Callback) bool {
	return false
}

func (*NVMLProvider) UnregisterCallback() {}

func (p *NVMLProvider) Release() {
	if !p.initialized {
		return
	}

	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		logger.Debug().Msgf("NVML shutdown failed: %v", nvml.ErrorString(ret))
	}
	p.initialized = false
}
