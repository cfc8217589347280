package gpu

import (
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Info holds the detected inference device capability.
type Info struct {
	Device string `json:"device"` // "cuda" or "cpu"
	Driver string `json:"driver"` // kernel driver name, "" if none found
}

var (
	cached     *Info
	detectOnce sync.Once
)

// Detect probes sysfs for an NVIDIA GPU usable by faster-whisper.
// The probe runs once; later calls return the cached result.
func Detect() *Info {
	detectOnce.Do(func() {
		cached = detect()
		log.Printf("[gpu] detected: device=%s driver=%q", cached.Device, cached.Driver)
	})
	return cached
}

func detect() *Info {
	info := &Info{Device: "cpu"}

	// The proc node exists whenever the nvidia driver is loaded.
	if _, err := os.Stat("/proc/driver/nvidia"); err == nil {
		info.Device = "cuda"
		info.Driver = "nvidia"
		return info
	}

	// Fall back to scanning DRM cards for an nvidia-bound device.
	cards, err := filepath.Glob("/sys/class/drm/card[0-9]*/device/driver")
	if err != nil {
		return info
	}
	for _, link := range cards {
		target, err := os.Readlink(link)
		if err != nil {
			continue
		}
		if filepath.Base(target) == "nvidia" {
			info.Device = "cuda"
			info.Driver = "nvidia"
			break
		}
	}
	return info
}
