package backend

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Auto is the device spec that picks the best registered device.
const Auto = "auto"

// acceleratorOrder is the preference order used by Select(Auto).
var acceleratorOrder = []DeviceType{CUDA, ROCm, Metal, Vulkan}

// ParseDevice parses "cpu", "cpu:0", "cuda:1" and similar. The index defaults to 0.
func ParseDevice(spec string) (Device, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return Device{}, fmt.Errorf("device: empty spec")
	}
	name, idx, hasIdx := strings.Cut(spec, ":")
	var dev Device
	found := false
	for t, n := range deviceTypeNames {
		if n == name {
			dev.Type = t
			found = true
			break
		}
	}
	if !found {
		return Device{}, fmt.Errorf("device: unknown device type %q", name)
	}
	if hasIdx {
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 {
			return Device{}, fmt.Errorf("device: bad index %q in %q", idx, spec)
		}
		dev.Index = i
	}
	return dev, nil
}

// Select resolves a device spec to a device with a registered backend.
// "auto" (or "") prefers a registered accelerator and falls back to CPU.
// The CPU has a single index, so "cpu:1" is an error.
func Select(spec string) (Device, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" || s == Auto {
		for _, t := range acceleratorOrder {
			if _, err := Get(t); err == nil {
				return Device{Type: t}, nil
			}
		}
		if _, err := Get(CPU); err != nil {
			return Device{}, err
		}
		log.Printf("backend: no accelerator registered, using %s", CPU0)
		return CPU0, nil
	}
	dev, err := ParseDevice(s)
	if err != nil {
		return Device{}, err
	}
	// host memory is a single device; CPU storage is always cpu:0
	if dev.Type == CPU && dev.Index != 0 {
		return Device{}, fmt.Errorf("device %s: only %s exists", dev, CPU0)
	}
	if _, err := GetForDevice(dev); err != nil {
		return Device{}, fmt.Errorf("device %s: %w", dev, err)
	}
	return dev, nil
}
