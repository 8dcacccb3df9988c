package device

import (
	"context"
)

// Status is a point-in-time snapshot of a device's tuning state
type Status struct {
	ID        string  `json:"device_id" doc:"Device identifier"`
	Frequency float64 `json:"frequency" doc:"Center frequency in Hz"`
	Gain      float64 `json:"gain" doc:"Receive gain in dB"`
	RefLocked bool    `json:"ref_locked" doc:"Reference clock locked"`
	LOLocked  bool    `json:"lo_locked" doc:"Local oscillator locked"`
}

// Range is an inclusive min/max pair used for gain and frequency limits
type Range struct {
	Min float64 `json:"min_value" doc:"Lower bound"`
	Max float64 `json:"max_value" doc:"Upper bound"`
}

// Information describes the hardware behind a device
type Information struct {
	Manufacturer     string `json:"manufacturer" doc:"Device manufacturer"`
	Model            string `json:"model" doc:"Device model"`
	SerialNumber     string `json:"serial_number" doc:"Serial number"`
	FirmwareRevision string `json:"firmware_revision" doc:"Firmware revision"`
}

// Device is one controllable RF device, real or simulated.
//
// Implementations are not required to be safe for concurrent use; the registry
// serializes access per device.
type Device interface {
	// SetFrequency tunes the device. Values <= 0 are rejected without changing state.
	SetFrequency(hz float64) (bool, string)
	// SetGain sets the receive gain. Values <= 0 are rejected without changing state.
	SetGain(db float64) (bool, string)
	Status() Status
	PPString() string
	GainRange() Range
	FrequencyRange() Range
}

// Informer is implemented by devices that can describe their hardware
type Informer interface {
	Information() Information
}

// Prober discovers attached hardware at startup
type Prober interface {
	Name() string
	Probe(ctx context.Context) (map[string]Device, error)
}
