package device

import (
	"context"
	"fmt"
)

const (
	simulatedFrequency = 1e6
	simulatedGain      = 10
)

// Simulated is a software device with fixed ranges and always-locked oscillators.
// It lets clients validate the protocol without real hardware.
type Simulated struct {
	id        string
	frequency float64
	gain      float64
	refLocked bool
	loLocked  bool
}

// NewSimulated creates a simulated device tuned to 1 MHz with 10 dB gain
func NewSimulated(id string) *Simulated {
	return &Simulated{
		id:        id,
		frequency: simulatedFrequency,
		gain:      simulatedGain,
		refLocked: true,
		loLocked:  true,
	}
}

func (s *Simulated) SetFrequency(hz float64) (bool, string) {
	if hz <= 0 {
		return false, "Frequency must be greater than zero"
	}
	s.frequency = hz
	return true, "Frequency set successfully"
}

func (s *Simulated) SetGain(db float64) (bool, string) {
	if db <= 0 {
		return false, "Gain must be greater than zero"
	}
	s.gain = db
	return true, "Gain set successfully"
}

func (s *Simulated) Status() Status {
	return Status{
		ID:        s.id,
		Frequency: s.frequency,
		Gain:      s.gain,
		RefLocked: s.refLocked,
		LOLocked:  s.loLocked,
	}
}

func (s *Simulated) PPString() string {
	return fmt.Sprintf("Mock Device\nDevice ID: %s\nFrequency: %g Hz\nGain: %g dB\nReference Locked: %t\nLO Locked: %t",
		s.id, s.frequency, s.gain, s.refLocked, s.loLocked)
}

func (s *Simulated) GainRange() Range {
	return Range{Min: 1, Max: 30}
}

func (s *Simulated) FrequencyRange() Range {
	return Range{Min: 1e3, Max: 2e9}
}

func (s *Simulated) Information() Information {
	return Information{
		Manufacturer:     "XRComm",
		Model:            "FlexSDR S8010-01",
		SerialNumber:     "123456",
		FirmwareRevision: "Alpha 1",
	}
}

// SimulatedProber registers one simulated device per configured id
type SimulatedProber struct {
	IDs []string
}

func (p SimulatedProber) Name() string { return "simulated" }

func (p SimulatedProber) Probe(ctx context.Context) (map[string]Device, error) {
	devices := make(map[string]Device, len(p.IDs))
	for _, id := range p.IDs {
		if id == "" {
			continue
		}
		devices[id] = NewSimulated(id)
	}
	return devices, nil
}
