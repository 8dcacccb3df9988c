package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_RejectsNonPositiveWithoutMutation(t *testing.T) {
	tests := []struct {
		name  string
		apply func(d *Simulated) (bool, string)
		msg   string
	}{
		{"zero frequency", func(d *Simulated) (bool, string) { return d.SetFrequency(0) }, "Frequency must be greater than zero"},
		{"negative frequency", func(d *Simulated) (bool, string) { return d.SetFrequency(-5) }, "Frequency must be greater than zero"},
		{"zero gain", func(d *Simulated) (bool, string) { return d.SetGain(0) }, "Gain must be greater than zero"},
		{"negative gain", func(d *Simulated) (bool, string) { return d.SetGain(-1) }, "Gain must be greater than zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewSimulated("mock")
			before := d.Status()

			ok, msg := tt.apply(d)

			assert.False(t, ok)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, before, d.Status())
		})
	}
}

func TestSimulated_SetUpdatesStatus(t *testing.T) {
	d := NewSimulated("mock")

	ok, msg := d.SetFrequency(2.4e9)
	assert.True(t, ok)
	assert.Equal(t, "Frequency set successfully", msg)

	ok, _ = d.SetGain(20)
	assert.True(t, ok)

	assert.Equal(t, Status{ID: "mock", Frequency: 2.4e9, Gain: 20, RefLocked: true, LOLocked: true}, d.Status())
	assert.Contains(t, d.PPString(), "Device ID: mock")
	assert.Contains(t, d.PPString(), "Gain: 20 dB")
}

func TestSimulated_Ranges(t *testing.T) {
	d := NewSimulated("mock")
	assert.Equal(t, Range{Min: 1, Max: 30}, d.GainRange())
	assert.Equal(t, Range{Min: 1e3, Max: 2e9}, d.FrequencyRange())

	var _ Informer = d
	assert.Equal(t, "XRComm", d.Information().Manufacturer)
}

func TestSimulatedProber(t *testing.T) {
	devices, err := SimulatedProber{IDs: []string{"sim-a", "", "sim-b"}}.Probe(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 2)
	assert.Equal(t, "sim-b", devices["sim-b"].Status().ID)
}
