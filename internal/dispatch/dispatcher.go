// Package dispatch routes device-control calls to registered devices and builds
// their response envelopes.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/metrics"
	"github.com/RMahshie/rfcontrol/internal/registry"
	"github.com/RMahshie/rfcontrol/internal/repository"
	"github.com/RMahshie/rfcontrol/internal/rferr"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

const unchanged = "Unchanged"

// Dispatcher resolves devices and invokes their capabilities
type Dispatcher struct {
	registry *registry.Registry
	history  repository.SettingsRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithHistory records applied settings changes in repo
func WithHistory(repo repository.SettingsRepository) Option {
	return func(d *Dispatcher) { d.history = repo }
}

// WithMetrics counts dispatched calls
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a dispatcher over reg
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		history:  repository.NopSettingsRepository{},
		logger:   log.With().Str("component", "dispatch").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves the call's device and runs the call against it.
// Resolution failures return before any device capability is invoked.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (Result, error) {
	method := call.Method()
	d.logger.Info().Str("method", method.String()).Str("device_id", call.Device()).Msg("Dispatching call")

	res, err := d.dispatch(ctx, call)
	outcome := "ok"
	if err != nil {
		outcome = rferr.CodeOf(err).String()
		d.logger.Warn().Err(err).Str("method", method.String()).Str("device_id", call.Device()).Msg("Call failed")
	}
	d.metrics.ObserveDispatch(method.String(), outcome)
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, call Call) (Result, error) {
	if !call.Method().Valid() {
		return nil, rferr.New(rferr.UnknownMethod, "method %d is not supported", int(call.Method()))
	}

	entry, err := d.registry.Resolve(call.Device())
	if err != nil {
		return nil, err
	}

	switch c := call.(type) {
	case SetRFSettings:
		return d.applySettings(ctx, entry, c), nil
	case GetDeviceStatus:
		var res StatusResult
		entry.View(func(dev device.Device) { res.Status = dev.Status() })
		return res, nil
	case GetDevicePPString:
		var res PPStringResult
		entry.View(func(dev device.Device) { res.PPString = dev.PPString() })
		return res, nil
	case GetGainRange:
		var res RangeResult
		entry.View(func(dev device.Device) { res.Range = dev.GainRange() })
		return res, nil
	case GetFrequencyRange:
		var res RangeResult
		entry.View(func(dev device.Device) { res.Range = dev.FrequencyRange() })
		return res, nil
	case GetDeviceInformation:
		var res InformationResult
		var supported bool
		entry.View(func(dev device.Device) {
			if inf, ok := dev.(device.Informer); ok {
				res.Information = inf.Information()
				supported = true
			}
		})
		if !supported {
			return nil, rferr.New(rferr.Unsupported, "device %q does not report hardware information", call.Device())
		}
		return res, nil
	default:
		return nil, rferr.New(rferr.UnknownMethod, "method %q is not supported", call.Method().String())
	}
}

// applySettings sets each present field independently. The device stays locked for
// both fields so concurrent calls never leave a mix of their values.
func (d *Dispatcher) applySettings(ctx context.Context, entry *registry.Entry, c SetRFSettings) SettingsResult {
	freq := FieldOutcome{OK: true, Message: unchanged}
	gain := FieldOutcome{OK: true, Message: unchanged}

	entry.Update(func(dev device.Device) {
		if c.Frequency != nil {
			freq = fieldOutcome(dev.SetFrequency(*c.Frequency))
		}
		if c.Gain != nil {
			gain = fieldOutcome(dev.SetGain(*c.Gain))
		}
	})

	if freq.Changed {
		d.record(ctx, entry.ID(), "frequency", *c.Frequency)
	}
	if gain.Changed {
		d.record(ctx, entry.ID(), "gain", *c.Gain)
	}

	res := SettingsResult{
		Success:   freq.OK && gain.OK,
		Frequency: freq,
		Gain:      gain,
	}
	res.Message = fmt.Sprintf("Frequency: %s\nGain: %s", freq.Message, gain.Message)
	if res.Success {
		res.Message = "Configs updated successfully\n" + res.Message
	}
	return res
}

func fieldOutcome(ok bool, msg string) FieldOutcome {
	out := FieldOutcome{OK: ok, Changed: ok, Message: msg}
	if !ok {
		out.Code = rferr.InvalidFieldValue
	}
	return out
}

// record stores a change in the history. Failures do not affect the call.
func (d *Dispatcher) record(ctx context.Context, deviceID, field string, value float64) {
	change := &models.SettingsChange{
		DeviceID:  deviceID,
		Field:     field,
		Value:     value,
		CreatedAt: time.Now(),
	}
	if err := d.history.RecordChange(ctx, change); err != nil {
		d.logger.Error().Err(err).Str("device_id", deviceID).Str("field", field).Msg("Failed to record settings change")
	}
}

// History returns the recorded changes for a resolvable device
func (d *Dispatcher) History(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error) {
	if _, err := d.registry.Resolve(deviceID); err != nil {
		return nil, err
	}
	return d.history.ListChanges(ctx, deviceID, limit)
}

// Registry returns the registry the dispatcher resolves against
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}
