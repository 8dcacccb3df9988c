package models

import (
	"time"
)

// Unchanged is the wire value for "leave this setting as it is"
const Unchanged = -9999.0

// DecodeSetting maps a wire value to an optional setting. An absent value and the
// Unchanged sentinel decode to nil; every other value, including zero and
// negatives, is passed on.
func DecodeSetting(v *float64) *float64 {
	if v == nil || *v == Unchanged {
		return nil
	}
	out := *v
	return &out
}

// EncodeSetting is the inverse of DecodeSetting: nil is sent as Unchanged
func EncodeSetting(v *float64) *float64 {
	out := Unchanged
	if v != nil {
		out = *v
	}
	return &out
}

// HealthBody reports service status and the limits clients should size streams by
type HealthBody struct {
	Status        string    `json:"status" example:"healthy" doc:"Service health status"`
	Version       string    `json:"version" example:"1.0.0" doc:"API version"`
	Devices       []string  `json:"devices" doc:"Registered device IDs"`
	DataChunkSize int       `json:"data_chunk_size" example:"1048576" doc:"Largest accepted TransferData chunk in bytes"`
	FFTChunkSize  int       `json:"fft_chunk_size" example:"1000" doc:"Most coefficient pairs accepted per FFT chunk"`
	StreamStore   bool      `json:"stream_store" doc:"Whether completed streams are stored"`
	Time          time.Time `json:"time" doc:"Current server time"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Body HealthBody
}

// DeviceRequest addresses a single device
type DeviceRequest struct {
	ID string `path:"id" doc:"Device ID"`
}

// RFSettingsBody carries the requested frequency and gain
type RFSettingsBody struct {
	Frequency *float64 `json:"frequency,omitempty" doc:"Center frequency in Hz, -9999 or absent to leave unchanged"`
	Gain      *float64 `json:"gain,omitempty" doc:"Gain in dB, -9999 or absent to leave unchanged"`
}

// SetRFSettingsRequest represents a request to change a device's tuning
type SetRFSettingsRequest struct {
	ID   string `path:"id" doc:"Device ID"`
	Body RFSettingsBody
}

// FieldResult is the outcome for one setting
type FieldResult struct {
	OK      bool   `json:"ok" doc:"Whether the value was accepted"`
	Changed bool   `json:"changed" doc:"Whether the device state was modified"`
	Message string `json:"message" doc:"Outcome message"`
	Code    string `json:"code,omitempty" example:"invalid_field_value" doc:"Error code when the value was rejected"`
}

// SetRFSettingsResponseBody is the body of the settings response
type SetRFSettingsResponseBody struct {
	Success   bool        `json:"success" doc:"True when every requested field was accepted"`
	Message   string      `json:"message" doc:"Human-readable summary of both fields"`
	Frequency FieldResult `json:"frequency" doc:"Frequency outcome"`
	Gain      FieldResult `json:"gain" doc:"Gain outcome"`
}

// SetRFSettingsResponse represents the result of a settings change
type SetRFSettingsResponse struct {
	Body SetRFSettingsResponseBody
}

// DeviceStatusBody is a snapshot of a device's tuning state
type DeviceStatusBody struct {
	DeviceID  string  `json:"device_id" doc:"Device ID"`
	Frequency float64 `json:"frequency" doc:"Center frequency in Hz"`
	Gain      float64 `json:"gain" doc:"Gain in dB"`
	RefLocked bool    `json:"ref_locked" doc:"Reference clock locked"`
	LOLocked  bool    `json:"lo_locked" doc:"Local oscillator locked"`
}

// DeviceStatusResponse represents the current status of a device
type DeviceStatusResponse struct {
	Body DeviceStatusBody
}

// PPStringBody holds the pretty-printed device description
type PPStringBody struct {
	DeviceID string `json:"device_id" doc:"Device ID"`
	PPString string `json:"pp_string" doc:"Multi-line description of the device state"`
}

// PPStringResponse represents the pretty-printed device state
type PPStringResponse struct {
	Body PPStringBody
}

// RangeBody is an inclusive range
type RangeBody struct {
	DeviceID string  `json:"device_id" doc:"Device ID"`
	MinValue float64 `json:"min_value" doc:"Lower bound"`
	MaxValue float64 `json:"max_value" doc:"Upper bound"`
}

// RangeResponse represents a gain or frequency range
type RangeResponse struct {
	Body RangeBody
}

// InformationBody describes the hardware behind a device
type InformationBody struct {
	DeviceID         string `json:"device_id" doc:"Device ID"`
	Manufacturer     string `json:"manufacturer" doc:"Device manufacturer"`
	Model            string `json:"model" doc:"Device model"`
	SerialNumber     string `json:"serial_number" doc:"Serial number"`
	FirmwareRevision string `json:"firmware_revision" doc:"Firmware revision"`
}

// InformationResponse represents device hardware information
type InformationResponse struct {
	Body InformationBody
}

// DispatchRequest invokes any method by its wire name
type DispatchRequest struct {
	Method string `path:"method" doc:"Method name, e.g. setRFSettings or getDeviceStatus"`
	Body   struct {
		DeviceID  string   `json:"device_id" required:"true" doc:"Device ID"`
		Frequency *float64 `json:"frequency,omitempty" doc:"setRFSettings only: frequency in Hz, -9999 or absent to leave unchanged"`
		Gain      *float64 `json:"gain,omitempty" doc:"setRFSettings only: gain in dB, -9999 or absent to leave unchanged"`
	}
}

// DispatchResponse wraps the method-specific result
type DispatchResponse struct {
	Body struct {
		Method string `json:"method" doc:"Method that was invoked"`
		Result any    `json:"result" doc:"Method-specific result"`
	}
}
