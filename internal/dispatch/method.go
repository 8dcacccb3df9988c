package dispatch

import (
	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// Method identifies one unary RPC of the device-control surface
type Method int

const (
	MethodSetRFSettings Method = iota + 1
	MethodGetDeviceStatus
	MethodGetDevicePPString
	MethodGetGainRange
	MethodGetFrequencyRange
	MethodGetDeviceInformation
)

// Methods lists every dispatchable method in wire order
var Methods = []Method{
	MethodSetRFSettings,
	MethodGetDeviceStatus,
	MethodGetDevicePPString,
	MethodGetGainRange,
	MethodGetFrequencyRange,
	MethodGetDeviceInformation,
}

// String returns the wire name of the method
func (m Method) String() string {
	switch m {
	case MethodSetRFSettings:
		return "setRFSettings"
	case MethodGetDeviceStatus:
		return "getDeviceStatus"
	case MethodGetDevicePPString:
		return "getDevicePPString"
	case MethodGetGainRange:
		return "getGainRange"
	case MethodGetFrequencyRange:
		return "getFrequencyRange"
	case MethodGetDeviceInformation:
		return "getDeviceInformation"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of Methods
func (m Method) Valid() bool {
	return m >= MethodSetRFSettings && m <= MethodGetDeviceInformation
}

// ParseMethod maps a wire name to a Method. Names are case-sensitive.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if m.String() == name {
			return m, nil
		}
	}
	// getPPString is accepted as an alias for older clients
	if name == "getPPString" {
		return MethodGetDevicePPString, nil
	}
	return 0, rferr.New(rferr.UnknownMethod, "method %q is not supported", name)
}

// Call is one dispatchable request. The set of implementations is closed.
type Call interface {
	Method() Method
	Device() string
	isCall()
}

// SetRFSettings changes frequency and/or gain. A nil field is left unchanged.
type SetRFSettings struct {
	DeviceID  string
	Frequency *float64
	Gain      *float64
}

type GetDeviceStatus struct{ DeviceID string }

type GetDevicePPString struct{ DeviceID string }

type GetGainRange struct{ DeviceID string }

type GetFrequencyRange struct{ DeviceID string }

type GetDeviceInformation struct{ DeviceID string }

func (SetRFSettings) Method() Method        { return MethodSetRFSettings }
func (GetDeviceStatus) Method() Method      { return MethodGetDeviceStatus }
func (GetDevicePPString) Method() Method    { return MethodGetDevicePPString }
func (GetGainRange) Method() Method         { return MethodGetGainRange }
func (GetFrequencyRange) Method() Method    { return MethodGetFrequencyRange }
func (GetDeviceInformation) Method() Method { return MethodGetDeviceInformation }

func (c SetRFSettings) Device() string        { return c.DeviceID }
func (c GetDeviceStatus) Device() string      { return c.DeviceID }
func (c GetDevicePPString) Device() string    { return c.DeviceID }
func (c GetGainRange) Device() string         { return c.DeviceID }
func (c GetFrequencyRange) Device() string    { return c.DeviceID }
func (c GetDeviceInformation) Device() string { return c.DeviceID }

func (SetRFSettings) isCall()        {}
func (GetDeviceStatus) isCall()      {}
func (GetDevicePPString) isCall()    {}
func (GetGainRange) isCall()         {}
func (GetFrequencyRange) isCall()    {}
func (GetDeviceInformation) isCall() {}

// NewCall builds the Call variant for m
func NewCall(m Method, deviceID string, frequency, gain *float64) (Call, error) {
	switch m {
	case MethodSetRFSettings:
		return SetRFSettings{DeviceID: deviceID, Frequency: frequency, Gain: gain}, nil
	case MethodGetDeviceStatus:
		return GetDeviceStatus{DeviceID: deviceID}, nil
	case MethodGetDevicePPString:
		return GetDevicePPString{DeviceID: deviceID}, nil
	case MethodGetGainRange:
		return GetGainRange{DeviceID: deviceID}, nil
	case MethodGetFrequencyRange:
		return GetFrequencyRange{DeviceID: deviceID}, nil
	case MethodGetDeviceInformation:
		return GetDeviceInformation{DeviceID: deviceID}, nil
	default:
		return nil, rferr.New(rferr.UnknownMethod, "method %d is not supported", int(m))
	}
}

// Result is the typed payload of a successful dispatch
type Result interface {
	isResult()
}

// FieldOutcome is the result of setting one field
type FieldOutcome struct {
	OK      bool       `json:"ok" doc:"Whether the field was accepted"`
	Changed bool       `json:"changed" doc:"Whether the device state was modified"`
	Message string     `json:"message" doc:"Per-field outcome message"`
	Code    rferr.Code `json:"-"` // InvalidFieldValue for a rejected field, zero otherwise
}

// SettingsResult is the response envelope of setRFSettings
type SettingsResult struct {
	Success   bool
	Message   string
	Frequency FieldOutcome
	Gain      FieldOutcome
}

type StatusResult struct{ Status device.Status }

type PPStringResult struct{ PPString string }

type RangeResult struct{ Range device.Range }

type InformationResult struct{ Information device.Information }

func (SettingsResult) isResult()    {}
func (StatusResult) isResult()      {}
func (PPStringResult) isResult()    {}
func (RangeResult) isResult()       {}
func (InformationResult) isResult() {}
