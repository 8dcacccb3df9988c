package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/dispatch"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

// Dispatcher runs device calls. Implemented by *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, call dispatch.Call) (dispatch.Result, error)
	History(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error)
}

// DeviceHandler handles device-control HTTP requests
type DeviceHandler struct {
	dispatcher Dispatcher
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(dispatcher Dispatcher) *DeviceHandler {
	return &DeviceHandler{dispatcher: dispatcher}
}

// SetRFSettings applies frequency and gain to a device
func (h *DeviceHandler) SetRFSettings(ctx context.Context, req *models.SetRFSettingsRequest) (*models.SetRFSettingsResponse, error) {
	call := dispatch.SetRFSettings{
		DeviceID:  req.ID,
		Frequency: models.DecodeSetting(req.Body.Frequency),
		Gain:      models.DecodeSetting(req.Body.Gain),
	}
	res, err := h.dispatcher.Dispatch(ctx, call)
	if err != nil {
		return nil, toHumaError(err, "Failed to apply settings")
	}
	settings := res.(dispatch.SettingsResult)
	return &models.SetRFSettingsResponse{Body: settingsBody(settings)}, nil
}

// GetDeviceStatus returns the current tuning state of a device
func (h *DeviceHandler) GetDeviceStatus(ctx context.Context, req *models.DeviceRequest) (*models.DeviceStatusResponse, error) {
	res, err := h.dispatcher.Dispatch(ctx, dispatch.GetDeviceStatus{DeviceID: req.ID})
	if err != nil {
		return nil, toHumaError(err, "Failed to get device status")
	}
	return &models.DeviceStatusResponse{Body: statusBody(res.(dispatch.StatusResult).Status)}, nil
}

// GetDevicePPString returns the pretty-printed device state
func (h *DeviceHandler) GetDevicePPString(ctx context.Context, req *models.DeviceRequest) (*models.PPStringResponse, error) {
	res, err := h.dispatcher.Dispatch(ctx, dispatch.GetDevicePPString{DeviceID: req.ID})
	if err != nil {
		return nil, toHumaError(err, "Failed to get device description")
	}
	return &models.PPStringResponse{Body: models.PPStringBody{
		DeviceID: req.ID,
		PPString: res.(dispatch.PPStringResult).PPString,
	}}, nil
}

// GetGainRange returns the supported gain range
func (h *DeviceHandler) GetGainRange(ctx context.Context, req *models.DeviceRequest) (*models.RangeResponse, error) {
	return h.getRange(ctx, dispatch.GetGainRange{DeviceID: req.ID})
}

// GetFrequencyRange returns the supported frequency range
func (h *DeviceHandler) GetFrequencyRange(ctx context.Context, req *models.DeviceRequest) (*models.RangeResponse, error) {
	return h.getRange(ctx, dispatch.GetFrequencyRange{DeviceID: req.ID})
}

func (h *DeviceHandler) getRange(ctx context.Context, call dispatch.Call) (*models.RangeResponse, error) {
	res, err := h.dispatcher.Dispatch(ctx, call)
	if err != nil {
		return nil, toHumaError(err, "Failed to get range")
	}
	return &models.RangeResponse{Body: rangeBody(call.Device(), res.(dispatch.RangeResult).Range)}, nil
}

// GetDeviceInformation returns hardware details
func (h *DeviceHandler) GetDeviceInformation(ctx context.Context, req *models.DeviceRequest) (*models.InformationResponse, error) {
	res, err := h.dispatcher.Dispatch(ctx, dispatch.GetDeviceInformation{DeviceID: req.ID})
	if err != nil {
		return nil, toHumaError(err, "Failed to get device information")
	}
	return &models.InformationResponse{Body: informationBody(req.ID, res.(dispatch.InformationResult).Information)}, nil
}

// GetSettingsHistory lists applied settings changes, newest first
func (h *DeviceHandler) GetSettingsHistory(ctx context.Context, req *models.GetSettingsHistoryRequest) (*models.GetSettingsHistoryResponse, error) {
	changes, err := h.dispatcher.History(ctx, req.ID, req.Limit)
	if err != nil {
		return nil, toHumaError(err, "Failed to get settings history")
	}
	resp := &models.GetSettingsHistoryResponse{}
	resp.Body.DeviceID = req.ID
	resp.Body.Changes = changes
	return resp, nil
}

// Dispatch invokes any method by its wire name
func (h *DeviceHandler) Dispatch(ctx context.Context, req *models.DispatchRequest) (*models.DispatchResponse, error) {
	method, err := dispatch.ParseMethod(req.Method)
	if err != nil {
		log.Warn().Str("method", req.Method).Msg("Unknown method requested")
		return nil, toHumaError(err, "Unknown method")
	}
	call, err := dispatch.NewCall(method, req.Body.DeviceID,
		models.DecodeSetting(req.Body.Frequency), models.DecodeSetting(req.Body.Gain))
	if err != nil {
		return nil, toHumaError(err, "Unknown method")
	}

	res, err := h.dispatcher.Dispatch(ctx, call)
	if err != nil {
		return nil, toHumaError(err, "Call failed")
	}

	body, err := resultBody(call.Device(), res)
	if err != nil {
		return nil, huma.Error500InternalServerError("Call failed", err)
	}

	resp := &models.DispatchResponse{}
	resp.Body.Method = method.String()
	resp.Body.Result = body
	return resp, nil
}

// resultBody converts a dispatch result to its wire body
func resultBody(deviceID string, res dispatch.Result) (any, error) {
	switch r := res.(type) {
	case dispatch.SettingsResult:
		return settingsBody(r), nil
	case dispatch.StatusResult:
		return statusBody(r.Status), nil
	case dispatch.PPStringResult:
		return models.PPStringBody{DeviceID: deviceID, PPString: r.PPString}, nil
	case dispatch.RangeResult:
		return rangeBody(deviceID, r.Range), nil
	case dispatch.InformationResult:
		return informationBody(deviceID, r.Information), nil
	default:
		return nil, fmt.Errorf("unhandled result type %T", res)
	}
}

func settingsBody(r dispatch.SettingsResult) models.SetRFSettingsResponseBody {
	return models.SetRFSettingsResponseBody{
		Success:   r.Success,
		Message:   r.Message,
		Frequency: fieldResult(r.Frequency),
		Gain:      fieldResult(r.Gain),
	}
}

func fieldResult(f dispatch.FieldOutcome) models.FieldResult {
	out := models.FieldResult{OK: f.OK, Changed: f.Changed, Message: f.Message}
	if f.Code != 0 {
		out.Code = f.Code.String()
	}
	return out
}

func statusBody(s device.Status) models.DeviceStatusBody {
	return models.DeviceStatusBody{
		DeviceID:  s.ID,
		Frequency: s.Frequency,
		Gain:      s.Gain,
		RefLocked: s.RefLocked,
		LOLocked:  s.LOLocked,
	}
}

func rangeBody(deviceID string, r device.Range) models.RangeBody {
	return models.RangeBody{DeviceID: deviceID, MinValue: r.Min, MaxValue: r.Max}
}

func informationBody(deviceID string, info device.Information) models.InformationBody {
	return models.InformationBody{
		DeviceID:         deviceID,
		Manufacturer:     info.Manufacturer,
		Model:            info.Model,
		SerialNumber:     info.SerialNumber,
		FirmwareRevision: info.FirmwareRevision,
	}
}
