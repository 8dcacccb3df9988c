package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/dispatch"
	"github.com/RMahshie/rfcontrol/internal/rferr"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

// MockDispatcher implements Dispatcher for testing
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, call dispatch.Call) (dispatch.Result, error) {
	args := m.Called(ctx, call)
	res, _ := args.Get(0).(dispatch.Result)
	return res, args.Error(1)
}

func (m *MockDispatcher) History(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error) {
	args := m.Called(ctx, deviceID, limit)
	changes, _ := args.Get(0).([]*models.SettingsChange)
	return changes, args.Error(1)
}

func ptr(v float64) *float64 { return &v }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

func TestSetRFSettings(t *testing.T) {
	tests := []struct {
		name      string
		body      models.RFSettingsBody
		wantCall  dispatch.SetRFSettings
		result    dispatch.SettingsResult
		wantOK    bool
		wantFreqC bool
	}{
		{
			name:     "both fields",
			body:     models.RFSettingsBody{Frequency: ptr(2e9), Gain: ptr(15)},
			wantCall: dispatch.SetRFSettings{DeviceID: "mock", Frequency: ptr(2e9), Gain: ptr(15)},
			result: dispatch.SettingsResult{
				Success:   true,
				Message:   "Configs updated successfully\nFrequency: Frequency set successfully\nGain: Gain set successfully",
				Frequency: dispatch.FieldOutcome{OK: true, Changed: true, Message: "Frequency set successfully"},
				Gain:      dispatch.FieldOutcome{OK: true, Changed: true, Message: "Gain set successfully"},
			},
			wantOK:    true,
			wantFreqC: true,
		},
		{
			name:     "sentinel frequency",
			body:     models.RFSettingsBody{Frequency: ptr(models.Unchanged), Gain: ptr(15)},
			wantCall: dispatch.SetRFSettings{DeviceID: "mock", Gain: ptr(15)},
			result: dispatch.SettingsResult{
				Success:   true,
				Frequency: dispatch.FieldOutcome{OK: true, Message: "Unchanged"},
				Gain:      dispatch.FieldOutcome{OK: true, Changed: true, Message: "Gain set successfully"},
			},
			wantOK: true,
		},
		{
			name:     "absent fields",
			body:     models.RFSettingsBody{},
			wantCall: dispatch.SetRFSettings{DeviceID: "mock"},
			result: dispatch.SettingsResult{
				Success:   true,
				Frequency: dispatch.FieldOutcome{OK: true, Message: "Unchanged"},
				Gain:      dispatch.FieldOutcome{OK: true, Message: "Unchanged"},
			},
			wantOK: true,
		},
		{
			name:     "rejected gain",
			body:     models.RFSettingsBody{Frequency: ptr(2e9), Gain: ptr(0)},
			wantCall: dispatch.SetRFSettings{DeviceID: "mock", Frequency: ptr(2e9), Gain: ptr(0)},
			result: dispatch.SettingsResult{
				Success:   false,
				Frequency: dispatch.FieldOutcome{OK: true, Changed: true, Message: "Frequency set successfully"},
				Gain:      dispatch.FieldOutcome{OK: false, Message: "Gain must be greater than zero", Code: rferr.InvalidFieldValue},
			},
			wantOK:    false,
			wantFreqC: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDispatcher := new(MockDispatcher)
			mockDispatcher.On("Dispatch", mock.Anything, tt.wantCall).Return(tt.result, nil)

			handler := NewDeviceHandler(mockDispatcher)
			resp, err := handler.SetRFSettings(context.Background(), &models.SetRFSettingsRequest{ID: "mock", Body: tt.body})

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, resp.Body.Success)
			assert.Equal(t, tt.wantFreqC, resp.Body.Frequency.Changed)
			assert.Equal(t, tt.result.Gain.Message, resp.Body.Gain.Message)
			if tt.result.Gain.OK {
				assert.Empty(t, resp.Body.Gain.Code)
			} else {
				assert.Equal(t, "invalid_field_value", resp.Body.Gain.Code)
			}
			mockDispatcher.AssertExpectations(t)
		})
	}
}

func TestDeviceHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"device not found", rferr.NotFound("nope", "mock"), http.StatusBadRequest},
		{"unsupported", rferr.New(rferr.Unsupported, "no information"), http.StatusNotImplemented},
		{"unknown method", rferr.New(rferr.UnknownMethod, "nope"), http.StatusNotImplemented},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDispatcher := new(MockDispatcher)
			mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetDeviceStatus{DeviceID: "nope"}).Return(nil, tt.err)

			handler := NewDeviceHandler(mockDispatcher)
			_, err := handler.GetDeviceStatus(context.Background(), &models.DeviceRequest{ID: "nope"})

			assert.Equal(t, tt.wantStatus, statusOf(t, err))
		})
	}
}

func TestDeviceNotFound_CarriesHint(t *testing.T) {
	mockDispatcher := new(MockDispatcher)
	mockDispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil, rferr.NotFound("sdr-9", "mock"))

	_, err := NewDeviceHandler(mockDispatcher).GetDevicePPString(context.Background(), &models.DeviceRequest{ID: "sdr-9"})

	var model *huma.ErrorModel
	require.True(t, errors.As(err, &model))
	assert.Equal(t, `device "sdr-9" is not connected`, model.Detail)
	require.Len(t, model.Errors, 2)
	assert.Contains(t, model.Errors[1].Message, `please use "mock" as device_id`)
}

func TestReadOnlyHandlers(t *testing.T) {
	mockDispatcher := new(MockDispatcher)
	mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetDeviceStatus{DeviceID: "mock"}).
		Return(dispatch.StatusResult{Status: device.Status{ID: "mock", Frequency: 1e6, Gain: 10, RefLocked: true, LOLocked: true}}, nil)
	mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetGainRange{DeviceID: "mock"}).
		Return(dispatch.RangeResult{Range: device.Range{Min: 1, Max: 30}}, nil)
	mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetFrequencyRange{DeviceID: "mock"}).
		Return(dispatch.RangeResult{Range: device.Range{Min: 1e3, Max: 2e9}}, nil)
	mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetDevicePPString{DeviceID: "mock"}).
		Return(dispatch.PPStringResult{PPString: "Mock Device"}, nil)
	mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetDeviceInformation{DeviceID: "mock"}).
		Return(dispatch.InformationResult{Information: device.Information{Manufacturer: "XRComm", Model: "FlexSDR S8010-01"}}, nil)

	handler := NewDeviceHandler(mockDispatcher)
	ctx := context.Background()
	req := &models.DeviceRequest{ID: "mock"}

	status, err := handler.GetDeviceStatus(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusBody{DeviceID: "mock", Frequency: 1e6, Gain: 10, RefLocked: true, LOLocked: true}, status.Body)

	gain, err := handler.GetGainRange(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RangeBody{DeviceID: "mock", MinValue: 1, MaxValue: 30}, gain.Body)

	freq, err := handler.GetFrequencyRange(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2e9, freq.Body.MaxValue)

	pp, err := handler.GetDevicePPString(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Mock Device", pp.Body.PPString)

	info, err := handler.GetDeviceInformation(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "XRComm", info.Body.Manufacturer)

	mockDispatcher.AssertExpectations(t)
}

func TestDispatch(t *testing.T) {
	t.Run("routes by name", func(t *testing.T) {
		mockDispatcher := new(MockDispatcher)
		mockDispatcher.On("Dispatch", mock.Anything, dispatch.SetRFSettings{DeviceID: "mock", Frequency: ptr(5e8)}).
			Return(dispatch.SettingsResult{Success: true}, nil)

		req := &models.DispatchRequest{Method: "setRFSettings"}
		req.Body.DeviceID = "mock"
		req.Body.Frequency = ptr(5e8)
		req.Body.Gain = ptr(models.Unchanged)

		resp, err := NewDeviceHandler(mockDispatcher).Dispatch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "setRFSettings", resp.Body.Method)
		assert.IsType(t, models.SetRFSettingsResponseBody{}, resp.Body.Result)
		mockDispatcher.AssertExpectations(t)
	})

	t.Run("alias", func(t *testing.T) {
		mockDispatcher := new(MockDispatcher)
		mockDispatcher.On("Dispatch", mock.Anything, dispatch.GetDevicePPString{DeviceID: "mock"}).
			Return(dispatch.PPStringResult{PPString: "pp"}, nil)

		req := &models.DispatchRequest{Method: "getPPString"}
		req.Body.DeviceID = "mock"

		resp, err := NewDeviceHandler(mockDispatcher).Dispatch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "getDevicePPString", resp.Body.Method)
		assert.Equal(t, models.PPStringBody{DeviceID: "mock", PPString: "pp"}, resp.Body.Result)
	})

	t.Run("unknown method never dispatches", func(t *testing.T) {
		mockDispatcher := new(MockDispatcher)

		req := &models.DispatchRequest{Method: "rebootDevice"}
		req.Body.DeviceID = "mock"

		_, err := NewDeviceHandler(mockDispatcher).Dispatch(context.Background(), req)
		assert.Equal(t, http.StatusNotImplemented, statusOf(t, err))
		mockDispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})
}

func TestGetSettingsHistory(t *testing.T) {
	changes := []*models.SettingsChange{{ID: "1", DeviceID: "mock", Field: "gain", Value: 12}}

	mockDispatcher := new(MockDispatcher)
	mockDispatcher.On("History", mock.Anything, "mock", 50).Return(changes, nil)
	mockDispatcher.On("History", mock.Anything, "nope", 50).Return(nil, rferr.NotFound("nope", "mock"))

	handler := NewDeviceHandler(mockDispatcher)

	resp, err := handler.GetSettingsHistory(context.Background(), &models.GetSettingsHistoryRequest{ID: "mock", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, changes, resp.Body.Changes)

	_, err = handler.GetSettingsHistory(context.Background(), &models.GetSettingsHistoryRequest{ID: "nope", Limit: 50})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}
