package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// toHumaError maps domain errors to HTTP problem responses
func toHumaError(err error, msg string) error {
	e, ok := rferr.As(err)
	if !ok {
		if errors.Is(err, context.Canceled) {
			return huma.Error503ServiceUnavailable("Request cancelled", err)
		}
		return huma.Error500InternalServerError(msg, err)
	}

	details := []error{&huma.ErrorDetail{Message: e.Detail, Value: e.Code.String()}}
	if e.Hint != "" {
		details = append(details, &huma.ErrorDetail{Message: e.Hint})
	}

	switch e.Code {
	case rferr.UnknownMethod, rferr.Unsupported:
		return huma.Error501NotImplemented(e.Detail, details...)
	case rferr.DeviceNotFound, rferr.InvalidFieldValue, rferr.MalformedChunk, rferr.TruncatedStream:
		return huma.Error400BadRequest(e.Detail, details...)
	default:
		return huma.Error500InternalServerError(msg, details...)
	}
}
