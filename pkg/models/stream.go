package models

// StreamIDHeader carries the id a stored stream can be fetched by. It is set on the
// websocket upgrade response when stream storage is enabled.
const StreamIDHeader = "X-Stream-Id"

// SendFFTCoefficientsRequest carries a complete coefficient set in one call
type SendFFTCoefficientsRequest struct {
	Body struct {
		Real []float64 `json:"real" required:"true" doc:"Real parts"`
		Imag []float64 `json:"imag" required:"true" doc:"Imaginary parts, same length as real"`
	}
}

// SendFFTCoefficientsResponse acknowledges a coefficient set
type SendFFTCoefficientsResponse struct {
	Body struct {
		Status string `json:"status" example:"Success" doc:"Processing status"`
		ID     string `json:"id,omitempty" doc:"Stored set ID, present when stream storage is enabled"`
	}
}

// StoredObjectRequest addresses a stored transfer or coefficient set
type StoredObjectRequest struct {
	Kind string `path:"kind" enum:"transfers,fft" doc:"Stream kind"`
	ID   string `path:"id" doc:"Stream ID from the X-Stream-Id header or the id field"`
}

// StoredObjectResponse returns the stored bytes
type StoredObjectResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// StoredURLResponse holds a pre-signed download link
type StoredURLResponse struct {
	Body struct {
		Key string `json:"key" example:"transfers/0b5f9c1e-4a53-4d1b-9a43-3f1a2b7c8d90.bin" doc:"Object key"`
		URL string `json:"url" doc:"Pre-signed download URL"`
	}
}
