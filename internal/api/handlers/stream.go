package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/api/wsconn"
	"github.com/RMahshie/rfcontrol/internal/chunk"
	"github.com/RMahshie/rfcontrol/internal/metrics"
	"github.com/RMahshie/rfcontrol/internal/rferr"
	"github.com/RMahshie/rfcontrol/internal/storage"
	"github.com/RMahshie/rfcontrol/internal/stream"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

const (
	// envelopeBytes covers the JSON fields around a chunk payload
	envelopeBytes = 4 << 10
	// coefficientBytes bounds one JSON encoded float64
	coefficientBytes = 32
)

// Stored object kinds, their key suffix and content type
var storedKinds = map[string]struct{ ext, contentType string }{
	"transfers": {".bin", "application/octet-stream"},
	"fft":       {".json", "application/json"},
}

func storedKey(kind string, id uuid.UUID) string {
	return kind + "/" + id.String() + storedKinds[kind].ext
}

// StreamConfig configures a StreamHandler
type StreamConfig struct {
	Metrics *metrics.Metrics
	// Store receives completed transfers and coefficient sets. Nil disables storing.
	Store          storage.ObjectStore
	Marker         string
	AllowedOrigins []string
	// Largest accepted chunks; zero selects the chunk package defaults
	DataChunkSize int
	FFTChunkSize  int
}

// StreamHandler serves the chunked streaming endpoints
type StreamHandler struct {
	metrics       *metrics.Metrics
	store         storage.ObjectStore
	marker        string
	dataChunkSize int
	fftChunkSize  int
	upgrader      websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(cfg StreamConfig) *StreamHandler {
	marker := cfg.Marker
	if marker == "" {
		marker = stream.DefaultMarker
	}
	dataChunkSize := cfg.DataChunkSize
	if dataChunkSize <= 0 {
		dataChunkSize = chunk.DefaultDataChunkSize
	}
	fftChunkSize := cfg.FFTChunkSize
	if fftChunkSize <= 0 {
		fftChunkSize = chunk.DefaultFFTChunkSize
	}
	origins := cfg.AllowedOrigins
	return &StreamHandler{
		metrics:       cfg.Metrics,
		store:         cfg.Store,
		marker:        marker,
		dataChunkSize: dataChunkSize,
		fftChunkSize:  fftChunkSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 65536,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

// Read limits leave twice the room a full chunk needs, so a moderately oversized
// chunk reaches the session and is rejected with MalformedChunk.
func (h *StreamHandler) transferReadLimit() int64 {
	return int64(2*base64.StdEncoding.EncodedLen(h.dataChunkSize) + envelopeBytes)
}

func (h *StreamHandler) fftReadLimit() int64 {
	return int64(2*2*h.fftChunkSize*coefficientBytes + envelopeBytes)
}

func (h *StreamHandler) session(name string) *stream.Session {
	return stream.NewSession(name, h.metrics, stream.WithChunkLimits(h.dataChunkSize, h.fftChunkSize))
}

// upgrade switches to a websocket, announcing id when the stream will be stored
func (h *StreamHandler) upgrade(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*websocket.Conn, error) {
	header := http.Header{}
	if h.store != nil {
		header.Set(models.StreamIDHeader, id.String())
	}
	return h.upgrader.Upgrade(w, r, header)
}

// TransferData upgrades to a websocket and echoes every data chunk with the marker appended
func (h *StreamHandler) TransferData(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	conn, err := h.upgrade(w, r, id)
	if err != nil {
		log.Warn().Err(err).Msg("TransferData upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.transferReadLimit())

	ctx := r.Context()
	stop := wsconn.Watch(ctx, conn)
	defer stop()

	transform := stream.AppendMarker(h.marker)
	if h.store != nil {
		transform = stream.Store(transform, h.store, storedKey("transfers", id))
	}

	ds := wsconn.New[chunk.DataChunk, chunk.DataChunk](conn)
	err = h.session("transfer").ServeTransfer(ctx, ds, transform)
	h.finish(ctx, conn, err)
}

// StreamFFTCoefficients upgrades to a websocket and acknowledges every coefficient chunk
func (h *StreamHandler) StreamFFTCoefficients(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	conn, err := h.upgrade(w, r, id)
	if err != nil {
		log.Warn().Err(err).Msg("StreamFFTCoefficients upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.fftReadLimit())

	ctx := r.Context()
	stop := wsconn.Watch(ctx, conn)
	defer stop()

	fs := wsconn.New[chunk.FFTChunk, stream.FFTStatus](conn)
	err = h.session("fft").ServeFFT(ctx, fs, h.sink(id))
	h.finish(ctx, conn, err)
}

// SendFFTCoefficients accepts a complete coefficient set in one request
func (h *StreamHandler) SendFFTCoefficients(ctx context.Context, req *models.SendFFTCoefficientsRequest) (*models.SendFFTCoefficientsResponse, error) {
	id := uuid.New()
	// The set arrives whole, so the per-chunk limit does not apply
	status, err := stream.NewSession("fft_unary", h.metrics).AcceptCoefficients(ctx, req.Body.Real, req.Body.Imag, h.sink(id))
	if err != nil {
		return nil, toHumaError(err, "Failed to process coefficients")
	}
	resp := &models.SendFFTCoefficientsResponse{}
	resp.Body.Status = status
	if h.store != nil {
		resp.Body.ID = id.String()
	}
	return resp, nil
}

func (h *StreamHandler) sink(id uuid.UUID) stream.CoefficientSink {
	if h.store == nil {
		return &stream.CountingSink{}
	}
	return stream.StoreSink(h.store, storedKey("fft", id))
}

// GetStored returns a stored transfer or coefficient set
func (h *StreamHandler) GetStored(ctx context.Context, req *models.StoredObjectRequest) (*models.StoredObjectResponse, error) {
	key, err := h.resolveStored(req)
	if err != nil {
		return nil, err
	}
	data, err := h.store.Get(ctx, key)
	if err != nil {
		return nil, storedError(err, req)
	}
	return &models.StoredObjectResponse{
		ContentType: storedKinds[req.Kind].contentType,
		Body:        data,
	}, nil
}

// GetStoredURL returns a pre-signed download link for a stored object
func (h *StreamHandler) GetStoredURL(ctx context.Context, req *models.StoredObjectRequest) (*models.StoredURLResponse, error) {
	key, err := h.resolveStored(req)
	if err != nil {
		return nil, err
	}
	url, err := h.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, storedError(err, req)
	}
	resp := &models.StoredURLResponse{}
	resp.Body.Key = key
	resp.Body.URL = url
	return resp, nil
}

// DeleteStored removes a stored object
func (h *StreamHandler) DeleteStored(ctx context.Context, req *models.StoredObjectRequest) (*struct{}, error) {
	key, err := h.resolveStored(req)
	if err != nil {
		return nil, err
	}
	if err := h.store.Delete(ctx, key); err != nil {
		return nil, storedError(err, req)
	}
	log.Info().Str("key", key).Msg("Stored stream deleted")
	return nil, nil
}

func (h *StreamHandler) resolveStored(req *models.StoredObjectRequest) (string, error) {
	if h.store == nil {
		return "", toHumaError(rferr.New(rferr.Unsupported, "stream storage is disabled"), "")
	}
	id, err := uuid.Parse(req.ID)
	if _, ok := storedKinds[req.Kind]; !ok || err != nil {
		return "", huma.Error404NotFound(fmt.Sprintf("stored %s %q not found", req.Kind, req.ID))
	}
	return storedKey(req.Kind, id), nil
}

func storedError(err error, req *models.StoredObjectRequest) error {
	if errors.Is(err, storage.ErrNotFound) {
		return huma.Error404NotFound(fmt.Sprintf("stored %s %q not found", req.Kind, req.ID))
	}
	return huma.Error500InternalServerError("Failed to access stored stream", err)
}

// finish reports the stream outcome to the peer. A cancelled stream has already
// lost its connection.
func (h *StreamHandler) finish(ctx context.Context, conn *websocket.Conn, err error) {
	if ctx.Err() != nil {
		return
	}
	if cerr := wsconn.Close(conn, err); cerr != nil {
		log.Debug().Err(cerr).Msg("Failed to send close frame")
	}
}
