package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/RMahshie/rfcontrol/internal/api/handlers"
	"github.com/RMahshie/rfcontrol/internal/chunk"
	"github.com/RMahshie/rfcontrol/internal/dispatch"
	"github.com/RMahshie/rfcontrol/internal/metrics"
	"github.com/RMahshie/rfcontrol/internal/storage"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

// Version is reported by the health endpoint and the OpenAPI document
const Version = "1.0.0"

const docsPath = "/api/docs"

// coefficientsBodyBytes bounds a unary coefficient set, roughly 100k pairs
const coefficientsBodyBytes = 8 << 20

// Options configures the router
type Options struct {
	AllowedOrigins     []string
	MaxConcurrentCalls int
	Marker             string
	// Store receives completed streams. Nil disables storing.
	Store storage.ObjectStore
	// Largest accepted stream chunks; zero selects the chunk package defaults
	DataChunkSize int
	FFTChunkSize  int
}

// NewRouter builds the HTTP surface: middleware, huma operations, websocket streams,
// health and metrics.
func NewRouter(dispatcher *dispatch.Dispatcher, m *metrics.Metrics, opts Options) http.Handler {
	if m == nil {
		m = metrics.New()
	}
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", models.StreamIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(workerPool(max(opts.MaxConcurrentCalls, 1)))

	// Create Huma API
	config := huma.DefaultConfig("RF Control API", Version)
	config.DocsPath = docsPath
	api := humachi.New(router, config)

	streamCfg := handlers.StreamConfig{
		Metrics:        m,
		Store:          opts.Store,
		Marker:         opts.Marker,
		AllowedOrigins: opts.AllowedOrigins,
		DataChunkSize:  opts.DataChunkSize,
		FFTChunkSize:   opts.FFTChunkSize,
	}
	if streamCfg.DataChunkSize <= 0 {
		streamCfg.DataChunkSize = chunk.DefaultDataChunkSize
	}
	if streamCfg.FFTChunkSize <= 0 {
		streamCfg.FFTChunkSize = chunk.DefaultFFTChunkSize
	}

	registerHealth(api, dispatcher, streamCfg)
	RegisterRoutes(router, api, dispatcher, streamCfg)

	router.Handle("/metrics", m.Handler())

	return router
}

func registerHealth(api huma.API, dispatcher *dispatch.Dispatcher, streamCfg handlers.StreamConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service and the registered devices",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = Version
		resp.Body.Devices = dispatcher.Registry().IDs()
		resp.Body.DataChunkSize = streamCfg.DataChunkSize
		resp.Body.FFTChunkSize = streamCfg.FFTChunkSize
		resp.Body.StreamStore = streamCfg.Store != nil
		resp.Body.Time = time.Now()
		return resp, nil
	})
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, dispatcher handlers.Dispatcher, streamCfg handlers.StreamConfig) {
	// Initialize handlers
	deviceHandler := handlers.NewDeviceHandler(dispatcher)
	streamHandler := handlers.NewStreamHandler(streamCfg)

	// Register device routes
	huma.Register(api, huma.Operation{
		OperationID: "setRFSettings",
		Method:      http.MethodPost,
		Path:        "/api/devices/{id}/settings",
		Summary:     "Set RF settings",
		Description: "Sets frequency and gain independently; -9999 leaves a field unchanged",
		Tags:        []string{"Device"},
	}, deviceHandler.SetRFSettings)

	huma.Register(api, huma.Operation{
		OperationID: "getDeviceStatus",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/status",
		Summary:     "Get device status",
		Description: "Returns the current frequency, gain and lock state",
		Tags:        []string{"Device"},
	}, deviceHandler.GetDeviceStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getDevicePPString",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/pp-string",
		Summary:     "Get device description",
		Description: "Returns a human-readable description of the device state",
		Tags:        []string{"Device"},
	}, deviceHandler.GetDevicePPString)

	huma.Register(api, huma.Operation{
		OperationID: "getGainRange",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/gain-range",
		Summary:     "Get gain range",
		Tags:        []string{"Device"},
	}, deviceHandler.GetGainRange)

	huma.Register(api, huma.Operation{
		OperationID: "getFrequencyRange",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/frequency-range",
		Summary:     "Get frequency range",
		Tags:        []string{"Device"},
	}, deviceHandler.GetFrequencyRange)

	huma.Register(api, huma.Operation{
		OperationID: "getDeviceInformation",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/information",
		Summary:     "Get device information",
		Description: "Returns manufacturer, model, serial number and firmware revision",
		Tags:        []string{"Device"},
	}, deviceHandler.GetDeviceInformation)

	huma.Register(api, huma.Operation{
		OperationID: "getSettingsHistory",
		Method:      http.MethodGet,
		Path:        "/api/devices/{id}/history",
		Summary:     "Get settings history",
		Description: "Returns applied frequency and gain changes, newest first",
		Tags:        []string{"Device"},
	}, deviceHandler.GetSettingsHistory)

	huma.Register(api, huma.Operation{
		OperationID: "dispatch",
		Method:      http.MethodPost,
		Path:        "/api/rpc/{method}",
		Summary:     "Invoke a method by name",
		Description: "Routes any device-control method by its wire name",
		Tags:        []string{"RPC"},
	}, deviceHandler.Dispatch)

	// Register stream routes
	huma.Register(api, huma.Operation{
		OperationID:  "sendFFTCoefficients",
		Method:       http.MethodPost,
		Path:         "/api/fft/coefficients",
		Summary:      "Send FFT coefficients",
		Description:  "Accepts a complete set of real and imaginary coefficients",
		Tags:         []string{"Stream"},
		MaxBodyBytes: coefficientsBodyBytes,
	}, streamHandler.SendFFTCoefficients)

	huma.Register(api, huma.Operation{
		OperationID: "getStored",
		Method:      http.MethodGet,
		Path:        "/api/stored/{kind}/{id}",
		Summary:     "Download a stored stream",
		Description: "Returns a stored transfer payload or coefficient set",
		Tags:        []string{"Stream"},
	}, streamHandler.GetStored)

	huma.Register(api, huma.Operation{
		OperationID: "getStoredURL",
		Method:      http.MethodGet,
		Path:        "/api/stored/{kind}/{id}/url",
		Summary:     "Get a download link",
		Description: "Returns a pre-signed URL for a stored stream",
		Tags:        []string{"Stream"},
	}, streamHandler.GetStoredURL)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteStored",
		Method:        http.MethodDelete,
		Path:          "/api/stored/{kind}/{id}",
		Summary:       "Delete a stored stream",
		Tags:          []string{"Stream"},
		DefaultStatus: http.StatusNoContent,
	}, streamHandler.DeleteStored)

	router.Get("/api/stream/transfer", streamHandler.TransferData)
	router.Get("/api/stream/fft", streamHandler.StreamFFTCoefficients)
}
