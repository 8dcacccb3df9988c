package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/fft"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Host   string
	Port   int
	Method string
	Device string
	// Frequency and Gain are nil unless given on the command line
	Frequency *float64
	Gain      *float64
	Transfer  string
	ChunkSize int
	FFTSignal int
	FFTStream bool
	FFTChunk  int
	Stored    string
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.Host, "host", "localhost", "Server host")
	flag.IntVar(&cfg.Port, "port", 5555, "Server port")
	flag.StringVar(&cfg.Method, "method", "getDeviceStatus",
		"Method to call: setRFSettings, getDeviceStatus, getDevicePPString, getGainRange, getFrequencyRange, getDeviceInformation")
	flag.StringVar(&cfg.Device, "device", "mock", "Device ID")
	freq := flag.Float64("freq", 0, "Frequency in Hz for setRFSettings (omit to leave unchanged)")
	gain := flag.Float64("gain", 0, "Gain in dB for setRFSettings (omit to leave unchanged)")
	flag.StringVar(&cfg.Transfer, "transfer", "", "Stream this file through TransferData")
	flag.IntVar(&cfg.ChunkSize, "chunk-size", 0, "Data chunk size in bytes (0 uses the server's limit)")
	flag.IntVar(&cfg.FFTSignal, "fft-signal", 0, "Generate a test signal of N samples and send its FFT coefficients")
	flag.BoolVar(&cfg.FFTStream, "fft-stream", true, "Stream coefficients in chunks instead of one request")
	flag.IntVar(&cfg.FFTChunk, "fft-chunk", 0, "Coefficients per FFT chunk (0 uses the server's limit)")
	flag.StringVar(&cfg.Stored, "stored", "", "Print the download URL of a stored stream, given as kind/id")

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "freq":
			cfg.Frequency = freq
		case "gain":
			cfg.Gain = gain
		}
	})
	return cfg
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &client{
		base: url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		http: http.DefaultClient,
	}

	var err error
	switch {
	case cfg.Stored != "":
		err = c.printStoredURL(ctx, cfg.Stored)
	case cfg.Transfer != "":
		_, err = c.transferFile(ctx, cfg.Transfer, cfg.ChunkSize)
	case cfg.FFTSignal > 0:
		err = c.sendSignal(ctx, cfg)
	default:
		err = c.call(ctx, cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Request failed")
	}
}

type client struct {
	base url.URL
	http *http.Client
}

func (c *client) endpoint(scheme, path string) string {
	u := c.base
	u.Scheme = scheme
	u.Path = path
	return u.String()
}

// call invokes a unary method by name and prints the result
func (c *client) call(ctx context.Context, cfg *CLIConfig) error {
	body := map[string]any{
		"device_id": cfg.Device,
		"frequency": models.EncodeSetting(cfg.Frequency),
		"gain":      models.EncodeSetting(cfg.Gain),
	}
	var resp models.DispatchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/rpc/"+url.PathEscape(cfg.Method), body, &resp.Body); err != nil {
		return err
	}

	if result, ok := resp.Body.Result.(map[string]any); ok {
		if msg, ok := result["message"].(string); ok {
			fmt.Println(msg)
			return nil
		}
		if pp, ok := result["pp_string"].(string); ok {
			fmt.Println(pp)
			return nil
		}
	}
	out, err := json.MarshalIndent(resp.Body.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// sendSignal generates a two-tone test signal and sends its spectrum
func (c *client) sendSignal(ctx context.Context, cfg *CLIConfig) error {
	n := cfg.FFTSignal
	rate := float64(n)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / rate
		samples[i] = math.Sin(2*math.Pi*50*t) + 0.5*math.Sin(2*math.Pi*120*t)
	}
	_, re, im := fft.Calculate(samples, rate)
	log.Info().Int("samples", n).Int("coefficients", len(re)).Msg("Computed FFT")

	if cfg.FFTStream {
		size := cfg.FFTChunk
		if size <= 0 {
			health, err := c.health(ctx)
			if err != nil {
				return err
			}
			size = health.FFTChunkSize
		}
		return c.streamCoefficients(ctx, re, im, size)
	}

	body := map[string][]float64{"real": re, "imag": im}
	var resp models.SendFFTCoefficientsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/fft/coefficients", body, &resp.Body); err != nil {
		return err
	}
	fmt.Println(resp.Body.Status)
	if resp.Body.ID != "" {
		log.Info().Str("stored", "fft/"+resp.Body.ID).Msg("Coefficients stored")
	}
	return nil
}

// health fetches the server status, including its chunk limits
func (c *client) health(ctx context.Context) (*models.HealthBody, error) {
	var body models.HealthBody
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// printStoredURL prints the download link of a stored stream given as kind/id
func (c *client) printStoredURL(ctx context.Context, ref string) error {
	kind, id, ok := strings.Cut(ref, "/")
	if !ok {
		return fmt.Errorf("stored stream %q must be given as kind/id", ref)
	}
	var resp models.StoredURLResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/stored/"+url.PathEscape(kind)+"/"+url.PathEscape(id)+"/url", nil, &resp.Body); err != nil {
		return err
	}
	fmt.Println(resp.Body.URL)
	return nil
}

func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint("http", path), payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var problem struct {
			Detail string `json:"detail"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &problem) != nil || problem.Detail == "" {
			return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(raw))
		}
		msg := problem.Detail
		for _, e := range problem.Errors {
			if e.Message != problem.Detail {
				msg += "; " + e.Message
			}
		}
		return fmt.Errorf("%s: %s", resp.Status, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
