package config

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	AWS      AWSConfig
	Devices  DeviceConfig
	Stream   StreamConfig
}

// DatabaseConfig holds database configuration. An empty URL disables settings history.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port               string
	Env                string
	AllowedOrigins     []string
	MaxConcurrentCalls int
}

// AWSConfig holds AWS/S3 configuration
type AWSConfig struct {
	Region     string
	S3Bucket   string
	S3Endpoint string
}

// DeviceConfig controls which devices the registry is populated with
type DeviceConfig struct {
	FallbackID string
	Simulated  []string
}

// StreamConfig holds chunking and transfer settings. The chunk sizes are the
// largest chunks the server accepts and are advertised on /health.
type StreamConfig struct {
	DataChunkSize int
	FFTChunkSize  int
	Marker        string
	Store         bool
}

var keys = []string{
	"DATABASE_URL",
	"PORT",
	"ENVIRONMENT",
	"ALLOWED_ORIGINS",
	"MAX_CONCURRENT_CALLS",
	"FALLBACK_DEVICE_ID",
	"SIMULATED_DEVICES",
	"DATA_CHUNK_SIZE",
	"FFT_CHUNK_SIZE",
	"TRANSFER_MARKER",
	"STREAM_STORE",
	"AWS_REGION",
	"S3_BUCKET",
	"S3_ENDPOINT",
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PORT", "5555")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("MAX_CONCURRENT_CALLS", 4)
	v.SetDefault("FALLBACK_DEVICE_ID", "mock")
	v.SetDefault("SIMULATED_DEVICES", "")
	v.SetDefault("DATA_CHUNK_SIZE", 1024*1024)
	v.SetDefault("FFT_CHUNK_SIZE", 1000)
	v.SetDefault("TRANSFER_MARKER", "_processed")
	v.SetDefault("STREAM_STORE", false)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "rfcontrol-streams")
	v.SetDefault("S3_ENDPOINT", "")

	for _, key := range keys {
		v.BindEnv(key)
	}

	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// The .env file is optional
	_ = v.ReadInConfig()

	// Environment variables override .env file values
	v.AutomaticEnv()

	var config Config
	config.Database.URL = v.GetString("DATABASE_URL")
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = v.GetString("ENVIRONMENT")
	config.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	config.Server.MaxConcurrentCalls = v.GetInt("MAX_CONCURRENT_CALLS")
	config.AWS.Region = v.GetString("AWS_REGION")
	config.AWS.S3Bucket = v.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = v.GetString("S3_ENDPOINT")
	config.Devices.FallbackID = v.GetString("FALLBACK_DEVICE_ID")
	config.Devices.Simulated = splitList(v.GetString("SIMULATED_DEVICES"))
	config.Stream.DataChunkSize = v.GetInt("DATA_CHUNK_SIZE")
	config.Stream.FFTChunkSize = v.GetInt("FFT_CHUNK_SIZE")
	config.Stream.Marker = v.GetString("TRANSFER_MARKER")
	config.Stream.Store = v.GetBool("STREAM_STORE")

	if config.Server.MaxConcurrentCalls < 1 {
		config.Server.MaxConcurrentCalls = 1
	}
	if config.Stream.DataChunkSize < 1 {
		config.Stream.DataChunkSize = 1024 * 1024
	}
	if config.Stream.FFTChunkSize < 1 {
		config.Stream.FFTChunkSize = 1000
	}
	if config.Devices.FallbackID == "" {
		config.Devices.FallbackID = "mock"
	}

	log.Info().
		Str("environment", config.Server.Env).
		Strs("allowed_origins", config.Server.AllowedOrigins).
		Int("max_concurrent_calls", config.Server.MaxConcurrentCalls).
		Bool("history", config.Database.URL != "").
		Int("data_chunk_size", config.Stream.DataChunkSize).
		Int("fft_chunk_size", config.Stream.FFTChunkSize).
		Bool("stream_store", config.Stream.Store).
		Msg("Configuration loaded")

	return &config, nil
}

// splitList splits a comma separated value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
