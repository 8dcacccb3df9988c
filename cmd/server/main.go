package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/api"
	"github.com/RMahshie/rfcontrol/internal/config"
	"github.com/RMahshie/rfcontrol/internal/device"
	"github.com/RMahshie/rfcontrol/internal/dispatch"
	"github.com/RMahshie/rfcontrol/internal/metrics"
	"github.com/RMahshie/rfcontrol/internal/registry"
	"github.com/RMahshie/rfcontrol/internal/repository"
	"github.com/RMahshie/rfcontrol/internal/repository/postgres"
	"github.com/RMahshie/rfcontrol/internal/storage"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Cancelled on shutdown so that open streams stop
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Populate the device registry; the simulated fallback is always present
	reg := registry.Populate(rootCtx, cfg.Devices.FallbackID,
		device.SimulatedProber{IDs: cfg.Devices.Simulated},
	)
	log.Info().Strs("devices", reg.IDs()).Str("fallback", reg.FallbackID()).Msg("Device registry ready")

	m := metrics.New()

	history, closeDB := openHistory(rootCtx, cfg.Database.URL)
	defer closeDB()

	dispatcher := dispatch.New(reg,
		dispatch.WithHistory(history),
		dispatch.WithMetrics(m),
	)

	var store storage.ObjectStore
	if cfg.Stream.Store {
		store = openStore(rootCtx, cfg)
	}

	router := api.NewRouter(dispatcher, m, api.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		MaxConcurrentCalls: cfg.Server.MaxConcurrentCalls,
		Marker:             cfg.Stream.Marker,
		Store:              store,
		DataChunkSize:      cfg.Stream.DataChunkSize,
		FFTChunkSize:       cfg.Stream.FFTChunkSize,
	})

	// Start server
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return rootCtx },
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Int("workers", cfg.Server.MaxConcurrentCalls).Msg("Starting RF control server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Websocket connections are hijacked and not tracked by Shutdown
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openHistory connects the settings history store. Without a database URL, or if
// the database is unreachable, changes are not recorded.
func openHistory(ctx context.Context, url string) (repository.SettingsRepository, func()) {
	nop := func() {}
	if url == "" {
		log.Info().Msg("DATABASE_URL not set, settings history disabled")
		return repository.NopSettingsRepository{}, nop
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database, settings history disabled")
		return repository.NopSettingsRepository{}, nop
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error().Err(err).Msg("Database unreachable, settings history disabled")
		db.Close()
		return repository.NopSettingsRepository{}, nop
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error().Err(err).Msg("Failed to create schema, settings history disabled")
		db.Close()
		return repository.NopSettingsRepository{}, nop
	}

	log.Info().Msg("Settings history enabled")
	return postgres.NewPostgresSettingsRepository(db), func() { db.Close() }
}

// openStore returns the S3 store, or an in-memory store if S3 is not reachable
func openStore(ctx context.Context, cfg *config.Config) storage.ObjectStore {
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:       cfg.AWS.S3Bucket,
		Endpoint:     cfg.AWS.S3Endpoint,
		Region:       cfg.AWS.Region,
		CreateBucket: cfg.AWS.S3Endpoint != "",
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize S3 store, keeping streams in memory")
		return storage.NewMemoryStore()
	}
	log.Info().Str("bucket", cfg.AWS.S3Bucket).Str("endpoint", cfg.AWS.S3Endpoint).Msg("Stream store enabled")
	return store
}
