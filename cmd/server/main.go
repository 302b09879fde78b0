// Package main provides the ygg evaluation service HTTP server.
//
// Application Startup Flow:
//
//  1. Load configuration from environment variables (config.Load)
//  2. Initialize Prometheus metrics registry (telemetry.Init)
//  3. Create the features store - Postgres or in-memory (store.NewStore)
//  4. Load the initial features document from the store (store.GetFeatures)
//  5. Compile it into the shared engine state (snapshot.Update)
//  6. Start the API server (handles client requests - evaluations, admin ops)
//  7. Start the metrics/pprof server (for observability - /metrics, /debug/pprof)
//  8. Wait for SIGINT/SIGTERM for graceful shutdown
//  9. Shutdown: drain in-flight requests, close the store and authenticator
//
// The server runs two HTTP servers concurrently:
//   - API server (cfg.HTTPAddr): client-facing REST API and SSE streaming
//   - Metrics server (cfg.MetricsAddr): Prometheus metrics and pprof profiling
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof" // <-- registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ygg-project/yggcore/internal/api"
	"github.com/ygg-project/yggcore/internal/config"
	"github.com/ygg-project/yggcore/internal/snapshot"
	"github.com/ygg-project/yggcore/internal/store"
	"github.com/ygg-project/yggcore/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	telemetry.Init()

	ctx := context.Background()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Str("store_type", cfg.StoreType).Msg("failed to initialize store")
	}
	defer st.Close()

	features, err := st.GetFeatures(ctx, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load features from store")
	}
	if _, err := snapshot.Update(features); err != nil {
		log.Fatal().Err(err).Msg("failed to compile initial features document")
	}
	snap := snapshot.Load()
	telemetry.SnapshotToggles.Set(float64(len(snap.Features.Features)))
	log.Info().
		Int("toggles", len(snap.Features.Features)).
		Str("etag", snap.ETag).
		Str("store", cfg.StoreType).
		Str("environment", cfg.Environment).
		Msg("initial snapshot loaded")

	apiServer := api.NewServer(st, cfg.Environment, cfg.AdminAPIKey)

	// ---- API server ----
	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // keep SSE connections alive
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server")
		}
	}()

	// ---- Metrics + pprof server ----
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	// forward /debug/pprof/* to DefaultServeMux where pprof registered
	mux.HandleFunc("/debug/pprof/", http.DefaultServeMux.ServeHTTP)

	metricsSrv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics/pprof server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("metrics server")
		}
	}()

	// ---- Graceful shutdown for both servers ----
	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	log.Info().Msg("shutdown signal received, stopping servers")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during API server shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during metrics server shutdown")
	}
	if err := apiServer.Close(); err != nil {
		log.Error().Err(err).Msg("error closing API server resources")
	}

	log.Info().Msg("servers stopped successfully")
}
