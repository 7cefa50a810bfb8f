// Command etl runs the streaming stage: it consumes daily INMET
// observations from Kafka and publishes fire-risk records.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/csvfile"
	httpadapter "github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/http"
	kafkaadapter "github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/kafka"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/mapbox"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/config"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/observability"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/pipeline"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/preprocess"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geocoder, err := newGeocoder(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to create geocoder", "error", err)
		os.Exit(1)
	}

	stations, history := loadBatchState(ctx, preprocess.Layout{DataDir: cfg.DataDir}, geocoder, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(stations, history, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newGeocoder returns nil when Mapbox is disabled.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, error) {
	if !cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
		return nil, nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	metrics.GeocodeEnabled.Set(1)
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return cached, nil
}

// loadBatchState reads the station catalogue and merged history left by a
// batch run. Either may be absent; the stream then starts from scratch.
func loadBatchState(ctx context.Context, layout preprocess.Layout, geocoder domain.Geocoder, logger *slog.Logger) ([]domain.StationInfo, []domain.RiskRecord) {
	stations, err := csvfile.ReadStations(layout.Stations())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("no station catalogue, records will carry only station codes", "file", layout.Stations())
	case err != nil:
		logger.Warn("station catalogue unreadable", "file", layout.Stations(), "error", err)
	}
	for i := range stations {
		stations[i] = domain.LocateStation(ctx, stations[i], geocoder, logger)
	}

	history, err := csvfile.ReadRecords(layout.Merged())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no merged history, risk sums start from zero", "file", layout.Merged())
	case err != nil:
		logger.Warn("merged history unreadable", "file", layout.Merged(), "error", err)
		history = nil
	}
	logger.Info("batch state loaded", "stations", len(stations), "history_records", len(history))
	return stations, history
}
