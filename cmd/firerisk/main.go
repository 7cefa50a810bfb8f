// Command firerisk runs the batch stages of the fire-risk pipeline.
//
// Usage:
//
//	go run ./cmd/firerisk [flags] <stage>...
//
// Stages run in the order given: preprocess, train, predict, combine,
// export, or all. Settings come from the environment (see internal/config);
// flags override the data layout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/csvfile"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/mapbox"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/postgres"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/xlsx"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/combine"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/config"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/forecast"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/observability"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/preprocess"
)

var allStages = []string{"preprocess", "train", "predict", "combine", "export"}

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("firerisk failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("firerisk", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "root of raw_data/ and preprocessed_data/")
	fs.StringVar(&cfg.ForecastDir, "forecast-dir", cfg.ForecastDir, "directory for forecasters, metrics and plots")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel stations")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: firerisk [flags] <stage>...\nstages: %v or all\n", allStages)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	stages, err := resolveStages(fs.Args())
	if err != nil {
		fs.Usage()
		return err
	}

	logger := observability.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	for _, stage := range stages {
		if err := a.runStage(ctx, stage); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
	}
	return nil
}

func resolveStages(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("no stage given")
	}
	var out []string
	for _, arg := range args {
		if arg == "all" {
			out = append(out, allStages...)
			continue
		}
		if _, ok := stageFuncs[arg]; !ok {
			return nil, fmt.Errorf("unknown stage %q", arg)
		}
		out = append(out, arg)
	}
	return out, nil
}

type app struct {
	cfg      *config.Config
	layout   preprocess.Layout
	logger   *slog.Logger
	metrics  *observability.Metrics
	geocoder domain.Geocoder
	// store is nil without DATABASE_URL.
	store *postgres.Store
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		layout:  preprocess.Layout{DataDir: cfg.DataDir},
		logger:  logger,
		metrics: observability.NewMetrics(),
	}

	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, a.metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, a.metrics)
		if err != nil {
			return nil, err
		}
		a.geocoder = cached
		a.metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize)
	}

	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	return a, nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}

var stageFuncs = map[string]func(*app, context.Context) (int, error){
	"preprocess": (*app).preprocess,
	"train":      (*app).train,
	"predict":    (*app).predict,
	"combine":    (*app).combine,
	"export":     (*app).export,
}

// runStage runs one stage, recording it in pipeline_runs when a database
// is configured.
func (a *app) runStage(ctx context.Context, stage string) error {
	start := time.Now()
	logger := a.logger.With("stage", stage)
	logger.Info("stage started")

	if a.store == nil {
		n, err := stageFuncs[stage](a, ctx)
		if err != nil {
			return err
		}
		logger.Info("stage finished", "records", n, "duration", time.Since(start))
		return nil
	}

	id, err := a.store.StartRun(ctx, stage)
	if err != nil {
		return err
	}
	logger = logger.With("run_id", id.String())
	n, runErr := stageFuncs[stage](a, ctx)
	if err := a.store.FinishRun(context.WithoutCancel(ctx), id, n, runErr); err != nil {
		logger.Error("record run failed", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("stage finished", "records", n, "duration", time.Since(start))
	return nil
}

func (a *app) preprocess(ctx context.Context) (int, error) {
	r := &preprocess.Runner{
		Layout:   a.layout,
		Workers:  a.cfg.Workers,
		Geocoder: a.geocoder,
		Logger:   a.logger,
		Metrics:  a.metrics,
	}
	sum, err := r.Run(ctx)
	if err != nil {
		return 0, err
	}
	a.logger.Info("preprocessing summary",
		"stations", sum.Stations,
		"failed_stations", len(sum.FailedStations),
		"hotspots", sum.Hotspots,
		"failed_months", len(sum.FailedMonths),
	)
	return len(sum.History), nil
}

func (a *app) train(ctx context.Context) (int, error) {
	history, err := csvfile.ReadRecords(a.layout.Merged())
	if err != nil {
		return 0, fmt.Errorf("read merged data: %w", err)
	}
	t := &forecast.Trainer{
		Dir:     a.cfg.ForecastDir,
		Workers: a.cfg.Workers,
		Logger:  a.logger,
		Metrics: a.metrics,
	}
	return t.Train(ctx, history)
}

func (a *app) predict(_ context.Context) (int, error) {
	history, err := csvfile.ReadRecords(a.layout.Merged())
	if err != nil {
		return 0, fmt.Errorf("read merged data: %w", err)
	}
	preds, err := forecast.Predict(a.cfg.ForecastDir, history, a.logger)
	if err != nil {
		return 0, err
	}
	if err := forecast.WritePredictions(a.layout.Predictions(), preds); err != nil {
		return 0, fmt.Errorf("write predictions: %w", err)
	}
	return len(preds), nil
}

func (a *app) combine(_ context.Context) (int, error) {
	history, err := csvfile.ReadRecords(a.layout.Merged())
	if err != nil {
		return 0, fmt.Errorf("read merged data: %w", err)
	}
	preds, err := forecast.ReadPredictions(a.layout.Predictions())
	if err != nil {
		return 0, fmt.Errorf("read predictions: %w", err)
	}
	records := combine.Combine(history, preds, a.logger)
	if err := csvfile.WriteRecords(a.layout.Combined(), records); err != nil {
		return 0, fmt.Errorf("write combined data: %w", err)
	}
	return len(records), nil
}

// export writes the combined dataset as XLSX and, with a database, upserts
// it into risk_records.
func (a *app) export(ctx context.Context) (int, error) {
	records, err := csvfile.ReadRecords(a.layout.Combined())
	if err != nil {
		return 0, fmt.Errorf("read combined data: %w", err)
	}
	if err := xlsx.Write(a.layout.CombinedXLSX(), records); err != nil {
		return 0, err
	}
	a.logger.Info("spreadsheet written", "file", a.layout.CombinedXLSX(), "records", len(records))

	if a.store == nil {
		return len(records), nil
	}
	n, err := a.store.UpsertRecords(ctx, records)
	if err != nil {
		return n, err
	}
	a.logger.Info("risk records upserted", "records", n)
	return n, nil
}
