// Package preprocess turns the raw INMET and INPE downloads into the
// per-station, hotspot and merged files the later stages read.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/csvfile"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/inmet"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/inpe"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/observability"
)

const progressEvery = 10

// Runner executes the preprocessing stage. Geocoder and Metrics are optional.
type Runner struct {
	Layout   Layout
	Workers  int
	Geocoder domain.Geocoder
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Summary reports what a run produced.
type Summary struct {
	Stations       int
	FailedStations []string
	FailedMonths   []string
	Hotspots       int
	History        []domain.RiskRecord
}

type stationResult struct {
	info domain.StationInfo
	days []domain.DailyObservation
}

// Run processes every station and month, then merges them into the
// dataset with risk indices. Per-station and per-month failures are
// reported in the Summary and do not stop the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	stations, days, failed, err := r.Stations(ctx)
	if err != nil {
		return sum, err
	}
	sum.Stations = len(stations)
	sum.FailedStations = failed

	hotspots, failedMonths, err := r.Hotspots(ctx, stations)
	if err != nil {
		return sum, err
	}
	sum.Hotspots = len(hotspots)
	sum.FailedMonths = failedMonths

	sum.History = domain.BuildHistory(stations, days, hotspots)
	if err := csvfile.WriteRecords(r.Layout.Merged(), sum.History); err != nil {
		return sum, fmt.Errorf("write merged data: %w", err)
	}
	r.Logger.Info("merged data written",
		"file", r.Layout.Merged(),
		"records", len(sum.History),
	)
	return sum, nil
}

// Stations parses every INMET station in parallel and writes one daily
// file per station plus the station catalogue.
func (r *Runner) Stations(ctx context.Context) ([]domain.StationInfo, []domain.DailyObservation, []string, error) {
	codes, err := inmet.StationCodes(r.Layout.RawINMET())
	if err != nil {
		return nil, nil, nil, err
	}
	if len(codes) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no INMET station files in %s", domain.ErrNoRows, r.Layout.RawINMET())
	}
	r.Logger.Info("processing stations", "count", len(codes))

	var (
		results = make([]*stationResult, len(codes))
		mu      sync.Mutex
		failed  []string
		done    atomic.Int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, code := range codes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.station(ctx, code)
			if err != nil {
				r.Logger.Warn("station failed", "station", code, "error", err)
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s - %v", code, err))
				mu.Unlock()
			} else {
				results[i] = res
			}
			if n := done.Add(1); n%progressEvery == 0 {
				pct := math.Round(float64(n)*10000/float64(len(codes))) / 100
				r.Logger.Info(fmt.Sprintf("Processed %.2f%%...", pct), "stations", n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	sort.Strings(failed)

	var (
		stations []domain.StationInfo
		days     []domain.DailyObservation
	)
	for _, res := range results {
		if res == nil {
			continue
		}
		stations = append(stations, res.info)
		days = append(days, res.days...)
	}
	if err := csvfile.WriteStations(r.Layout.Stations(), stations); err != nil {
		return nil, nil, nil, fmt.Errorf("write stations: %w", err)
	}
	if len(failed) > 0 {
		r.Logger.Warn("stations with errors", "count", len(failed), "stations", failed)
	}
	return stations, days, failed, nil
}

func (r *Runner) station(ctx context.Context, code string) (*stationResult, error) {
	res, err := inmet.ReadStations(r.Layout.RawINMET(), inmet.Filter{Station: code})
	if err != nil {
		return nil, err
	}
	r.countFiles("inmet", res.Files-len(res.Failed), len(res.Failed))
	if len(res.Failed) > 0 {
		if err := csvfile.WriteLines(r.Layout.StationFailures(code), res.Failed); err != nil {
			return nil, fmt.Errorf("write failed files: %w", err)
		}
	}
	if len(res.Stations) == 0 || len(res.Daily) == 0 {
		return nil, fmt.Errorf("%w: no readable files", domain.ErrNoRows)
	}
	if err := csvfile.WriteDaily(r.Layout.StationDaily(code), res.Daily); err != nil {
		return nil, err
	}

	info := domain.LocateStation(ctx, res.Stations[0], r.Geocoder, r.Logger)
	return &stationResult{info: info, days: res.Daily}, nil
}

// Hotspots condenses each INPE month and attaches hotspots to stations.
// A month that fails is logged and skipped.
func (r *Runner) Hotspots(ctx context.Context, stations []domain.StationInfo) ([]domain.Hotspot, []string, error) {
	files, err := inpe.Files(r.Layout.RawINPE())
	if errors.Is(err, fs.ErrNotExist) {
		r.Logger.Warn("no hotspot directory, continuing without hotspots", "dir", r.Layout.RawINPE())
	} else if err != nil {
		return nil, nil, err
	}
	months := inpe.Months(files)
	r.Logger.Info("processing hotspot months", "count", len(months))

	pre := &inpe.Preprocessor{Stations: stations, Geocoder: r.Geocoder, Logger: r.Logger}
	perMonth := make([][]domain.Hotspot, len(months))
	var (
		mu     sync.Mutex
		failed []string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, month := range months {
		g.Go(func() error {
			monthFiles := inpe.MonthFiles(files, month)
			hs, err := pre.PreprocessMonth(ctx, monthFiles)
			if err == nil {
				err = csvfile.WriteHotspots(r.Layout.MonthHotspots(month), hs)
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.countFiles("inpe", 0, len(monthFiles))
				r.Logger.Warn("hotspot month failed", "month", month, "error", err)
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s - %v", month, err))
				mu.Unlock()
				return nil
			}
			r.countFiles("inpe", len(monthFiles), 0)
			r.Logger.Info("hotspot month processed", "month", month, "hotspots", len(hs))
			perMonth[i] = hs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(failed)
	if len(failed) > 0 {
		if err := csvfile.WriteLines(r.Layout.MonthFailures(), failed); err != nil {
			return nil, nil, fmt.Errorf("write failed months: %w", err)
		}
	}

	var all []domain.Hotspot
	for _, hs := range perMonth {
		all = append(all, hs...)
	}
	matched := 0
	for _, h := range all {
		if h.NearestStation != "" {
			matched++
		}
	}
	if r.Metrics != nil {
		r.Metrics.HotspotsMatched.Add(float64(matched))
	}
	if err := csvfile.WriteHotspots(r.Layout.Hotspots(), all); err != nil {
		return nil, nil, fmt.Errorf("write hotspots: %w", err)
	}
	return all, failed, nil
}

func (r *Runner) countFiles(source string, ok, failed int) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.FilesParsed.WithLabelValues(source, "ok").Add(float64(ok))
	r.Metrics.FilesParsed.WithLabelValues(source, "failed").Add(float64(failed))
}
