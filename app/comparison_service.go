package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/config"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/harness"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/preprocess"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/report"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// ComparisonService wires the whole pipeline: load the dataset, derive the
// feature frame, run the walk-forward grid and aggregate the ranking. One
// call is one run; the service holds no state between runs.
type ComparisonService struct {
	reader  ports.DatasetReader
	results ports.ResultRepository // nil disables persistence
}

// NewComparisonService creates a comparison service. A nil repository means
// the report is returned but not persisted.
func NewComparisonService(reader ports.DatasetReader, results ports.ResultRepository) *ComparisonService {
	return &ComparisonService{reader: reader, results: results}
}

// RunComparison executes one evaluation run end to end and returns the
// aggregated report. Cancellation mid-grid yields a partial report with
// Partial set; the already-computed cells are kept.
func (s *ComparisonService) RunComparison(ctx context.Context, cfg *config.Config) (*eval.ComparisonReport, error) {
	started := time.Now()
	runID := core.NewRunID()

	ds, err := s.reader.Load(ctx, ports.LoadRequest{
		From:       cfg.Data.From,
		To:         cfg.Data.To,
		ProvinceID: cfg.Data.ProvinceID,
		RegionID:   cfg.Data.RegionID,
		StationID:  cfg.Data.StationID,
		Dedup:      cfg.Data.Dedup,
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	series := selectSeries(ds, cfg.Data.StationID)
	log.Printf("[Comparison] run %s: %d records, target=%s", runID, len(series), cfg.Run.Preprocess.Target)

	frame, err := preprocess.Build(series, cfg.Run.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("build feature frame: %w", err)
	}

	h := harness.New(cfg.Run.Policy, cfg.Run.Parallelism, cfg.Run.FitTimeout)
	results, folds, runErr := h.Run(ctx, frame, cfg.Run.Models, cfg.Run.Seed)
	if runErr != nil && len(results) == 0 {
		return nil, runErr
	}

	rep, err := report.Aggregate(runID, cfg.Run.Preprocess.Target, cfg.Run.Seed,
		eval.MetricRMSE, results, len(folds))
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		rep.Partial = true
	}

	if s.results != nil {
		if err := s.results.SaveRun(ctx, rep, results); err != nil {
			// The run itself succeeded; surface the persistence failure
			// without discarding the report.
			log.Printf("[Comparison] run %s: failed to persist results: %v", runID, err)
		}
	}

	log.Printf("[Comparison] run %s: %d folds, best=%s, partial=%t, took %s",
		runID, rep.Folds, best(rep), rep.Partial, time.Since(started).Round(time.Millisecond))
	return rep, runErr
}

// selectSeries picks the evaluated series: a single station's records when
// one is configured, otherwise the per-date mean over all loaded stations.
func selectSeries(ds *climate.Dataset, stationID int) []climate.Record {
	if stationID != 0 {
		return ds.SeriesFor(stationID)
	}
	if len(ds.Series) == 1 {
		return ds.SeriesFor(ds.StationIDs()[0])
	}
	return ds.AverageSeries()
}

func best(rep *eval.ComparisonReport) string {
	if len(rep.Ranking) == 0 {
		return "none"
	}
	return rep.Ranking[0]
}

// IsDataError reports whether the run failed on the dataset rather than the
// evaluation, so callers can distinguish bad input from engine faults.
func IsDataError(err error) bool {
	return errors.Is(err, core.ErrSource) ||
		errors.Is(err, core.ErrDataFormat) ||
		errors.Is(err, core.ErrDataRange) ||
		errors.Is(err, core.ErrDuplicateTimestamp) ||
		errors.Is(err, core.ErrInsufficientHistory)
}
