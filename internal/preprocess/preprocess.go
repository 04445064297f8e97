package preprocess

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// Build transforms an ordered record series into a feature frame. The input
// is never mutated; the frame is a fresh snapshot.
//
// Derivation is strictly causal: lag features read k steps back, rolling
// statistics cover the window ending at the previous observation, calendar
// features come from the row's own date. Rows whose lookback reaches before
// the start of the series are dropped, never imputed with future data; the
// whole series being too short is an error.
func Build(records []climate.Record, cfg feature.Config) (*feature.Frame, error) {
	if len(cfg.Lags) == 0 {
		return nil, fmt.Errorf("preprocess: at least one lag is required")
	}
	records = resample(records, cfg.Resample)
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date) {
			return nil, fmt.Errorf("%w: %s then %s",
				core.ErrNonMonotonic,
				records[i-1].Date.Format(time.DateOnly),
				records[i].Date.Format(time.DateOnly))
		}
	}

	dates := make([]time.Time, len(records))
	raw := make([]float64, len(records))
	for i, rec := range records {
		dates[i] = rec.Date
		raw[i] = rec.Value(cfg.Target)
	}

	target, keep := impute(raw, cfg.Imputation)

	covariates := make(map[string][]float64, len(cfg.Covariates))
	for _, name := range cfg.Covariates {
		series := make([]float64, len(records))
		for i, rec := range records {
			series[i] = rec.Value(name)
		}
		imputed, _ := impute(series, cfg.Imputation)
		covariates[name] = imputed
	}

	columns := columnNames(cfg)
	frame := &feature.Frame{
		Columns:    columns,
		TargetName: cfg.Target,
	}

	maxHist := cfg.MaxHistory()
	if len(records) <= maxHist {
		return nil, fmt.Errorf("%w: need more than %d rows, have %d",
			core.ErrInsufficientHistory, maxHist, len(records))
	}

	for i := maxHist; i < len(records); i++ {
		if !keep[i] || math.IsNaN(target[i]) {
			continue
		}
		row, ok := deriveRow(target, covariates, dates, i, cfg)
		if !ok {
			continue
		}
		frame.Dates = append(frame.Dates, dates[i])
		frame.Rows = append(frame.Rows, row)
		frame.Target = append(frame.Target, target[i])
	}

	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: no usable rows after imputation and history drop",
			core.ErrInsufficientHistory)
	}
	return frame, nil
}

// deriveRow builds the feature vector for index i, reporting ok=false when a
// required lag or window value is missing.
func deriveRow(target []float64, covariates map[string][]float64, dates []time.Time, i int, cfg feature.Config) ([]float64, bool) {
	row := make([]float64, 0, len(cfg.Lags)+len(cfg.Windows)*len(cfg.WindowStats)+len(cfg.Covariates)+3)

	for _, lag := range cfg.Lags {
		v := target[i-lag]
		if math.IsNaN(v) {
			return nil, false
		}
		row = append(row, v)
	}

	for _, w := range cfg.Windows {
		// Trailing window [i-w, i), ending at the previous observation.
		window := target[i-w : i]
		for _, v := range window {
			if math.IsNaN(v) {
				return nil, false
			}
		}
		for _, stat := range cfg.WindowStats {
			v, err := rollingStat(window, stat)
			if err != nil {
				return nil, false
			}
			row = append(row, v)
		}
	}

	for _, name := range cfg.Covariates {
		v := covariates[name][i-1]
		if math.IsNaN(v) {
			return nil, false
		}
		row = append(row, v)
	}

	if cfg.Calendar.DayOfYear {
		row = append(row, float64(dates[i].YearDay()))
	}
	if cfg.Calendar.Month {
		row = append(row, float64(dates[i].Month()))
	}
	if cfg.Calendar.IsWeekend {
		wd := dates[i].Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			row = append(row, 1)
		} else {
			row = append(row, 0)
		}
	}

	return row, true
}

func rollingStat(window []float64, stat feature.RollingStat) (float64, error) {
	switch stat {
	case feature.RollMean:
		return stats.Mean(window)
	case feature.RollStd:
		return stats.StandardDeviationSample(window)
	case feature.RollMin:
		return stats.Min(window)
	case feature.RollMax:
		return stats.Max(window)
	default:
		return 0, fmt.Errorf("unknown rolling stat %q", stat)
	}
}

func columnNames(cfg feature.Config) []string {
	var columns []string
	for _, lag := range cfg.Lags {
		columns = append(columns, fmt.Sprintf("lag_%d", lag))
	}
	for _, w := range cfg.Windows {
		for _, stat := range cfg.WindowStats {
			columns = append(columns, fmt.Sprintf("roll%d_%s", w, stat))
		}
	}
	for _, name := range cfg.Covariates {
		columns = append(columns, fmt.Sprintf("%s_lag_1", name))
	}
	if cfg.Calendar.DayOfYear {
		columns = append(columns, "day_of_year")
	}
	if cfg.Calendar.Month {
		columns = append(columns, "month")
	}
	if cfg.Calendar.IsWeekend {
		columns = append(columns, "is_weekend")
	}
	return columns
}

// impute repairs NaN gaps per the configured strategy and reports which
// indices survive. Forward-fill and mean-fill use only past values; linear
// interpolation bridges to the next valid observation; drop keeps gaps out
// of the frame entirely.
func impute(values []float64, strategy feature.Imputation) (out []float64, keep []bool) {
	out = append([]float64(nil), values...)
	keep = make([]bool, len(values))
	for i := range keep {
		keep[i] = true
	}

	switch strategy {
	case feature.ImputeDrop:
		for i, v := range out {
			if math.IsNaN(v) {
				keep[i] = false
			}
		}

	case feature.ImputeForwardFill:
		last := math.NaN()
		for i, v := range out {
			if math.IsNaN(v) {
				out[i] = last // leading NaNs stay NaN and drop out later
			} else {
				last = v
			}
		}

	case feature.ImputeInterpolate:
		prev := -1
		for i, v := range out {
			if math.IsNaN(v) {
				continue
			}
			if prev >= 0 && i-prev > 1 {
				step := (v - out[prev]) / float64(i-prev)
				for j := prev + 1; j < i; j++ {
					out[j] = out[prev] + step*float64(j-prev)
				}
			}
			prev = i
		}

	case feature.ImputeMeanFill:
		// Expanding mean of past valid values keeps the fill causal.
		sum, count := 0.0, 0
		for i, v := range out {
			if math.IsNaN(v) {
				if count > 0 {
					out[i] = sum / float64(count)
				}
			} else {
				sum += v
				count++
			}
		}
	}

	for i, v := range out {
		if math.IsNaN(v) {
			keep[i] = false
		}
	}
	return out, keep
}

// resample averages records into weekly or monthly buckets; daily input
// passes through untouched.
func resample(records []climate.Record, g feature.Granularity) []climate.Record {
	if g == feature.Daily || g == "" || len(records) == 0 {
		return records
	}

	bucketOf := func(t time.Time) time.Time {
		switch g {
		case feature.Weekly:
			// Align to Monday.
			offset := (int(t.Weekday()) + 6) % 7
			return t.AddDate(0, 0, -offset)
		case feature.Monthly:
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}
		return t
	}

	var out []climate.Record
	var cur time.Time
	sums := make(map[string]float64)
	counts := make(map[string]int)
	stationID := records[0].StationID

	flush := func() {
		if len(counts) == 0 {
			return
		}
		values := make(map[string]float64, len(sums))
		for name, sum := range sums {
			values[name] = sum / float64(counts[name])
		}
		out = append(out, climate.Record{Date: cur, StationID: stationID, Values: values})
		sums = make(map[string]float64)
		counts = make(map[string]int)
	}

	for i, rec := range records {
		b := bucketOf(rec.Date)
		if i == 0 {
			cur = b
		}
		if !b.Equal(cur) {
			flush()
			cur = b
		}
		for name, v := range rec.Values {
			if math.IsNaN(v) {
				continue
			}
			sums[name] += v
			counts[name]++
		}
	}
	flush()
	return out
}
