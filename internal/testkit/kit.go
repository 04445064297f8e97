package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// Testkit generators for seeded synthetic climate data. Tests and the demo
// path share these so runs stay reproducible without shipping the real BMKG
// extract.

// SeriesOpts shapes a synthetic daily series.
type SeriesOpts struct {
	Days        int
	Start       time.Time
	Base        float64 // series mean, e.g. 27 for Tavg in C
	Annual      float64 // amplitude of the yearly cycle
	Weekly      float64 // amplitude of the weekly cycle
	Noise       float64 // stddev of the additive noise
	MissingRate float64 // fraction of readings dropped to NaN
}

// DefaultSeriesOpts mimics a tropical Tavg series.
func DefaultSeriesOpts(days int) SeriesOpts {
	return SeriesOpts{
		Days:   days,
		Start:  time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		Base:   27.0,
		Annual: 1.5,
		Weekly: 0.4,
		Noise:  0.8,
	}
}

// GenerateSeries produces one station's daily records for the given target
// variable. Identical seeds yield identical series.
func GenerateSeries(stationID int, variable string, seed int64, opts SeriesOpts) []climate.Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]climate.Record, 0, opts.Days)
	for i := 0; i < opts.Days; i++ {
		date := opts.Start.AddDate(0, 0, i)
		v := opts.Base +
			opts.Annual*math.Sin(2*math.Pi*float64(i)/365.25) +
			opts.Weekly*math.Sin(2*math.Pi*float64(i)/7) +
			rng.NormFloat64()*opts.Noise
		if opts.MissingRate > 0 && rng.Float64() < opts.MissingRate {
			v = math.NaN()
		}
		records = append(records, climate.Record{
			Date:      date,
			StationID: stationID,
			Values:    map[string]float64{variable: v},
		})
	}
	return records
}

// GenerateDataset builds a multi-station dataset around the default series
// shape, one seed offset per station.
func GenerateDataset(stationIDs []int, days int, seed int64) *climate.Dataset {
	ds := &climate.Dataset{
		Stations:  make(map[int]climate.Station),
		Series:    make(map[int][]climate.Record),
		Variables: []string{climate.DefaultTarget},
	}
	for i, id := range stationIDs {
		ds.Stations[id] = climate.Station{
			StationID:   id,
			StationName: fmt.Sprintf("Station %d", id),
		}
		ds.Series[id] = GenerateSeries(id, climate.DefaultTarget, seed+int64(i), DefaultSeriesOpts(days))
	}
	return ds
}

// GenerateFrame derives a ready-to-evaluate feature frame from a synthetic
// series using the default preprocessing shape: lags 1-3, no rolling
// windows, calendar off. Kept independent of the preprocessor so harness
// tests do not depend on it.
func GenerateFrame(n int, seed int64) *feature.Frame {
	opts := DefaultSeriesOpts(n + 3)
	records := GenerateSeries(1, climate.DefaultTarget, seed, opts)

	f := &feature.Frame{
		Columns:    []string{"lag_1", "lag_2", "lag_3"},
		TargetName: climate.DefaultTarget,
	}
	for i := 3; i < len(records); i++ {
		f.Dates = append(f.Dates, records[i].Date)
		f.Rows = append(f.Rows, []float64{
			records[i-1].Values[climate.DefaultTarget],
			records[i-2].Values[climate.DefaultTarget],
			records[i-3].Values[climate.DefaultTarget],
		})
		f.Target = append(f.Target, records[i].Values[climate.DefaultTarget])
	}
	return f
}

// WriteClimateCSV writes a loader-compatible climate_data.csv into dir and
// returns its path. Dates use the day-first layout of the BMKG extract.
func WriteClimateCSV(dir string, records []climate.Record, variables []string) (string, error) {
	path := filepath.Join(dir, "climate_data.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := "date,station_id"
	for _, v := range variables {
		header += "," + v
	}
	if _, err := fmt.Fprintln(f, header); err != nil {
		return "", err
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s,%d", rec.Date.Format("02-01-2006"), rec.StationID)
		for _, v := range variables {
			val := rec.Value(v)
			if math.IsNaN(val) {
				line += ","
			} else {
				line += fmt.Sprintf(",%.2f", val)
			}
		}
		if _, err := fmt.Fprintln(f, line); err != nil {
			return "", err
		}
	}
	return path, nil
}
