package climate

import (
	"math"
	"sort"
	"time"
)

// Daily climate variables recorded by BMKG stations, as they appear in the
// climate_data column headers.
const (
	VarTempMin      = "Tn"      // min temperature (C)
	VarTempMax      = "Tx"      // max temperature (C)
	VarTempAvg      = "Tavg"    // avg temperature (C)
	VarHumidityAvg  = "RH_avg"  // avg humidity (%)
	VarRainfall     = "RR"      // rainfall (mm)
	VarSunshine     = "ss"      // sunshine duration (hour)
	VarWindMax      = "ff_x"    // max wind speed (m/s)
	VarWindMaxDir   = "ddd_x"   // wind direction at maximum speed (deg)
	VarWindAvg      = "ff_avg"  // avg wind speed (m/s)
	ColWindCardinal = "ddd_car" // cardinal wind direction, categorical
)

// DefaultTarget is the variable modeled when none is configured.
const DefaultTarget = VarTempAvg

// NumericVariables lists the modelable columns in stable order.
func NumericVariables() []string {
	return []string{
		VarTempMin, VarTempMax, VarTempAvg, VarHumidityAvg,
		VarRainfall, VarSunshine, VarWindMax, VarWindMaxDir, VarWindAvg,
	}
}

// DedupPolicy controls what the loader does with duplicate (station, date)
// pairs. The zero value rejects the dataset.
type DedupPolicy string

const (
	DedupReject    DedupPolicy = "reject"
	DedupKeepFirst DedupPolicy = "keep-first"
	DedupKeepLast  DedupPolicy = "keep-last"
	DedupAverage   DedupPolicy = "average"
)

// Record is one daily observation from one station. Missing readings are
// stored as NaN.
type Record struct {
	Date      time.Time          `json:"date"`
	StationID int                `json:"station_id"`
	Values    map[string]float64 `json:"values"`
}

// Value returns the reading for a variable, NaN when absent.
func (r Record) Value(variable string) float64 {
	v, ok := r.Values[variable]
	if !ok {
		return math.NaN()
	}
	return v
}

// Station describes the observation site, joined with its region and
// province detail.
type Station struct {
	StationID    int     `json:"station_id"`
	StationName  string  `json:"station_name"`
	RegionID     int     `json:"region_id"`
	RegionName   string  `json:"region_name"`
	ProvinceID   int     `json:"province_id"`
	ProvinceName string  `json:"province_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Dataset is an immutable snapshot of loaded records, partitioned by
// station. Per-station series are sorted by date with no duplicates; the
// loader enforces both before a Dataset is constructed.
type Dataset struct {
	Stations  map[int]Station
	Series    map[int][]Record
	Variables []string
}

// StationIDs returns the station identifiers in ascending order.
func (d *Dataset) StationIDs() []int {
	ids := make([]int, 0, len(d.Series))
	for id := range d.Series {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SeriesFor returns the ordered records for one station.
func (d *Dataset) SeriesFor(stationID int) []Record {
	return d.Series[stationID]
}

// NumRecords returns the total record count across stations.
func (d *Dataset) NumRecords() int {
	n := 0
	for _, s := range d.Series {
		n += len(s)
	}
	return n
}

// AverageSeries merges all station series into one series of per-date means,
// mirroring the dashboard's default "average over selected stations" view.
// The result is a new series; the dataset is not mutated.
func (d *Dataset) AverageSeries() []Record {
	type acc struct {
		sum   map[string]float64
		count map[string]int
	}
	byDate := make(map[time.Time]*acc)
	for _, series := range d.Series {
		for _, rec := range series {
			a, ok := byDate[rec.Date]
			if !ok {
				a = &acc{sum: make(map[string]float64), count: make(map[string]int)}
				byDate[rec.Date] = a
			}
			for variable, v := range rec.Values {
				if math.IsNaN(v) {
					continue
				}
				a.sum[variable] += v
				a.count[variable]++
			}
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	merged := make([]Record, 0, len(dates))
	for _, date := range dates {
		a := byDate[date]
		values := make(map[string]float64, len(a.sum))
		for variable, sum := range a.sum {
			values[variable] = sum / float64(a.count[variable])
		}
		merged = append(merged, Record{Date: date, StationID: 0, Values: values})
	}
	return merged
}

// FilterStations returns a derived dataset restricted to stations matching
// the predicate. Series slices are shared read-only with the parent.
func (d *Dataset) FilterStations(keep func(Station) bool) *Dataset {
	out := &Dataset{
		Stations:  make(map[int]Station),
		Series:    make(map[int][]Record),
		Variables: d.Variables,
	}
	for id, series := range d.Series {
		st := d.Stations[id]
		if keep(st) {
			out.Stations[id] = st
			out.Series[id] = series
		}
	}
	return out
}
