package climate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(day int, stationID int, tavg float64) Record {
	return Record{
		Date:      time.Date(2015, 1, day, 0, 0, 0, 0, time.UTC),
		StationID: stationID,
		Values:    map[string]float64{VarTempAvg: tavg},
	}
}

func TestRecordValue(t *testing.T) {
	r := rec(1, 96001, 26.5)
	assert.Equal(t, 26.5, r.Value(VarTempAvg))
	assert.True(t, math.IsNaN(r.Value(VarRainfall)))
}

func TestDatasetAccessors(t *testing.T) {
	ds := &Dataset{
		Stations: map[int]Station{96002: {StationID: 96002}, 96001: {StationID: 96001}},
		Series: map[int][]Record{
			96002: {rec(1, 96002, 28)},
			96001: {rec(1, 96001, 26), rec(2, 96001, 27)},
		},
		Variables: []string{VarTempAvg},
	}

	assert.Equal(t, []int{96001, 96002}, ds.StationIDs())
	assert.Equal(t, 3, ds.NumRecords())
	assert.Len(t, ds.SeriesFor(96001), 2)
}

func TestAverageSeriesSkipsMissingReadings(t *testing.T) {
	ds := &Dataset{
		Series: map[int][]Record{
			96001: {rec(1, 96001, 20), rec(2, 96001, 22)},
			96002: {rec(1, 96002, 30), rec(2, 96002, math.NaN())},
		},
	}

	merged := ds.AverageSeries()
	require.Len(t, merged, 2)

	assert.InDelta(t, 25.0, merged[0].Value(VarTempAvg), 1e-9)
	// The NaN reading drops out of the mean instead of poisoning it.
	assert.InDelta(t, 22.0, merged[1].Value(VarTempAvg), 1e-9)
	assert.True(t, merged[0].Date.Before(merged[1].Date))
}

func TestFilterStations(t *testing.T) {
	ds := &Dataset{
		Stations: map[int]Station{
			96001: {StationID: 96001, ProvinceID: 11},
			96002: {StationID: 96002, ProvinceID: 31},
		},
		Series: map[int][]Record{
			96001: {rec(1, 96001, 26)},
			96002: {rec(1, 96002, 28)},
		},
		Variables: []string{VarTempAvg},
	}

	filtered := ds.FilterStations(func(st Station) bool { return st.ProvinceID == 31 })
	assert.Equal(t, []int{96002}, filtered.StationIDs())
	assert.Equal(t, 1, filtered.NumRecords())
	// The parent dataset is untouched.
	assert.Equal(t, 2, ds.NumRecords())
}
