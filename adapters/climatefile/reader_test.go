package climatefile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/testkit"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesAndPartitionsByStation(t *testing.T) {
	records := testkit.GenerateSeries(96001, climate.DefaultTarget, 7, testkit.DefaultSeriesOpts(30))
	records = append(records, testkit.GenerateSeries(96002, climate.DefaultTarget, 8, testkit.DefaultSeriesOpts(30))...)
	path, err := testkit.WriteClimateCSV(t.TempDir(), records, []string{climate.DefaultTarget})
	require.NoError(t, err)

	ds, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{})
	require.NoError(t, err)

	assert.Equal(t, []int{96001, 96002}, ds.StationIDs())
	assert.Equal(t, 60, ds.NumRecords())
	assert.Equal(t, []string{climate.DefaultTarget}, ds.Variables)

	series := ds.SeriesFor(96001)
	require.Len(t, series, 30)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Date.Before(series[i].Date))
	}
}

func TestLoadMissingColumnFails(t *testing.T) {
	path := writeCSV(t, "climate_data.csv", "date,Tavg\n01-01-2015,26.5\n")

	_, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataFormat)
	assert.Contains(t, err.Error(), "station_id")
}

func TestLoadBadDateFails(t *testing.T) {
	path := writeCSV(t, "climate_data.csv",
		"date,station_id,Tavg\n2015/01/01,96001,26.5\n")

	_, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{})
	assert.ErrorIs(t, err, core.ErrDataFormat)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.csv"), "", "").
		Load(context.Background(), ports.LoadRequest{})
	assert.ErrorIs(t, err, core.ErrSource)
}

func TestLoadSentinelsBecomeMissing(t *testing.T) {
	path := writeCSV(t, "climate_data.csv",
		"date,station_id,Tavg,RR\n"+
			"01-01-2015,96001,26.5,8888\n"+
			"02-01-2015,96001,9999,4.0\n"+
			"03-01-2015,96001,,1.0\n")

	ds, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{})
	require.NoError(t, err)

	series := ds.SeriesFor(96001)
	require.Len(t, series, 3)
	assert.True(t, math.IsNaN(series[0].Value(climate.VarRainfall)))
	assert.True(t, math.IsNaN(series[1].Value(climate.VarTempAvg)))
	assert.True(t, math.IsNaN(series[2].Value(climate.VarTempAvg)))
	assert.InDelta(t, 26.5, series[0].Value(climate.VarTempAvg), 1e-9)
}

func TestLoadDuplicatePolicies(t *testing.T) {
	content := "date,station_id,Tavg\n" +
		"01-01-2015,96001,20.0\n" +
		"01-01-2015,96001,30.0\n" +
		"02-01-2015,96001,25.0\n"

	t.Run("reject by default", func(t *testing.T) {
		path := writeCSV(t, "climate_data.csv", content)
		_, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrDuplicateTimestamp)
		assert.Contains(t, err.Error(), "96001")
	})

	cases := []struct {
		policy climate.DedupPolicy
		want   float64
	}{
		{climate.DedupKeepFirst, 20.0},
		{climate.DedupKeepLast, 30.0},
		{climate.DedupAverage, 25.0},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			path := writeCSV(t, "climate_data.csv", content)
			ds, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{Dedup: tc.policy})
			require.NoError(t, err)
			series := ds.SeriesFor(96001)
			require.Len(t, series, 2)
			assert.InDelta(t, tc.want, series[0].Value(climate.VarTempAvg), 1e-9)
		})
	}
}

func TestLoadDateRangeFilter(t *testing.T) {
	records := testkit.GenerateSeries(96001, climate.DefaultTarget, 7, testkit.DefaultSeriesOpts(20))
	dir := t.TempDir()
	path, err := testkit.WriteClimateCSV(dir, records, []string{climate.DefaultTarget})
	require.NoError(t, err)

	from := time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC)
	ds, err := NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{From: from, To: to})
	require.NoError(t, err)

	series := ds.SeriesFor(96001)
	require.Len(t, series, 6)
	assert.Equal(t, from, series[0].Date)
	assert.Equal(t, to, series[len(series)-1].Date)

	_, err = NewReader(path, "", "").Load(context.Background(), ports.LoadRequest{
		From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, core.ErrDataRange)
}

func TestLoadJoinsStationAndProvinceDetail(t *testing.T) {
	dir := t.TempDir()
	climatePath := filepath.Join(dir, "climate_data.csv")
	require.NoError(t, os.WriteFile(climatePath, []byte(
		"date,station_id,Tavg\n"+
			"01-01-2015,96001,26.5\n"+
			"01-01-2015,96101,28.0\n"), 0o644))

	stationPath := filepath.Join(dir, "station_detail.csv")
	require.NoError(t, os.WriteFile(stationPath, []byte(
		"station_id,station_name,region_id,region_name,province_id,latitude,longitude\n"+
			"96001,Stasiun Meteorologi Maimun Saleh,1100,Kota Sabang,11,5.87655,95.33785\n"+
			"96101,Stasiun Klimatologi Aceh,1108,Aceh Besar,11,5.51533,95.42372\n"), 0o644))

	provincePath := filepath.Join(dir, "province_detail.csv")
	require.NoError(t, os.WriteFile(provincePath, []byte(
		"province_id,province_name\n11,Aceh\n"), 0o644))

	ds, err := NewReader(climatePath, stationPath, provincePath).
		Load(context.Background(), ports.LoadRequest{})
	require.NoError(t, err)

	st := ds.Stations[96001]
	assert.Equal(t, "Stasiun Meteorologi Maimun Saleh", st.StationName)
	assert.Equal(t, 1100, st.RegionID)
	assert.Equal(t, "Aceh", st.ProvinceName)
	assert.InDelta(t, 5.87655, st.Latitude, 1e-9)

	filtered, err := NewReader(climatePath, stationPath, provincePath).
		Load(context.Background(), ports.LoadRequest{RegionID: 1108})
	require.NoError(t, err)
	assert.Equal(t, []int{96101}, filtered.StationIDs())

	_, err = NewReader(climatePath, stationPath, provincePath).
		Load(context.Background(), ports.LoadRequest{ProvinceID: 99})
	assert.ErrorIs(t, err, core.ErrDataRange)
}
