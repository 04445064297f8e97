package climatefile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// dateLayout matches the day-first dates in the BMKG extract.
const dateLayout = "02-01-2006"

// BMKG publishes 8888 for "not measured" and 9999 for "no data"; both load
// as missing readings.
const (
	sentinelUnmeasured = 8888
	sentinelNoData     = 9999
)

// Reader loads the daily climate dataset from CSV or XLSX files, joining
// the optional station and province detail tables.
type Reader struct {
	climatePath  string
	stationPath  string
	provincePath string
}

// NewReader creates a dataset reader. Station and province paths may be
// empty; stations then carry only their identifier.
func NewReader(climatePath, stationPath, provincePath string) *Reader {
	return &Reader{
		climatePath:  climatePath,
		stationPath:  stationPath,
		provincePath: provincePath,
	}
}

var _ ports.DatasetReader = (*Reader)(nil)

// Load reads, validates and partitions the climate records. Timestamps are
// normalized to UTC midnight and monotonicity per station is enforced;
// duplicate (station, date) pairs are rejected unless a dedup policy says
// otherwise.
func (r *Reader) Load(ctx context.Context, req ports.LoadRequest) (*climate.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headers, rows, err := readTable(r.climatePath)
	if err != nil {
		return nil, err
	}

	col := columnIndex(headers)
	for _, required := range []string{"date", "station_id"} {
		if _, ok := col[required]; !ok {
			return nil, core.NewFormatError(required)
		}
	}

	variables := numericColumns(headers)
	if len(variables) == 0 {
		return nil, fmt.Errorf("%w: no numeric climate variable columns", core.ErrDataFormat)
	}

	series := make(map[int][]climate.Record)
	for i, row := range rows {
		date, err := time.Parse(dateLayout, strings.TrimSpace(cell(row, col["date"])))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad date %q", core.ErrDataFormat, i+2, cell(row, col["date"]))
		}
		stationID, err := strconv.Atoi(strings.TrimSpace(cell(row, col["station_id"])))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad station_id %q", core.ErrDataFormat, i+2, cell(row, col["station_id"]))
		}

		values := make(map[string]float64, len(variables))
		for _, v := range variables {
			values[v] = parseReading(cell(row, col[v]))
		}
		series[stationID] = append(series[stationID], climate.Record{
			Date:      date.UTC(),
			StationID: stationID,
			Values:    values,
		})
	}

	for stationID, records := range series {
		sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
		deduped, err := dedupe(stationID, records, req.Dedup)
		if err != nil {
			return nil, err
		}
		series[stationID] = deduped
	}

	series = filterRange(series, req.From, req.To)

	stations, err := r.loadStations(series)
	if err != nil {
		return nil, err
	}

	ds := &climate.Dataset{Stations: stations, Series: series, Variables: variables}
	ds = ds.FilterStations(func(st climate.Station) bool {
		if req.StationID != 0 && st.StationID != req.StationID {
			return false
		}
		if req.RegionID != 0 && st.RegionID != req.RegionID {
			return false
		}
		if req.ProvinceID != 0 && st.ProvinceID != req.ProvinceID {
			return false
		}
		return true
	})

	if ds.NumRecords() == 0 {
		return nil, fmt.Errorf("%w: %s to %s", core.ErrDataRange,
			formatBound(req.From, "start"), formatBound(req.To, "end"))
	}

	log.Printf("[Reader] loaded %d records across %d stations from %s",
		ds.NumRecords(), len(ds.Series), filepath.Base(r.climatePath))
	return ds, nil
}

// dedupe enforces the per-station duplicate policy. The input is sorted.
func dedupe(stationID int, records []climate.Record, policy climate.DedupPolicy) ([]climate.Record, error) {
	out := records[:0:0]
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && records[j].Date.Equal(records[i].Date) {
			j++
		}
		if j-i == 1 {
			out = append(out, records[i])
			i = j
			continue
		}

		switch policy {
		case climate.DedupKeepFirst:
			out = append(out, records[i])
		case climate.DedupKeepLast:
			out = append(out, records[j-1])
		case climate.DedupAverage:
			out = append(out, averageRecords(records[i:j]))
		default:
			return nil, core.NewDuplicateError(stationID, records[i].Date.Format(dateLayout))
		}
		i = j
	}
	return out, nil
}

func averageRecords(dup []climate.Record) climate.Record {
	merged := climate.Record{
		Date:      dup[0].Date,
		StationID: dup[0].StationID,
		Values:    make(map[string]float64),
	}
	for name := range dup[0].Values {
		sum, count := 0.0, 0
		for _, rec := range dup {
			if v := rec.Value(name); !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count > 0 {
			merged.Values[name] = sum / float64(count)
		} else {
			merged.Values[name] = math.NaN()
		}
	}
	return merged
}

func filterRange(series map[int][]climate.Record, from, to time.Time) map[int][]climate.Record {
	if from.IsZero() && to.IsZero() {
		return series
	}
	out := make(map[int][]climate.Record, len(series))
	for id, records := range series {
		var kept []climate.Record
		for _, rec := range records {
			if !from.IsZero() && rec.Date.Before(from) {
				continue
			}
			if !to.IsZero() && rec.Date.After(to) {
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) > 0 {
			out[id] = kept
		}
	}
	return out
}

// loadStations joins the detail tables when configured, otherwise stations
// carry only their identifier.
func (r *Reader) loadStations(series map[int][]climate.Record) (map[int]climate.Station, error) {
	stations := make(map[int]climate.Station, len(series))
	for id := range series {
		stations[id] = climate.Station{StationID: id}
	}
	if r.stationPath == "" {
		return stations, nil
	}

	headers, rows, err := readTable(r.stationPath)
	if err != nil {
		return nil, err
	}
	col := columnIndex(headers)
	if _, ok := col["station_id"]; !ok {
		return nil, core.NewFormatError("station_id")
	}

	provinces, err := r.loadProvinces()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(cell(row, col["station_id"])))
		if err != nil {
			continue
		}
		if _, ok := stations[id]; !ok {
			continue
		}
		st := climate.Station{
			StationID:   id,
			StationName: cell(row, colOf(col, "station_name")),
			RegionName:  cell(row, colOf(col, "region_name")),
		}
		st.RegionID, _ = strconv.Atoi(cell(row, colOf(col, "region_id")))
		st.ProvinceID, _ = strconv.Atoi(cell(row, colOf(col, "province_id")))
		st.Latitude, _ = strconv.ParseFloat(cell(row, colOf(col, "latitude")), 64)
		st.Longitude, _ = strconv.ParseFloat(cell(row, colOf(col, "longitude")), 64)
		st.ProvinceName = provinces[st.ProvinceID]
		stations[id] = st
	}
	return stations, nil
}

func (r *Reader) loadProvinces() (map[int]string, error) {
	if r.provincePath == "" {
		return nil, nil
	}
	headers, rows, err := readTable(r.provincePath)
	if err != nil {
		return nil, err
	}
	col := columnIndex(headers)
	out := make(map[int]string, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(cell(row, col["province_id"])))
		if err != nil {
			continue
		}
		out[id] = cell(row, colOf(col, "province_name"))
	}
	return out, nil
}

// readTable reads a CSV or XLSX table into a header row plus data rows.
func readTable(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrSource, path, err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrSource, path, err)
		}
		defer f.Close()
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrSource, path, err)
		}
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrSource, path, err)
		}
		defer f.Close()
		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		rows, err = reader.ReadAll()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", core.ErrSource, path, err)
		}
	}

	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: %s needs a header row and at least one data row", core.ErrDataFormat, path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return headers, rows[1:], nil
}

func columnIndex(headers []string) map[string]int {
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[h] = i
	}
	return col
}

// colOf returns a column's index, -1 when the header is absent.
func colOf(col map[string]int, name string) int {
	if i, ok := col[name]; ok {
		return i
	}
	return -1
}

// numericColumns lists the variable columns, excluding identifiers and the
// categorical wind direction.
func numericColumns(headers []string) []string {
	var out []string
	for _, h := range headers {
		switch h {
		case "date", "station_id", climate.ColWindCardinal, "":
			continue
		}
		out = append(out, h)
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func formatBound(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.Format(dateLayout)
}

// parseReading converts one cell to a float, mapping blanks and the BMKG
// missing-data sentinels to NaN.
func parseReading(s string) float64 {
	if s == "" || s == "NA" || s == "-" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if v == sentinelUnmeasured || v == sentinelNoData {
		return math.NaN()
	}
	return v
}
