package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/testkit"
)

func seedReport(t *testing.T, repo *testkit.InMemoryResultRepository, generatedAt time.Time) *eval.ComparisonReport {
	t.Helper()
	report := &eval.ComparisonReport{
		RunID:         core.NewRunID(),
		GeneratedAt:   generatedAt,
		Target:        "Tavg",
		Seed:          42,
		PrimaryMetric: eval.MetricRMSE,
		Ranking:       []string{"naive"},
		Models: map[string]eval.ModelReport{
			"naive": {
				Model:          "naive",
				Metrics:        map[string]eval.MetricSummary{eval.MetricRMSE: {Mean: 1.2, Folds: 3}},
				FoldsAttempted: 3,
			},
		},
		Folds: 3,
	}
	report.Fingerprint = report.ComputeFingerprint()

	results := []eval.MetricResult{
		{Model: "naive", FoldID: 0, Horizon: 1, Metrics: map[string]float64{
			eval.MetricMAE: 1.0, eval.MetricRMSE: 1.0, eval.MetricMAPE: 4.0,
		}},
	}
	require.NoError(t, repo.SaveRun(context.Background(), report, results))
	return report
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	app := NewApp(Config{Port: "0"}, testkit.NewInMemoryResultRepository())

	rec := get(t, app, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLatestReportEndpoint(t *testing.T) {
	repo := testkit.NewInMemoryResultRepository()
	app := NewApp(Config{Port: "0"}, repo)

	rec := get(t, app, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedReport(t, repo, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	want := seedReport(t, repo, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	rec = get(t, app, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var got eval.ComparisonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
}

func TestReportByRunID(t *testing.T) {
	repo := testkit.NewInMemoryResultRepository()
	app := NewApp(Config{Port: "0"}, repo)
	want := seedReport(t, repo, time.Now().UTC())

	rec := get(t, app, "/api/report/"+want.RunID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var got eval.ComparisonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want.RunID, got.RunID)

	rec = get(t, app, "/api/report/"+core.NewRunID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricResultsEndpoint(t *testing.T) {
	repo := testkit.NewInMemoryResultRepository()
	app := NewApp(Config{Port: "0"}, repo)
	report := seedReport(t, repo, time.Now().UTC())

	rec := get(t, app, "/api/metrics/"+report.RunID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID   core.RunID          `json:"run_id"`
		Results []eval.MetricResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, report.RunID, body.RunID)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "naive", body.Results[0].Model)
}

func TestListRunsEndpoint(t *testing.T) {
	repo := testkit.NewInMemoryResultRepository()
	app := NewApp(Config{Port: "0"}, repo)

	rec := get(t, app, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runs":[]}`, rec.Body.String())

	older := seedReport(t, repo, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	newer := seedReport(t, repo, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	rec = get(t, app, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []struct {
			RunID core.RunID `json:"run_id"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 2)
	assert.Equal(t, newer.RunID, body.Runs[0].RunID)
	assert.Equal(t, older.RunID, body.Runs[1].RunID)

	rec = get(t, app, "/api/runs?limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Runs, 1)

	rec = get(t, app, "/api/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
