package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/config"
	"github.com/rshade/netzero-testops/internal/exporter"
	"github.com/rshade/netzero-testops/internal/history"
	"github.com/rshade/netzero-testops/internal/report"
)

const loginScenario = `{
	"name": "E-commerce Login Test",
	"sustainable_metrics": {"duration_seconds": 2.1, "cpu_utilization": 0.20, "memory_gb": 0.8, "storage_gb": 0.1, "network_mb": 2.5},
	"wasteful_metrics": {"duration_seconds": 6.8, "cpu_utilization": 0.75, "memory_gb": 3.2, "storage_gb": 0.5, "network_mb": 8.1}
}`

// idleScenario has a zero-energy baseline and is always undefined.
const idleScenario = `{
	"name": "Idle",
	"sustainable_metrics": {"duration_seconds": 1},
	"wasteful_metrics": {"duration_seconds": 3}
}`

type testServer struct {
	*Server
	store *history.Store
	reg   *prometheus.Registry
}

func newTestServer(t *testing.T, withHistory bool) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	exp, err := exporter.New(reg)
	require.NoError(t, err)

	ts := &testServer{reg: reg}
	opts := Options{
		Config:   config.Default(),
		Observer: exp,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
		NewID:    func() string { return "report-1" },
	}
	if withHistory {
		store, err := history.Open(history.Config{Path: filepath.Join(t.TempDir(), "history.db")})
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		ts.store = store
		opts.Store = store
	}
	ts.Server = New(opts)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, carbon.CalculatorVersion, body["version"])
	assert.Equal(t, false, body["history"])
}

func TestEstimate(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantG      float64
	}{
		{
			name:       "default grid",
			body:       `{"sample": {"duration_seconds": 2.1, "cpu_utilization": 0.20, "memory_gb": 0.8, "storage_gb": 0.1, "network_mb": 2.5}}`,
			wantStatus: http.StatusOK,
			wantG:      0.0016651114666666673,
		},
		{
			name:       "explicit intensity",
			body:       `{"grid_intensity_g_co2_kwh": 800, "sample": {"duration_seconds": 2.1, "cpu_utilization": 0.20, "memory_gb": 0.8, "storage_gb": 0.1, "network_mb": 2.5}}`,
			wantStatus: http.StatusOK,
			wantG:      0.0016651114666666673 * 2,
		},
		{
			name:       "invalid cpu",
			body:       `{"sample": {"duration_seconds": 1, "cpu_utilization": 1.5}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown region",
			body:       `{"region": "moon-base-1", "sample": {"duration_seconds": 1}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"sample": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/estimate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				var e errorResponse
				decode(t, rec, &e)
				assert.NotEmpty(t, e.Error)
				return
			}
			var a carbon.Assessment
			decode(t, rec, &a)
			assert.InEpsilon(t, tt.wantG, a.Carbon.TotalG, 1e-9)
		})
	}
}

func TestEstimate_Region(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(t, http.MethodPost, "/v1/estimate", `{"region": "EU-North-1", "sample": {"duration_seconds": 3600, "cpu_utilization": 1}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a carbon.Assessment
	decode(t, rec, &a)
	assert.Equal(t, 8.8, a.Carbon.GridIntensity)
}

func TestCompare(t *testing.T) {
	ts := newTestServer(t, false)

	body := `{
		"baseline": {"duration_seconds": 6.8, "cpu_utilization": 0.75, "memory_gb": 3.2, "storage_gb": 0.5, "network_mb": 8.1},
		"optimized": {"duration_seconds": 2.1, "cpu_utilization": 0.20, "memory_gb": 0.8, "storage_gb": 0.1, "network_mb": 2.5}
	}`
	rec := ts.do(t, http.MethodPost, "/v1/compare", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result carbon.ComparisonResult
	decode(t, rec, &result)
	assert.InEpsilon(t, 91.81644413538862, result.Summary.CarbonReductionPct, 1e-9)
	assert.InEpsilon(t, 69.11764705882352, result.Summary.DurationReductionPct, 1e-9)
	assert.InEpsilon(t, 168.13736576, result.Summary.EnergySavedJoules, 1e-9)
}

func TestCompare_ZeroBaseline(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(t, http.MethodPost, "/v1/compare", `{"baseline": {"duration_seconds": 0}, "optimized": {"duration_seconds": 1, "cpu_utilization": 0.1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "division by zero")
}

func TestProject(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/v1/project", `{"energy_saved_joules": 168.13736576, "carbon_saved_g_co2e": 0.018681929528888884}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p carbon.ProjectionResult
	decode(t, rec, &p)
	assert.Equal(t, 100, p.Parameters.DailyTests)
	assert.Equal(t, 365, p.Parameters.ProjectionDays)
	assert.InEpsilon(t, 1.7047260695111106, p.Environmental.EnergySavedKWh, 1e-9)
	assert.InEpsilon(t, 0.6818904278044442, p.Environmental.CarbonSavedKg, 1e-9)

	rec = ts.do(t, http.MethodPost, "/v1/project", `{"energy_saved_joules": 1, "carbon_saved_g_co2e": 1, "horizon_days": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/project", `{"energy_saved_joules": 1, "carbon_saved_g_co2e": 1, "daily_tests": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &p)
	assert.Equal(t, 0.0, p.Cost.TotalSavings)
}

func TestCreateReport(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodPost, "/v1/reports", `{"scenarios": [`+loginScenario+`]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/reports/report-1", rec.Header().Get("Location"))

	var r report.Report
	decode(t, rec, &r)
	assert.Equal(t, "report-1", r.Metadata.ReportID)
	assert.Equal(t, 1, r.Summary.ScenariosIncluded)
	require.NotNil(t, r.Projections)
	assert.InEpsilon(t, 0.6818904278044442, r.Projections.Environmental.CarbonSavedKg, 1e-9)

	get := ts.do(t, http.MethodGet, "/v1/reports/report-1", "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.JSONEq(t, rec.Body.String(), get.Body.String())

	list := ts.do(t, http.MethodGet, "/v1/reports?limit=5", "")
	require.Equal(t, http.StatusOK, list.Code)
	var listed struct {
		Reports []history.Entry `json:"reports"`
		Count   int             `json:"count"`
	}
	decode(t, list, &listed)
	assert.Equal(t, 1, listed.Count)
	assert.Equal(t, "report-1", listed.Reports[0].ReportID)

	metrics := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `netzero_scenario_carbon_reduction_percent{scenario="E-commerce Login Test"}`)
}

func TestCreateReport_Errors(t *testing.T) {
	ts := newTestServer(t, true)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty scenarios", `{"scenarios": []}`, http.StatusBadRequest},
		{"missing block", `{"scenarios": [{"name": "a", "sustainable_metrics": {"duration_seconds": 1}}]}`, http.StatusBadRequest},
		{"invalid sample", `{"scenarios": [{"name": "a", "sustainable_metrics": {"duration_seconds": -1}, "wasteful_metrics": {"duration_seconds": 1}}]}`, http.StatusBadRequest},
		{"negative daily tests", `{"daily_tests": -1, "scenarios": [` + loginScenario + `]}`, http.StatusBadRequest},
		{"negative daily tests without projection", `{"daily_tests": -5, "scenarios": [` + idleScenario + `]}`, http.StatusBadRequest},
		{"duplicate scenario names", `{"scenarios": [` + loginScenario + `, ` + loginScenario + `]}`, http.StatusBadRequest},
		{"overflowing energy", `{"scenarios": [{"name": "huge", "sustainable_metrics": {"duration_seconds": 1}, "wasteful_metrics": {"duration_seconds": 3600, "cpu_utilization": 1, "memory_gb": 1e308}}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/reports", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestReports_NotFoundAndBadLimit(t *testing.T) {
	ts := newTestServer(t, true)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/v1/reports/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/v1/reports?limit=abc", "").Code)
}

func TestReports_DisabledWithoutHistory(t *testing.T) {
	ts := newTestServer(t, false)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/v1/reports", "").Code)

	rec := ts.do(t, http.MethodPost, "/v1/reports", `{"scenarios": [`+loginScenario+`]}`)
	assert.Equal(t, http.StatusCreated, rec.Code, "reports are still generated without history")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, false)
	ts.opts.CORS = CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: time.Hour}
	ts.Server = New(ts.opts)

	req := httptest.NewRequest(http.MethodOptions, "/v1/estimate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_CreatedReportLocationIsExposed(t *testing.T) {
	ts := newTestServer(t, true)
	ts.opts.CORS = CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: time.Hour}
	ts.Server = New(ts.opts)

	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(`{"scenarios": [`+loginScenario+`]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/reports/report-1", rec.Header().Get("Location"))
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Location")
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Config: config.Default(), Gatherer: prometheus.NewRegistry(), Logger: zerolog.New(&buf)})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	logs := buf.String()
	assert.Contains(t, logs, `"path":"/metrics"`)
	assert.NotContains(t, logs, `"path":"/healthz"`)
}
