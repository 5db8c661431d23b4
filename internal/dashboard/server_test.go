// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/pipeline"
	"github.com/pdiddy/pubdash/internal/table"
)

type stubLoader struct {
	snap  *pipeline.Snapshot
	calls int
	last  pipeline.Request
}

func (s *stubLoader) Load(_ context.Context, req pipeline.Request) *pipeline.Snapshot {
	s.calls++
	s.last = req
	return s.snap
}

func newTestServer(t *testing.T, loader Loader) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	s := NewServer(testDashboardConfig, loader, pipeline.Request{InstitutionID: "I1"}, metrics, reg, zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, metrics
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Dashboard(t *testing.T) {
	loader := &stubLoader{snap: sampleSnapshot()}
	ts, metrics := newTestServer(t, loader)

	resp, body := get(t, ts.URL+"/?from=2020&to=2021")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "I1 Publications Dashboard")
	assert.Contains(t, body, "Total Publications")
	assert.Contains(t, body, `id="chart-trends"`)
	assert.Contains(t, body, "Beta")
	assert.NotContains(t, body, "Alpha")
	assert.Contains(t, body, "/export.csv?from=2020&to=2021")
	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, "I1", loader.last.InstitutionID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Renders.WithLabelValues("dashboard")))
}

func TestServer_DashboardNoData(t *testing.T) {
	snap := sampleSnapshot()
	snap.Table = table.New(nil)
	ts, _ := newTestServer(t, &stubLoader{snap: snap})

	resp, body := get(t, ts.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No publications found for 2000-2025.")
	assert.NotContains(t, body, "Total Publications")
}

func TestServer_ExportCSV(t *testing.T) {
	ts, _ := newTestServer(t, &stubLoader{snap: sampleSnapshot()})

	resp, body := get(t, ts.URL+"/export.csv?from=2019&to=2019")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Equal(t, `attachment; filename="publications_2019-2019.csv"`, resp.Header.Get("Content-Disposition"))

	got, err := table.ReadCSV(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "Alpha", got.Rows()[0].Title)
}

func TestServer_ExportCSVOutsideData(t *testing.T) {
	ts, _ := newTestServer(t, &stubLoader{snap: sampleSnapshot()})

	resp, body := get(t, ts.URL+"/export.csv?from=2000&to=2010")

	assert.Equal(t, `attachment; filename="publications_2000-2010.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, strings.Join(table.Columns, ",")+"\n", body)
}

func TestServer_ExportCSVEmptySelection(t *testing.T) {
	snap := sampleSnapshot()
	snap.Table = table.New(nil)
	ts, _ := newTestServer(t, &stubLoader{snap: snap})

	_, body := get(t, ts.URL+"/export.csv")
	assert.Equal(t, strings.Join(table.Columns, ",")+"\n", body)
}

func TestServer_ViewJSON(t *testing.T) {
	ts, _ := newTestServer(t, &stubLoader{snap: sampleSnapshot()})

	resp, body := get(t, ts.URL+"/api/view?from=oops")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v struct {
		SnapshotID string          `json:"snapshot_id"`
		Selected   table.YearRange `json:"selected"`
		Notices    []Notice        `json:"notices"`
		Rows       []any           `json:"rows"`
		Charts     []Chart         `json:"charts"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	assert.Equal(t, "snap-1", v.SnapshotID)
	assert.Equal(t, table.YearRange{Lo: 2019, Hi: 2021}, v.Selected)
	require.Len(t, v.Notices, 1)
	assert.Contains(t, v.Notices[0].Message, `from="oops"`)
	assert.Len(t, v.Rows, 3)
	assert.Len(t, v.Charts, 4)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, &stubLoader{snap: sampleSnapshot()})

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	get(t, ts.URL+"/api/view")
	resp, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `pubdash_dashboard_renders_total{route="api"} 1`)
}

func TestServer_NoMetricsRouteWithoutGatherer(t *testing.T) {
	s := NewServer(testDashboardConfig, &stubLoader{snap: sampleSnapshot()}, pipeline.Request{}, nil, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "publications_2018-2022.csv", ExportFilename(table.YearRange{Lo: 2018, Hi: 2022}))
}
