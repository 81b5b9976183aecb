package httpserver_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "valomaison/internal/adapters/http_server"
	"valomaison/internal/app"
	"valomaison/internal/domain"
)

type fixedStats map[string]domain.AggregatedStats

func (f fixedStats) PriceStats(_ context.Context, code string) domain.AggregatedStats {
	if s, ok := f[code]; ok {
		return s
	}
	return domain.AggregatedStats{AreasUsed: []string{code}, RadiusKm: 50}
}

// slowStats answers only after d, or when the request is abandoned.
type slowStats struct{ d time.Duration }

func (s slowStats) PriceStats(ctx context.Context, code string) domain.AggregatedStats {
	select {
	case <-time.After(s.d):
	case <-ctx.Done():
	}
	return domain.AggregatedStats{AreasUsed: []string{code}}
}

func serve(t *testing.T, timeout time.Duration, stats app.StatsProvider) *httptest.Server {
	t.Helper()
	srv := server.New(timeout)
	srv.MountHandlers(&server.Handlers{E: app.NewEstimator(stats, app.DefaultAdjustmentModel())})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := domain.PriceStatistics{Mean: 10000, Median: 10000, Min: 6000, Max: 15000, StdDev: 1500, Count: 120}
	stats := fixedStats{"75011": {TypeStats: domain.TypeStats{Apartment: p, Global: p}, AreasUsed: []string{"75011"}}}

	return serve(t, 5*time.Second, stats)
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/v1/estimate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestEstimate_OK(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL, `{"code_postal":"75011","type_bien":"Appartement","surface":50,"nb_pieces":2,
		"etage":3,"ascenseur":true,"etat_general":"<b>bon</b>","parking":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res domain.ValuationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Error)
	require.NotNil(t, res.Mid)
	// floor +0.02, elevator +0.03, parking +0.05
	assert.Equal(t, 11000.0, *res.AdjustedPricePerArea)
	assert.Equal(t, 550000.0, *res.Mid)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
	assert.Contains(t, res.Adjustments, domain.FactorParking)
}

func TestEstimate_NoDataIsStill200(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL, `{"code_postal":"23000","type_bien":"maison","surface":120,"nb_pieces":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, true, raw["error"])
	assert.Nil(t, raw["low"])
	assert.Nil(t, raw["mid"])
	assert.Nil(t, raw["high"])
}

func TestEstimate_InvalidCriteria(t *testing.T) {
	ts := newTestServer(t)
	cases := map[string]string{
		"surface":     `{"code_postal":"75011","type_bien":"appartement","surface":5,"nb_pieces":1}`,
		"code_postal": `{"code_postal":"750","type_bien":"appartement","surface":50,"nb_pieces":1}`,
		"nb_pieces":   `{"code_postal":"75011","type_bien":"appartement","surface":50}`,
		"dpe":         `{"code_postal":"75011","type_bien":"appartement","surface":50,"nb_pieces":1,"dpe":"Z"}`,
	}
	for field, body := range cases {
		resp := post(t, ts.URL, body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, field)
		assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
		var p struct{ Field string }
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
		assert.Equal(t, field, p.Field)
	}

	resp := post(t, ts.URL, `{"code_postal":"75011","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStats_ETag(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/stats/75011")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "75011", body["code_postal"])

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/stats/75011", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)

	resp3, err := http.Get(ts.URL + "/v1/stats/abc")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)

	resp4, err := http.Get(ts.URL + "/v1/stats/23000")
	require.NoError(t, err)
	defer resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEstimate_TimeoutIsProblemJSON(t *testing.T) {
	ts := serve(t, 50*time.Millisecond, slowStats{d: 300 * time.Millisecond})
	resp := post(t, ts.URL, `{"code_postal":"75011","type_bien":"appartement","surface":50,"nb_pieces":2}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	var p struct{ Title string }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, "Timeout", p.Title)
}

func TestEstimate_UnencodableResultIs500(t *testing.T) {
	nan := domain.PriceStatistics{Mean: math.NaN(), Median: math.NaN(), Count: 20}
	ts := serve(t, 5*time.Second, fixedStats{"75011": {TypeStats: domain.TypeStats{Global: nan}, AreasUsed: []string{"75011"}}})

	resp := post(t, ts.URL, `{"code_postal":"75011","type_bien":"appartement","surface":50,"nb_pieces":2}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}
