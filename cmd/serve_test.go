package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

func newServerStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedServer(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	written, err := st.UpsertRaw(ctx, model.RawFinancialRecord{
		StockCode:    "600519",
		ReportPeriod: "2023-12-31",
		ReportType:   model.ReportAnnual,
		Market:       model.MarketCN,
		Currency:     "CNY",
		Quality:      model.QualityUnverified,
		Fields:       model.Fields{Revenue: model.Float(1476.94e8)},
	})
	require.NoError(t, err)
	require.True(t, written)

	require.NoError(t, st.ReplaceDerived(ctx, "600519", []model.DerivedIndicatorRecord{{
		StockCode:    "600519",
		ReportPeriod: "2023-12-31",
		Indicators:   model.Indicators{ROE: model.Float(32.0)},
	}}))
}

func TestServeHealth(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServerStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeRawEndpoints(t *testing.T) {
	st := newServerStore(t)
	seedServer(t, st)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stocks/600519/raw")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []model.RawFinancialRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "2023-12-31", recs[0].ReportPeriod)

	resp, err = http.Get(srv.URL + "/api/stocks/600519/raw/2023-12-31")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec model.RawFinancialRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	require.NotNil(t, rec.Fields.Revenue)
	assert.InDelta(t, 1476.94e8, *rec.Fields.Revenue, 1e-3)

	resp, err = http.Get(srv.URL + "/api/stocks/600519/raw/2020-12-31")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeDerivedAndQuality(t *testing.T) {
	st := newServerStore(t)
	seedServer(t, st)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stocks/600519/derived")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var derived []model.DerivedIndicatorRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&derived))
	require.Len(t, derived, 1)

	resp, err = http.Get(srv.URL + "/api/stocks/600519/quality")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quality []struct {
		ReportPeriod string `json:"report_period"`
		Quality      string `json:"data_quality"`
		Locked       bool   `json:"is_locked"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quality))
	require.Len(t, quality, 1)
	assert.Equal(t, "UNVERIFIED", quality[0].Quality)
	assert.False(t, quality[0].Locked)
}

func TestServeMetricDefinitions(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServerStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var defs []model.MetricDefinition
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&defs))
	assert.NotEmpty(t, defs)
}

func TestServeCORSHeaders(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServerStore(t)))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
