package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T, telemetryURL, notifierURL string) *Gateway {
	t.Helper()
	return NewGateway(Config{
		TelemetryBaseURL: telemetryURL,
		NotifierBaseURL:  notifierURL,
		HTTPTimeout:      2 * time.Second,
		BreakerFailures:  3,
		BreakerOpenFor:   time.Second,
	})
}

func fetchDashboard(t *testing.T, gw *Gateway, target string) DashboardData {
	t.Helper()
	rec := httptest.NewRecorder()
	gw.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var data DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	return data
}

func TestDashboardAggregatesUpstreams(t *testing.T) {
	telemetry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/readings/latest", r.URL.Path)
		w.Write([]byte(`[
			{"zone_id":"z2","metric":"humidity","valor":60,"unidad":"%"},
			{"zone_id":"z1","metric":"humidity","value":40,"unit":"%","min":30,"max":70},
			{"zone_id":"z1","metric":"temperature","value":22,"unit":"°C"}
		]`))
	}))
	defer telemetry.Close()

	notifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/notifications", r.URL.Path)
		w.Write([]byte(`[
			{"id":"n1","kind":"visit","read":false},
			{"id":"n2","kind":"sensor-alert","read":true}
		]`))
	}))
	defer notifier.Close()

	data := fetchDashboard(t, testGateway(t, telemetry.URL, notifier.URL), "/dashboard/data")

	require.Len(t, data.Readings, 3)
	assert.Equal(t, "z1", data.Readings[0].ZoneID, "sorted by zone then metric")
	assert.Equal(t, "humidity", data.Readings[0].Metric)
	assert.Equal(t, 60.0, data.Readings[2].Value, "valor alias decoded")

	assert.Len(t, data.Notifications, 2)
	assert.Equal(t, 1, data.Unread)
	assert.Empty(t, data.Degraded)

	require.Contains(t, data.Stats, "humidity")
	assert.Equal(t, 50.0, data.Stats["humidity"].Mean)
	assert.Equal(t, 40.0, data.Stats["humidity"].Min)
	assert.Equal(t, 60.0, data.Stats["humidity"].Max)
}

func TestDashboardServesLastGoodWhenUpstreamDies(t *testing.T) {
	var fail atomic.Bool
	notifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"n1","kind":"visit","read":false}]`))
	}))
	defer notifier.Close()

	telemetry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer telemetry.Close()

	gw := testGateway(t, telemetry.URL, notifier.URL)

	first := fetchDashboard(t, gw, "/dashboard/data")
	require.Len(t, first.Notifications, 1)

	fail.Store(true)
	second := fetchDashboard(t, gw, "/dashboard/data")
	assert.Len(t, second.Notifications, 1, "last good snapshot served")
	assert.Contains(t, second.Degraded, "notifier")
}

func TestDashboardUnconfiguredUpstreamIsEmptyNotError(t *testing.T) {
	data := fetchDashboard(t, testGateway(t, "", ""), "/dashboard/data")
	assert.Empty(t, data.Readings)
	assert.Empty(t, data.Notifications)
	assert.Empty(t, data.Degraded)
}

func TestDashboardForwardsZoneFilter(t *testing.T) {
	var gotQuery atomic.Value
	telemetry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Write([]byte(`[]`))
	}))
	defer telemetry.Close()

	gw := testGateway(t, telemetry.URL, "")
	fetchDashboard(t, gw, "/dashboard/data?zone_id=z7")
	assert.Equal(t, "zone_id=z7", gotQuery.Load())
}
