package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/strain-sensor/internal/logging"
	"github.com/sweeney/strain-sensor/internal/status"
	"github.com/sweeney/strain-sensor/internal/strain"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:       10,
		DebounceMs:   50,
		TelemetryMs:  1000,
		HeartbeatMs:  900000,
		FilterWindow: 20,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPPort:     ":8080",
	}
	tr := status.NewTracker(start, cfg)
	ts := httptest.NewServer(New(":0", tr, logging.Discard()).Handler())
	t.Cleanup(ts.Close)
	return ts, tr
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

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(status.State{
		Mode:       "strain",
		Calibrated: true,
		Reading:    strain.Reading{PercentLoad: 91.5},
		Status:     strain.Danger,
		AlertSent:  true,
	})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	assert.Equal(t, "DANGER", sj.Status.Level)
	assert.Equal(t, 91.5, sj.Status.Reading.PercentLoad)
	assert.True(t, sj.Status.AlertSent)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, 20, sj.Status.Config.FilterWindow)
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(status.State{
		Mode:   "strain",
		Hold:   true,
		Status: strain.Warning,
		Reading: strain.Reading{
			PercentLoad: 72.25,
			Strain:      5.78e-4,
		},
	})

	for _, path := range []string{"/", "/index.html"} {
		resp, body := get(t, ts.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
		assert.Contains(t, body, "<title>Strain Sensor</title>")
		assert.Contains(t, body, "Reading (held)")
		assert.Contains(t, body, `<td class="warning">WARNING</td>`)
		assert.Contains(t, body, "5.7800e-04")
		assert.Contains(t, body, "not calibrated")
		assert.Contains(t, body, "1000ms")
		assert.Contains(t, body, "tcp://192.168.1.200:1883")
	}
}

func TestHTMLCalibrated(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(status.State{
		Calibrated:  true,
		Calibration: strain.Calibration{Offset: 2047.25, Noise: 1.2, NoiseThreshold: 3.6, At: time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)},
		Tares:       3,
	})
	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "2047.25")
	assert.Contains(t, body, "gate 3.600")
	assert.Contains(t, body, "2026-01-01T00:05:00Z")
	assert.NotContains(t, body, "not calibrated")
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReadOnly(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/", "/index.json", "/healthz"} {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
		assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"), path)
	}

	resp, err := http.Head(ts.URL + "/index.json")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestHealth(t *testing.T) {
	ts, tr := newTestServer(t)

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not calibrated\n", body)

	tr.Update(status.State{Calibrated: true, Status: strain.Warning})
	resp, body = get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok WARNING\n", body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestUptimeFormat(t *testing.T) {
	fn := indexTmpl.Lookup("index")
	require.NotNil(t, fn)

	var sb strings.Builder
	require.NoError(t, renderHTML(&sb, status.Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	assert.Contains(t, sb.String(), "1d 3h 4m 5s")
}
