package exporter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, trigger *Trigger) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	trigger.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	trigger, _, _ := newTestTrigger(t, &fakeSource{})
	srv := newTestServer(t, trigger)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerEndpointAcceptsAndCompletes(t *testing.T) {
	trigger, _, _ := newTestTrigger(t, &fakeSource{records: testRecords()})
	srv := newTestServer(t, trigger)

	resp, err := http.Post(srv.URL+"/api/v1/export", "application/json", strings.NewReader(`{"only_new": false}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	trigger.Wait()

	var status Status
	getJSON(t, srv.URL+"/api/v1/export/status", &status)
	assert.Equal(t, StateCompleted, status.State)
	require.NotNil(t, status.Result)
	require.NotNil(t, status.Result.CSV)
	assert.Equal(t, 2, status.Result.CSV.Records)
}

func TestTriggerEndpointRejectsWhileRunning(t *testing.T) {
	trigger, store, _ := newTestTrigger(t, &fakeSource{})
	srv := newTestServer(t, trigger)

	started := time.Now().Add(-5 * time.Minute)
	require.NoError(t, store.Save(Status{State: StateRunning, StartedAt: &started}))

	resp, err := http.Post(srv.URL+"/api/v1/export", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "export already running", body["error"])
}

func TestTriggerEndpointToleratesEmptyBody(t *testing.T) {
	trigger, _, _ := newTestTrigger(t, &fakeSource{})
	srv := newTestServer(t, trigger)

	resp, err := http.Post(srv.URL+"/api/v1/export", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	trigger.Wait()
}

func TestStatusEndpointDefaultsToIdle(t *testing.T) {
	trigger, _, _ := newTestTrigger(t, &fakeSource{})
	srv := newTestServer(t, trigger)

	var status Status
	resp := getJSON(t, srv.URL+"/api/v1/export/status", &status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StateIdle, status.State)
}

func TestRunsEndpointGroupsByStamp(t *testing.T) {
	trigger, _, _ := newTestTrigger(t, &fakeSource{records: testRecords()})
	srv := newTestServer(t, trigger)

	resp, err := http.Post(srv.URL+"/api/v1/export", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	trigger.Wait()

	var body struct {
		Runs  []Run `json:"runs"`
		Count int   `json:"count"`
	}
	getJSON(t, srv.URL+"/api/v1/export/runs", &body)

	require.Equal(t, 1, body.Count)
	run := body.Runs[0]
	require.NotNil(t, run.CSV)
	require.NotNil(t, run.XML)
	assert.Equal(t, 2, run.CSV.Records)
	assert.Equal(t, 2, run.XML.Records)
	assert.Greater(t, run.CSV.SizeBytes, int64(0))
	assert.Contains(t, run.CSV.Filename, run.Stamp)
}
