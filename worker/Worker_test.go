package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ConfigService "grafana-trmnl-agent/service/config"
	GrafanaService "grafana-trmnl-agent/service/grafana"
	TrmnlService "grafana-trmnl-agent/service/trmnl"
)

const workerDashboardJSON = `{
	"dashboard": {
		"uid": "abc123",
		"title": "Fleet",
		"panels": [{
			"id": 4,
			"type": "stat",
			"title": "Active Users",
			"datasource": {"uid": "prom-1"},
			"targets": [{"refId": "A", "expr": "count(sessions)"}]
		}]
	}
}`

const workerQueryJSON = `{
	"results": {
		"A": {
			"frames": [{
				"schema": {"fields": [{"name": "Time", "type": "time"}, {"name": "Value", "type": "number"}]},
				"data": {"values": [[1700000000000], [1247]]}
			}]
		}
	}
}`

type fakeBackends struct {
	grafana   *httptest.Server
	webhook   *httptest.Server
	pushed    []map[string]any
	searched  bool
	queryJSON string
	dashFail  bool
}

func newFakeBackends(t *testing.T, queryJSON string) *fakeBackends {
	t.Helper()
	f := &fakeBackends{queryJSON: queryJSON}

	f.grafana = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/dashboards/uid/"):
			if f.dashFail {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.Write([]byte(workerDashboardJSON))
		case r.URL.Path == "/api/search":
			f.searched = true
			w.Write([]byte(`[{"uid": "other", "title": "Other", "type": "dash-db"}]`))
		case r.URL.Path == "/api/ds/query":
			w.Write([]byte(f.queryJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.grafana.Close)

	f.webhook = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.pushed = append(f.pushed, body)
	}))
	t.Cleanup(f.webhook.Close)

	return f
}

func (f *fakeBackends) worker(panelID int) *Worker {
	config := &ConfigService.Config{}
	config.Panel.DashboardUID = "abc123"
	config.Panel.PanelID = panelID
	config.Panel.TimeFrom = "now-1h"
	config.Panel.TimeTo = "now"

	return CreateWorker(config,
		GrafanaService.CreateGrafanaService(f.grafana.URL, "token"),
		TrmnlService.CreateTrmnlService(f.webhook.URL))
}

func mergeVariables(t *testing.T, pushed map[string]any) map[string]any {
	t.Helper()
	variables, ok := pushed["merge_variables"].(map[string]any)
	require.True(t, ok)
	return variables
}

func TestWorkerRun(t *testing.T) {
	backends := newFakeBackends(t, workerQueryJSON)
	worker := backends.worker(4)

	err := worker.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, backends.pushed, 1)
	variables := mergeVariables(t, backends.pushed[0])
	assert.Equal(t, "stat", variables["panel_type"])
	assert.Equal(t, "Active Users", variables["title"])
	assert.Equal(t, 1247.0, variables["value"])
}

func TestWorkerRunPanelNotFound(t *testing.T) {
	backends := newFakeBackends(t, workerQueryJSON)
	worker := backends.worker(99)

	err := worker.Run(context.Background())

	require.Error(t, err)
	require.Len(t, backends.pushed, 1)
	variables := mergeVariables(t, backends.pushed[0])
	assert.Equal(t, "error", variables["panel_type"])
	assert.Equal(t, "Configuration Error", variables["title"])
	assert.Contains(t, variables["error_message"], "panel 99 not found")
}

func TestWorkerRunDashboardFetchFails(t *testing.T) {
	backends := newFakeBackends(t, workerQueryJSON)
	backends.dashFail = true
	worker := backends.worker(4)

	err := worker.Run(context.Background())

	require.Error(t, err)
	assert.True(t, backends.searched)
	require.Len(t, backends.pushed, 1)
	variables := mergeVariables(t, backends.pushed[0])
	assert.Equal(t, "error", variables["panel_type"])
	assert.Equal(t, "Grafana Error", variables["title"])
}

func TestWorkerRunQueryError(t *testing.T) {
	backends := newFakeBackends(t, `{"results": {"A": {"error": "datasource timeout"}}}`)
	worker := backends.worker(4)

	err := worker.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "datasource timeout")
	require.Len(t, backends.pushed, 1)
	variables := mergeVariables(t, backends.pushed[0])
	assert.Equal(t, "error", variables["panel_type"])
	assert.Equal(t, "Active Users", variables["title"])
	assert.Equal(t, "datasource timeout", variables["error_message"])
}
