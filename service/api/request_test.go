package api

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestConfigFromBody(t *testing.T) {
	body := `{
		"grafana_url": "http://grafana:3000/",
		"api_key": "token",
		"dashboard_uid": "abc123",
		"panel_id": 4,
		"time_from": "now-6h",
		"variables": {"env": "prod"}
	}`
	r := httptest.NewRequest("POST", "/api/data", strings.NewReader(body))

	config, errs := requestConfig(r)

	require.Empty(t, errs)
	assert.Equal(t, "http://grafana:3000", config.GrafanaURL)
	assert.Equal(t, "token", config.APIKey)
	assert.Equal(t, "abc123", config.DashboardUID)
	assert.Equal(t, 4, config.PanelID)
	assert.Equal(t, "now-6h", config.TimeFrom)
	assert.Equal(t, "now", config.TimeTo)
	assert.Equal(t, "name", config.Label)
	assert.Equal(t, "UTC", config.Timezone)
	assert.Equal(t, map[string]any{"env": "prod"}, config.Variables)
}

func TestRequestConfigBodyWinsOverEnv(t *testing.T) {
	t.Setenv("GRAFANA_URL", "http://env:3000")
	t.Setenv("GRAFANA_API_KEY", "env-token")
	t.Setenv("DASHBOARD_UID", "env-uid")
	t.Setenv("PANEL_ID", "9")

	body := `{"grafana_url": "http://body:3000", "panel_id": "2"}`
	r := httptest.NewRequest("POST", "/api/data", strings.NewReader(body))

	config, errs := requestConfig(r)

	require.Empty(t, errs)
	assert.Equal(t, "http://body:3000", config.GrafanaURL)
	assert.Equal(t, "env-token", config.APIKey)
	assert.Equal(t, "env-uid", config.DashboardUID)
	assert.Equal(t, 2, config.PanelID)
}

func TestRequestConfigEnvOnly(t *testing.T) {
	t.Setenv("GRAFANA_URL", "http://env:3000")
	t.Setenv("GRAFANA_API_KEY", "env-token")
	t.Setenv("DASHBOARD_UID", "env-uid")
	t.Setenv("PANEL_ID", "3")

	r := httptest.NewRequest("GET", "/api/data", nil)

	config, errs := requestConfig(r)

	require.Empty(t, errs)
	assert.Equal(t, 3, config.PanelID)
}

func TestRequestConfigCollectsAllErrors(t *testing.T) {
	t.Setenv("GRAFANA_URL", "")
	t.Setenv("GRAFANA_API_KEY", "")
	t.Setenv("DASHBOARD_UID", "")
	t.Setenv("PANEL_ID", "")

	r := httptest.NewRequest("POST", "/api/data", strings.NewReader(`{}`))

	_, errs := requestConfig(r)

	assert.ElementsMatch(t, []string{
		"grafana_url is required",
		"api_key is required",
		"dashboard_uid is required",
		"panel_id is required",
	}, errs)
}

func TestRequestConfigInvalidPanelID(t *testing.T) {
	t.Setenv("GRAFANA_URL", "http://env:3000")
	t.Setenv("GRAFANA_API_KEY", "token")
	t.Setenv("DASHBOARD_UID", "uid")

	r := httptest.NewRequest("POST", "/api/data", strings.NewReader(`{"panel_id": "four"}`))

	_, errs := requestConfig(r)

	assert.Equal(t, []string{"panel_id must be an integer"}, errs)
}

func TestParseVariables(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want map[string]any
	}{
		{"object", map[string]any{"a": "b"}, map[string]any{"a": "b"}},
		{"json string", `{"env": "prod"}`, map[string]any{"env": "prod"}},
		{"invalid string", "not json", map[string]any{}},
		{"nil", nil, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVariables(tt.raw))
		})
	}
}
