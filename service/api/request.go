package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"grafana-trmnl-agent/service/grafana/models"
)

// RequestConfig is the per-request configuration of the polling endpoint,
// merged from the POST body with environment variable fallbacks.
type RequestConfig struct {
	GrafanaURL   string
	APIKey       string
	DashboardUID string
	PanelID      int
	TimeFrom     string
	TimeTo       string
	Label        string
	Timezone     string
	Variables    map[string]any
}

// requestConfig extracts the configuration from a request. Body fields win
// over environment variables. Returns the config plus the list of
// validation errors; an empty list means the config is usable.
func requestConfig(r *http.Request) (*RequestConfig, []string) {
	body := map[string]any{}
	if r.Method == http.MethodPost && r.Body != nil {
		// A malformed body degrades to env-only configuration.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	pick := func(bodyKey, envKey, fallback string) string {
		if v := models.GetString(body, bodyKey); v != "" {
			return v
		}
		if v := os.Getenv(envKey); v != "" {
			return v
		}
		return fallback
	}

	config := &RequestConfig{
		GrafanaURL:   strings.TrimRight(pick("grafana_url", "GRAFANA_URL", ""), "/"),
		APIKey:       pick("api_key", "GRAFANA_API_KEY", ""),
		DashboardUID: pick("dashboard_uid", "DASHBOARD_UID", ""),
		TimeFrom:     pick("time_from", "TIME_FROM", "now-1h"),
		TimeTo:       pick("time_to", "TIME_TO", "now"),
		Label:        pick("label", "LABEL", "name"),
		Timezone:     pick("timezone", "TIMEZONE", "UTC"),
		Variables:    parseVariables(body["variables"]),
	}

	var errors []string
	if config.GrafanaURL == "" {
		errors = append(errors, "grafana_url is required")
	}
	if config.APIKey == "" {
		errors = append(errors, "api_key is required")
	}
	if config.DashboardUID == "" {
		errors = append(errors, "dashboard_uid is required")
	}

	panelID, err := parsePanelID(body["panel_id"])
	if err != "" {
		errors = append(errors, err)
	} else {
		config.PanelID = panelID
	}

	return config, errors
}

// parseVariables accepts the variables either as a JSON object or as a JSON
// string (templated form fields arrive stringified).
func parseVariables(raw any) map[string]any {
	if m := models.AsMap(raw); m != nil {
		return m
	}
	if s := models.AsString(raw); s != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
	}
	return map[string]any{}
}

// parsePanelID accepts the body's panel_id as a number or numeric string,
// falling back to the PANEL_ID environment variable.
func parsePanelID(raw any) (int, string) {
	if n, ok := models.AsNumber(raw); ok {
		return int(n), ""
	}

	str := models.AsString(raw)
	if str == "" {
		str = os.Getenv("PANEL_ID")
	}
	if str == "" {
		return 0, "panel_id is required"
	}

	id, err := strconv.Atoi(str)
	if err != nil {
		return 0, "panel_id must be an integer"
	}
	return id, ""
}
