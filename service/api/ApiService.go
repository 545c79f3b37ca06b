package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"grafana-trmnl-agent/service/grafana"
	"grafana-trmnl-agent/service/transformers"
)

// ApiService serves the polling strategy: TRMNL fetches merge variables
// from this endpoint instead of receiving webhook pushes. Every request is
// self-contained; nothing is cached between requests.
type ApiService struct {
	Registry *transformers.Registry
	Limiter  *RateLimiter
}

func CreateApiService() *ApiService {
	return &ApiService{
		Registry: transformers.NewRegistry(),
		Limiter:  NewRateLimiter(time.Minute),
	}
}

func (apiService *ApiService) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", apiService.HandleData)
	mux.HandleFunc("/api/data", apiService.HandleData)
	mux.HandleFunc("/health", apiService.HandleHealth)
	mux.HandleFunc("/api/test/", apiService.HandleTestData)
	return mux
}

func (apiService *ApiService) ListenAndServe(addr string) error {
	logrus.Infof("serving TRMNL polling endpoint on %s", addr)
	return http.ListenAndServe(addr, apiService.Routes())
}

// HandleData is the endpoint TRMNL polls: merge request configuration,
// fetch the panel and its data, transform, and return merge variables.
func (apiService *ApiService) HandleData(w http.ResponseWriter, r *http.Request) {
	config, errors := requestConfig(r)

	logrus.Infof("request: dashboard=%s panel=%d time=%s..%s",
		config.DashboardUID, config.PanelID, config.TimeFrom, config.TimeTo)

	if len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing or invalid configuration",
			"details": errors,
		})
		return
	}

	if !apiService.Limiter.Allow(config.GrafanaURL) {
		retryAfter := apiService.Limiter.RetryAfter(config.GrafanaURL)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "Rate limit exceeded",
			"retry_after": retryAfter,
		})
		return
	}

	ctx := r.Context()
	client := grafana.CreateGrafanaService(config.GrafanaURL, config.APIKey)

	dashboard, err := client.GetDashboard(ctx, config.DashboardUID)
	if err != nil {
		logrus.Errorf("grafana error: %v", err)
		writeJSON(w, http.StatusBadGateway, errorPayload("", err.Error()))
		return
	}
	logrus.Infof("dashboard %q has %d panels", dashboard.Title, len(dashboard.Panels))

	panel := dashboard.PanelByID(config.PanelID)
	if panel == nil {
		for _, p := range dashboard.Panels {
			logrus.Errorf("available panel: id=%d type=%s title=%q", p.ID, p.Type, p.Title)
		}
		writeJSON(w, http.StatusNotFound, errorPayload("",
			"Panel "+strconv.Itoa(config.PanelID)+" not found in dashboard"))
		return
	}

	result, err := client.QueryPanel(ctx, panel, config.TimeFrom, config.TimeTo, config.Variables)
	if err != nil {
		logrus.Errorf("grafana error: %v", err)
		writeJSON(w, http.StatusBadGateway, errorPayload(panel.Title, err.Error()))
		return
	}
	logrus.Infof("query returned %d frames for panel %q (type %s)",
		len(result.Frames), panel.Title, panel.Type)

	// Upstream query errors short-circuit before any transformer runs.
	if result.Error != "" {
		logrus.Errorf("query error: %s", result.Error)
		writeJSON(w, http.StatusInternalServerError, errorPayload(panel.Title, result.Error))
		return
	}

	transformer := apiService.Registry.Get(panel.Type)
	mergeVariables := transformer.Transform(panel, result, transformers.Options{
		LabelKey: config.Label,
		Timezone: config.Timezone,
	})

	logrus.Infof("returning data for %s panel %q", panel.Type, panel.Title)
	writeJSON(w, http.StatusOK, mergeVariables)
}

func (apiService *ApiService) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleTestData serves canned demonstration payloads per panel type so
// templates can be designed without a live Grafana.
func (apiService *ApiService) HandleTestData(w http.ResponseWriter, r *http.Request) {
	panelType := strings.ToLower(strings.TrimPrefix(r.URL.Path, "/api/test/"))
	if alias, ok := panelAliases[panelType]; ok {
		panelType = alias
	}

	payload, ok := testData[panelType]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":           "Unknown panel type: " + panelType,
			"available_types": testDataTypes(),
		})
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func errorPayload(title string, message string) map[string]any {
	payload := map[string]any{
		"panel_type":    "error",
		"error_message": message,
	}
	if title != "" {
		payload["title"] = title
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("encode response: %v", err)
	}
}
