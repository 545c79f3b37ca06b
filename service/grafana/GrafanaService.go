package grafana

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"

	"grafana-trmnl-agent/service/grafana/models"
)

const DASHBOARD_API = "/api/dashboards/uid/"
const SEARCH_API = "/api/search"
const QUERY_API = "/api/ds/query"

type GrafanaService struct {
	Url      string
	ApiToken string
}

func CreateGrafanaService(url string, apiToken string) *GrafanaService {
	return &GrafanaService{
		Url:      strings.TrimRight(url, "/"),
		ApiToken: "Bearer " + apiToken,
	}
}

// GetDashboard fetches a dashboard by uid.
func (grafanaService *GrafanaService) GetDashboard(ctx context.Context, uid string) (*models.Dashboard, error) {
	var response struct {
		Dashboard models.Dashboard `json:"dashboard"`
	}

	err := requests.
		URL(grafanaService.Url+DASHBOARD_API+uid).
		Header("Accept", "application/json").
		Header("Authorization", grafanaService.ApiToken).
		ToJSON(&response).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dashboard %s: %w", uid, err)
	}

	return &response.Dashboard, nil
}

// GetPanel fetches a dashboard and extracts one panel from it.
func (grafanaService *GrafanaService) GetPanel(ctx context.Context, dashboardUID string, panelID int) (*models.Panel, error) {
	dashboard, err := grafanaService.GetDashboard(ctx, dashboardUID)
	if err != nil {
		return nil, err
	}

	panel := dashboard.PanelByID(panelID)
	if panel == nil {
		return nil, fmt.Errorf("panel %d not found in dashboard %s", panelID, dashboardUID)
	}
	return panel, nil
}

// SearchParams select dashboards on the /api/search endpoint.
type SearchParams struct {
	Query string   `url:"query,omitempty"`
	Tags  []string `url:"tag,omitempty"`
	Type  string   `url:"type,omitempty"`
	Limit int      `url:"limit,omitempty"`
}

// SearchHit is one entry of a search result.
type SearchHit struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// SearchDashboards lists dashboards matching the given parameters. Used to
// report what is actually available when a configured uid turns up nothing.
func (grafanaService *GrafanaService) SearchDashboards(ctx context.Context, params SearchParams) ([]SearchHit, error) {
	form, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}

	var hits []SearchHit
	err = requests.
		URL(grafanaService.Url+SEARCH_API).
		Params(form).
		Header("Accept", "application/json").
		Header("Authorization", grafanaService.ApiToken).
		ToJSON(&hits).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("search dashboards: %w", err)
	}
	return hits, nil
}

// QueryDatasource executes raw query targets against /api/ds/query.
func (grafanaService *GrafanaService) QueryDatasource(ctx context.Context, queries []map[string]any, timeFrom string, timeTo string) (*models.QueryResult, error) {
	if len(queries) == 0 {
		return &models.QueryResult{}, nil
	}

	payload := map[string]any{
		"from":    timeFrom,
		"to":      timeTo,
		"queries": queries,
	}

	var result models.QueryResult
	err := requests.
		URL(grafanaService.Url+QUERY_API).
		Method("POST").
		Header("Content-Type", "application/json").
		Header("Accept", "application/json").
		Header("Authorization", grafanaService.ApiToken).
		BodyJSON(&payload).
		ToJSON(&result).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("query datasource: %w", err)
	}

	return &result, nil
}

// QueryPanel executes a panel's targets. Each target is copied, inherits the
// panel datasource when it has none of its own, and gets template variables
// substituted before it goes out. The panel's stored targets are never
// mutated.
func (grafanaService *GrafanaService) QueryPanel(ctx context.Context, panel *models.Panel, timeFrom string, timeTo string, variables map[string]any) (*models.QueryResult, error) {
	queries := make([]map[string]any, 0, len(panel.Targets))
	for _, target := range panel.Targets {
		q := make(map[string]any, len(target)+1)
		for key, value := range target {
			q[key] = value
		}
		if q["datasource"] == nil && panel.Datasource != nil {
			q["datasource"] = panel.Datasource
		}
		q = models.AsMap(SubstituteVariables(q, variables))
		logrus.Debugf("query after substitution: refId=%v datasource=%v", q["refId"], q["datasource"])
		queries = append(queries, q)
	}

	return grafanaService.QueryDatasource(ctx, queries, timeFrom, timeTo)
}
