package api

import (
	"sort"

	"github.com/samber/lo"
)

// Canned demonstration payloads, one per panel family, matching the shape
// the transformers produce.
var testData = map[string]map[string]any{
	"stat": {
		"panel_type":      "stat",
		"title":           "Active Users",
		"description":     "Currently online",
		"timestamp":       "2025-11-30 12:00 UTC",
		"value":           1247,
		"formatted_value": "1247",
		"color":           "green",
	},
	"gauge": {
		"panel_type":      "gauge",
		"title":           "Memory Usage",
		"timestamp":       "2025-11-30 12:00 UTC",
		"value":           68,
		"formatted_value": "68%",
		"percentage":      68,
		"min":             0,
		"max":             100,
		"color":           "yellow",
	},
	"bargauge": {
		"panel_type": "bargauge",
		"title":      "System Pressure",
		"timestamp":  "2025-12-01 12:00 UTC",
		"bars": []map[string]any{
			{"name": "cpu", "value": 45.2, "formatted_value": "45.2%", "percentage": 45, "color": "green"},
			{"name": "memory", "value": 72.8, "formatted_value": "72.8%", "percentage": 73, "color": "yellow"},
			{"name": "io", "value": 12.5, "formatted_value": "12.5%", "percentage": 13, "color": "green"},
		},
	},
	"polystat": {
		"panel_type": "polystat",
		"title":      "Service Health",
		"timestamp":  "2025-11-30 12:00 UTC",
		"stats": []map[string]any{
			{"name": "API Gateway", "value": 99.9, "formatted_value": "99.9%", "status": "ok"},
			{"name": "Auth Service", "value": 100, "formatted_value": "100%", "status": "ok"},
			{"name": "Cache", "value": 85.2, "formatted_value": "85.2%", "status": "warning"},
			{"name": "Storage", "value": 45.0, "formatted_value": "45%", "status": "critical"},
		},
	},
	"table": {
		"panel_type": "table",
		"title":      "Server Status",
		"timestamp":  "2025-11-30 12:00 UTC",
		"columns":    []string{"Host", "CPU", "Memory", "Status"},
		"rows": [][]string{
			{"web-server-01", "42%", "60%", "OK"},
			{"web-server-02", "35%", "45%", "OK"},
			{"db-primary", "78%", "82%", "Warning"},
			{"cache-01", "15%", "90%", "Critical"},
		},
		"row_count": 4,
	},
	"timeseries": {
		"panel_type": "timeseries",
		"title":      "CPU Usage",
		"timestamp":  "2025-11-30 12:00 UTC",
		"series": []map[string]any{
			{"name": "cpu", "current": 42, "formatted_current": "42%", "min": 25, "max": 52, "avg": 40.29, "point_count": 7},
		},
		"chart_data": []map[string]any{
			{"time": "11:00", "value": 25, "label": "cpu"},
			{"time": "11:20", "value": 45, "label": "cpu"},
			{"time": "11:40", "value": 52, "label": "cpu"},
			{"time": "12:00", "value": 42, "label": "cpu"},
		},
		"current_value":   42,
		"formatted_value": "42%",
		"min_value":       25,
		"max_value":       52,
		"avg_value":       40.29,
	},
}

var panelAliases = map[string]string{
	"graph":                  "timeseries",
	"barchart":               "timeseries",
	"grafana-polystat-panel": "polystat",
	"table-old":              "table",
}

func testDataTypes() []string {
	types := lo.Keys(testData)
	sort.Strings(types)
	return types
}
