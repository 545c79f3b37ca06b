package transformers

import (
	"fmt"
	"strings"

	"grafana-trmnl-agent/service/grafana/models"
)

// PolystatTransformer handles multi-stat ("polystat") panels: one named
// value plus an ok/warning/critical status per frame.
type PolystatTransformer struct {
	base
}

func (t *PolystatTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)
	variables["panel_type"] = "polystat"

	labelKey := opts.LabelKey
	if labelKey == "" {
		labelKey = "name"
	}

	stats := make([]map[string]any, 0, len(result.Frames))
	for i := range result.Frames {
		frame := &result.Frames[i]

		var value any
		if columns := frame.ValueFields(); len(columns) > 0 && len(columns[0].Values) > 0 {
			value = columns[0].Values[len(columns[0].Values)-1]
		}

		stats = append(stats, map[string]any{
			"name":            frame.DisplayName(labelKey),
			"value":           value,
			"formatted_value": t.formatValue(value, panel.Unit(), panel.Decimals()),
			"status":          t.status(value, panel),
		})
	}

	variables["stats"] = stats
	return variables
}

// status resolves ok/warning/critical for a value. Non-numeric values are
// classified by substring; numeric values go through the panel's polystat
// threshold states when configured, else standard thresholds, else the
// service-health convention that exactly 0 means down.
func (t *PolystatTransformer) status(value any, panel *models.Panel) string {
	if value == nil {
		return "ok"
	}

	num, ok := models.AsNumber(value)
	if !ok {
		return textStatus(fmt.Sprint(value))
	}

	if entries := models.GetSlice(panel.Options, "globalThresholdsConfig"); len(entries) > 0 {
		return globalThresholdStatus(num, entries)
	}

	steps := panel.Thresholds()
	if len(steps) == 0 {
		if num == 0 {
			return "critical"
		}
		return "ok"
	}

	color := "green"
	for _, step := range steps {
		if step.Value == nil || num >= *step.Value {
			color = step.Color
			if color == "" {
				color = "green"
			}
		}
	}

	lower := strings.ToLower(color)
	switch {
	case strings.Contains(lower, "red"):
		return "critical"
	case strings.Contains(lower, "yellow"), strings.Contains(lower, "orange"):
		return "warning"
	default:
		return "ok"
	}
}

func textStatus(value string) string {
	lower := strings.ToLower(value)
	for _, marker := range []string{"error", "down", "fail", "critical"} {
		if strings.Contains(lower, marker) {
			return "critical"
		}
	}
	for _, marker := range []string{"warn", "degraded"} {
		if strings.Contains(lower, marker) {
			return "warning"
		}
	}
	return "ok"
}

// globalThresholdStatus matches the value exactly against the polystat
// panel's own threshold table; state 2 is critical, 1 warning.
func globalThresholdStatus(value float64, entries []any) string {
	for _, entry := range entries {
		m := models.AsMap(entry)
		threshold, ok := models.AsNumber(m["value"])
		if !ok || threshold != value {
			continue
		}
		state, _ := models.AsNumber(m["state"])
		switch state {
		case 2:
			return "critical"
		case 1:
			return "warning"
		default:
			return "ok"
		}
	}
	return "ok"
}
