package transformers

import (
	"grafana-trmnl-agent/service/grafana/models"
)

// StatTransformer handles single-value panels. It is also the fallback for
// unknown panel types.
type StatTransformer struct {
	base
}

// Transform produces value, formatted_value, color, and a sparkline when the
// frame carries more than one point.
func (t *StatTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)

	value := result.SingleValue()
	variables["value"] = value
	variables["formatted_value"] = t.formatValue(value, panel.Unit(), panel.Decimals())

	if num, ok := models.AsNumber(value); ok {
		variables["color"] = t.thresholdColor(&num, panel)
	} else {
		variables["color"] = "green"
	}

	if sparkline := t.sparkline(result); len(sparkline) > 0 {
		variables["sparkline"] = sparkline
	}

	return variables
}

// sparkline pairs the first frame's first value column with its time column.
// Entries with a nil value are dropped; a single point is not worth drawing.
func (t *StatTransformer) sparkline(result *models.QueryResult) []map[string]any {
	if len(result.Frames) == 0 {
		return nil
	}

	frame := &result.Frames[0]
	times := frame.TimeValues()
	columns := frame.ValueFields()
	if len(columns) == 0 || len(times) == 0 {
		return nil
	}

	values := columns[0].Values
	if len(values) <= 1 {
		return nil
	}

	points := make([]map[string]any, 0, len(values))
	for i, v := range values {
		if i >= len(times) {
			break
		}
		if v == nil {
			continue
		}
		points = append(points, map[string]any{"time": times[i], "value": v})
	}
	return points
}
