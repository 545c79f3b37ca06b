package transformers

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"grafana-trmnl-agent/service/grafana/models"
)

// TimeSeriesTransformer handles timeseries panels and their graph/barchart
// aliases: per-series statistics plus flattened chart points.
type TimeSeriesTransformer struct {
	base
}

func (t *TimeSeriesTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)

	labelKey := opts.LabelKey
	if labelKey == "" {
		labelKey = "name"
	}

	series := []map[string]any{}
	chartData := []map[string]any{}

	for i := range result.Frames {
		frame := &result.Frames[i]
		times := frame.TimeValues()
		for _, column := range frame.ValueFields() {
			name := seriesName(column, labelKey)
			metadata, points := t.processSeries(name, times, column.Values, panel)
			series = append(series, metadata)
			chartData = append(chartData, points...)
		}
	}

	variables["series"] = series
	variables["chart_data"] = chartData

	// Panel-level variables mirror the first series encountered.
	if len(series) > 0 {
		first := series[0]
		variables["current_value"] = first["current"]
		variables["formatted_value"] = first["formatted_current"]
		variables["min_value"] = first["min"]
		variables["max_value"] = first["max"]
		variables["avg_value"] = first["avg"]
	}

	return variables
}

func seriesName(column models.ValueColumn, labelKey string) string {
	if name, ok := column.Field.Labels[labelKey]; ok && name != "" {
		return name
	}
	if column.Field.Name != "" {
		return column.Field.Name
	}
	return "Value"
}

// processSeries computes statistics over the numeric values of one column
// and emits its chart points. Nil values are dropped from the points;
// non-numeric values are excluded from the statistics only.
func (t *TimeSeriesTransformer) processSeries(name string, times []any, values []any, panel *models.Panel) (map[string]any, []map[string]any) {
	numeric := lo.FilterMap(values, func(v any, _ int) (float64, bool) {
		return models.AsNumber(v)
	})

	var current, min, max, avg any
	if len(numeric) > 0 {
		current = numeric[len(numeric)-1]
		min = lo.Min(numeric)
		max = lo.Max(numeric)
		avg = math.Round(lo.Sum(numeric)/float64(len(numeric))*100) / 100
	}

	points := make([]map[string]any, 0, len(values))
	for i, v := range values {
		if i >= len(times) {
			break
		}
		if v == nil {
			continue
		}
		points = append(points, map[string]any{
			"time":  formatTimestamp(times[i]),
			"value": v,
			"label": name,
		})
	}

	metadata := map[string]any{
		"name":              name,
		"current":           current,
		"formatted_current": t.formatValue(current, panel.Unit(), panel.Decimals()),
		"min":               min,
		"max":               max,
		"avg":               avg,
		"point_count":       len(points),
	}
	return metadata, points
}

// formatTimestamp renders a timestamp as "HH:MM" UTC. Values above 1e12 are
// taken as milliseconds, smaller numbers as seconds; non-numeric timestamps
// pass through as their string form.
func formatTimestamp(ts any) string {
	if ts == nil {
		return ""
	}
	num, ok := models.AsNumber(ts)
	if !ok {
		return fmt.Sprint(ts)
	}
	if num > 1_000_000_000_000 {
		num = num / 1000
	}
	return time.Unix(int64(num), 0).UTC().Format("15:04")
}
