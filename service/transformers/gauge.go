package transformers

import (
	"math"

	"grafana-trmnl-agent/service/grafana/models"
)

// GaugeTransformer handles gauge panels: one value positioned on a
// configured min/max range.
type GaugeTransformer struct {
	base
}

func (t *GaugeTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)

	value := result.SingleValue()
	variables["value"] = value

	min, max := gaugeRange(panel)
	variables["min"] = min
	variables["max"] = max
	variables["formatted_value"] = t.formatValue(value, panel.Unit(), panel.Decimals())

	if num, ok := models.AsNumber(value); ok {
		variables["percentage"] = percentage(num, min, max)
		variables["color"] = t.thresholdColor(&num, panel)
	} else {
		variables["percentage"] = 0
		variables["color"] = "green"
	}

	return variables
}

// gaugeRange reads the configured min/max, defaulting to 0..100.
func gaugeRange(panel *models.Panel) (float64, float64) {
	min, max := 0.0, 100.0
	configMin, configMax := panel.MinMax()
	if configMin != nil {
		min = *configMin
	}
	if configMax != nil {
		max = *configMax
	}
	return min, max
}

// percentage positions value within [min, max], clamped to 0..100. A
// degenerate range resolves to 100 at or above max, 0 below.
func percentage(value, min, max float64) int {
	if max == min {
		if value >= max {
			return 100
		}
		return 0
	}
	pct := (value - min) / (max - min) * 100
	return int(math.Max(0, math.Min(100, math.Round(pct))))
}

// BarGaugeTransformer specializes the gauge for multi-bar display: every
// non-time column of every frame becomes one bar.
type BarGaugeTransformer struct {
	base
}

func (t *BarGaugeTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)

	min, max := gaugeRange(panel)
	variables["min"] = min
	variables["max"] = max

	unit := panel.Unit()
	decimals := panel.Decimals()

	bars := []map[string]any{}
	for i := range result.Frames {
		for _, column := range result.Frames[i].ValueFields() {
			if len(column.Values) == 0 {
				continue
			}
			last := column.Values[len(column.Values)-1]
			num, ok := models.AsNumber(last)
			if !ok {
				continue
			}
			bars = append(bars, map[string]any{
				"name":            column.Name,
				"value":           last,
				"formatted_value": t.formatValue(last, unit, decimals),
				"percentage":      percentage(num, min, max),
				"color":           t.thresholdColor(&num, panel),
			})
		}
	}

	variables["bars"] = bars

	// Panel-level variables mirror the first bar.
	if len(bars) > 0 {
		variables["value"] = bars[0]["value"]
		variables["formatted_value"] = bars[0]["formatted_value"]
		variables["percentage"] = bars[0]["percentage"]
		variables["color"] = bars[0]["color"]
	} else {
		variables["value"] = nil
		variables["formatted_value"] = "N/A"
		variables["percentage"] = 0
		variables["color"] = "green"
	}

	return variables
}
