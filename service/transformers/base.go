package transformers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"grafana-trmnl-agent/service/grafana/models"
)

// base carries the registered panel type and the formatting helpers shared
// by every transformer.
type base struct {
	panelType string
}

func (b base) baseVariables(panel *models.Panel) map[string]any {
	return map[string]any{
		"panel_type":  b.panelType,
		"title":       panel.Title,
		"description": panel.Description,
		"timestamp":   time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		"unit":        panel.Unit(),
	}
}

// formatValue renders a value with unit suffix and decimal handling. A nil
// value renders "N/A". Floats without an explicit decimals setting render as
// integers when integral, else with two places.
func (b base) formatValue(value any, unit string, decimals *int) string {
	if value == nil {
		return "N/A"
	}

	var rendered string
	switch v := value.(type) {
	case float64:
		switch {
		case decimals != nil:
			rendered = strconv.FormatFloat(v, 'f', *decimals, 64)
		case v == math.Trunc(v):
			rendered = strconv.FormatInt(int64(v), 10)
		default:
			rendered = strconv.FormatFloat(v, 'f', 2, 64)
		}
	case int:
		rendered = strconv.Itoa(v)
	default:
		rendered = fmt.Sprint(v)
	}

	return rendered + unitSuffix(unit)
}

func unitSuffix(unit string) string {
	switch unit {
	case "":
		return ""
	case "percent", "percentunit":
		return "%"
	case "bytes", "decbytes":
		return " B"
	case "bits":
		return " b"
	case "s", "ms", "ns":
		return unit
	default:
		return " " + unit
	}
}

// colorName reduces a Grafana color (name or hex alias like "dark-red") to a
// simple name. Unknown colors default to green.
func (b base) colorName(color string) string {
	lower := strings.ToLower(color)
	switch {
	case strings.Contains(lower, "green"):
		return "green"
	case strings.Contains(lower, "yellow"), strings.Contains(lower, "orange"):
		return "yellow"
	case strings.Contains(lower, "red"):
		return "red"
	case strings.Contains(lower, "blue"):
		return "blue"
	default:
		return "green"
	}
}

// thresholdColor resolves the color for a value against the panel's
// threshold steps. Steps are assumed ascending; the last applicable step
// (baseline, or value above the step) wins.
func (b base) thresholdColor(value *float64, panel *models.Panel) string {
	if value == nil {
		return "green"
	}
	steps := panel.Thresholds()
	if len(steps) == 0 {
		return "green"
	}

	color := "green"
	for _, step := range steps {
		if step.Value == nil || *value >= *step.Value {
			color = b.colorName(step.Color)
		}
	}
	return color
}
