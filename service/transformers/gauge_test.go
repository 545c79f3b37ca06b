package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grafana-trmnl-agent/service/grafana/models"
)

func gaugePanel(min, max float64) *models.Panel {
	return &models.Panel{
		Title: "Memory",
		FieldConfig: map[string]any{
			"defaults": map[string]any{
				"unit": "percent",
				"min":  min,
				"max":  max,
			},
		},
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name             string
		value, min, max  float64
		want             int
	}{
		{name: "mid range", value: 50, min: 0, max: 100, want: 50},
		{name: "clamped high", value: 150, min: 0, max: 100, want: 100},
		{name: "clamped low", value: -10, min: 0, max: 100, want: 0},
		{name: "offset range", value: 75, min: 50, max: 100, want: 50},
		{name: "degenerate range at max", value: 100, min: 100, max: 100, want: 100},
		{name: "degenerate range below max", value: 99, min: 100, max: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentage(tt.value, tt.min, tt.max))
		})
	}
}

func TestGaugeTransform(t *testing.T) {
	transformer := &GaugeTransformer{base{panelType: "gauge"}}

	variables := transformer.Transform(gaugePanel(0, 200), statResult(68.0), Options{})

	assert.Equal(t, "gauge", variables["panel_type"])
	assert.Equal(t, 68.0, variables["value"])
	assert.Equal(t, 0.0, variables["min"])
	assert.Equal(t, 200.0, variables["max"])
	assert.Equal(t, 34, variables["percentage"])
	assert.Equal(t, "68%", variables["formatted_value"])
}

func TestGaugeTransformDefaultRange(t *testing.T) {
	transformer := &GaugeTransformer{base{panelType: "gauge"}}

	variables := transformer.Transform(&models.Panel{Title: "Load"}, statResult(42.0), Options{})

	assert.Equal(t, 0.0, variables["min"])
	assert.Equal(t, 100.0, variables["max"])
	assert.Equal(t, 42, variables["percentage"])
}

func TestGaugeTransformNonNumeric(t *testing.T) {
	transformer := &GaugeTransformer{base{panelType: "gauge"}}
	result := &models.QueryResult{Frames: []models.DataFrame{{
		Fields: []models.Field{{Name: "state"}},
		Values: [][]any{{"n/a"}},
	}}}

	variables := transformer.Transform(gaugePanel(0, 100), result, Options{})

	assert.Equal(t, 0, variables["percentage"])
	assert.Equal(t, "green", variables["color"])
}

func TestBarGaugeTransform(t *testing.T) {
	transformer := &BarGaugeTransformer{base{panelType: "bargauge"}}
	result := &models.QueryResult{Frames: []models.DataFrame{
		{
			Fields: []models.Field{
				{Name: "Time", Type: "time"},
				{Name: "cpu", Type: "number"},
				{Name: "memory", Type: "number"},
			},
			Values: [][]any{{1.0, 2.0}, {40.0, 45.0}, {70.0, 72.0}},
		},
		{
			Fields: []models.Field{{Name: "io", Type: "number"}},
			Values: [][]any{{12.0}},
		},
	}}

	variables := transformer.Transform(gaugePanel(0, 100), result, Options{})

	bars, ok := variables["bars"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, bars, 3)

	// Every column contributes its last value as one bar.
	assert.Equal(t, "cpu", bars[0]["name"])
	assert.Equal(t, 45.0, bars[0]["value"])
	assert.Equal(t, 45, bars[0]["percentage"])
	assert.Equal(t, "memory", bars[1]["name"])
	assert.Equal(t, 72.0, bars[1]["value"])
	assert.Equal(t, "io", bars[2]["name"])

	// Panel-level variables mirror the first bar.
	assert.Equal(t, 45.0, variables["value"])
	assert.Equal(t, 45, variables["percentage"])
}

func TestBarGaugeTransformEmpty(t *testing.T) {
	transformer := &BarGaugeTransformer{base{panelType: "bargauge"}}

	variables := transformer.Transform(gaugePanel(0, 100), &models.QueryResult{}, Options{})

	// A non-nil empty slice encodes as [] rather than null.
	assert.Equal(t, []map[string]any{}, variables["bars"])
	assert.Nil(t, variables["value"])
	assert.Equal(t, "N/A", variables["formatted_value"])
	assert.Equal(t, 0, variables["percentage"])
	assert.Equal(t, "green", variables["color"])
}
