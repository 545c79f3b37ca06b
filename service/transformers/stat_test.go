package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grafana-trmnl-agent/service/grafana/models"
)

func statResult(values ...any) *models.QueryResult {
	times := make([]any, len(values))
	for i := range values {
		times[i] = 1700000000000.0 + float64(i)*60000
	}
	return &models.QueryResult{Frames: []models.DataFrame{{
		Name:   "A",
		Fields: []models.Field{{Name: "Time", Type: "time"}, {Name: "Value", Type: "number"}},
		Values: [][]any{times, values},
	}}}
}

func TestStatTransform(t *testing.T) {
	transformer := &StatTransformer{base{panelType: "stat"}}
	panel := thresholdPanel()

	variables := transformer.Transform(panel, statResult(85.0), Options{})

	assert.Equal(t, "stat", variables["panel_type"])
	assert.Equal(t, "CPU Usage", variables["title"])
	assert.Equal(t, "cluster wide", variables["description"])
	assert.Equal(t, "percent", variables["unit"])
	assert.Equal(t, 85.0, variables["value"])
	assert.Equal(t, "85%", variables["formatted_value"])
	assert.Equal(t, "yellow", variables["color"])
	assert.NotEmpty(t, variables["timestamp"])
}

func TestStatTransformSparkline(t *testing.T) {
	transformer := &StatTransformer{base{panelType: "stat"}}

	variables := transformer.Transform(thresholdPanel(), statResult(10.0, nil, 30.0), Options{})

	sparkline, ok := variables["sparkline"].([]map[string]any)
	require.True(t, ok)
	// The nil point is dropped.
	require.Len(t, sparkline, 2)
	assert.Equal(t, 10.0, sparkline[0]["value"])
	assert.Equal(t, 30.0, sparkline[1]["value"])
}

func TestStatTransformNoSparklineForSinglePoint(t *testing.T) {
	transformer := &StatTransformer{base{panelType: "stat"}}

	variables := transformer.Transform(thresholdPanel(), statResult(42.0), Options{})

	assert.NotContains(t, variables, "sparkline")
}

func TestStatTransformEmptyResult(t *testing.T) {
	transformer := &StatTransformer{base{panelType: "stat"}}

	variables := transformer.Transform(thresholdPanel(), &models.QueryResult{}, Options{})

	assert.Nil(t, variables["value"])
	assert.Equal(t, "N/A", variables["formatted_value"])
	assert.Equal(t, "green", variables["color"])
}

func TestStatTransformNonNumericValue(t *testing.T) {
	transformer := &StatTransformer{base{panelType: "stat"}}
	result := &models.QueryResult{Frames: []models.DataFrame{{
		Fields: []models.Field{{Name: "state"}},
		Values: [][]any{{"healthy"}},
	}}}

	variables := transformer.Transform(thresholdPanel(), result, Options{})

	assert.Equal(t, "healthy", variables["value"])
	assert.Equal(t, "green", variables["color"])
}
