package transformers

import (
	"sort"

	"github.com/samber/lo"

	"grafana-trmnl-agent/service/grafana/models"
)

// Options tune a transformation per request.
type Options struct {
	// LabelKey selects the Prometheus label used for display names
	// (default "name").
	LabelKey string
	// Timezone is accepted for payload compatibility; rendering is always
	// UTC.
	Timezone string
}

// Transformer converts one panel's query result into the flat merge-variable
// map consumed by TRMNL templates. Transformers are stateless and never
// fail: malformed input degrades to documented defaults.
type Transformer interface {
	Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any
}

// Registry maps panel type strings to transformers. It is built once by the
// composition root; unknown types fall back to the stat transformer.
type Registry struct {
	transformers map[string]Transformer
	fallback     Transformer
}

func NewRegistry() *Registry {
	stat := &StatTransformer{base{panelType: "stat"}}
	polystat := &PolystatTransformer{base{panelType: "polystat"}}

	return &Registry{
		transformers: map[string]Transformer{
			"stat":                   stat,
			"gauge":                  &GaugeTransformer{base{panelType: "gauge"}},
			"bargauge":               &BarGaugeTransformer{base{panelType: "bargauge"}},
			"polystat":               polystat,
			"grafana-polystat-panel": polystat,
			"table":                  &TableTransformer{base{panelType: "table"}},
			"table-old":              &TableTransformer{base{panelType: "table-old"}},
			"timeseries":             &TimeSeriesTransformer{base{panelType: "timeseries"}},
			"graph":                  &TimeSeriesTransformer{base{panelType: "graph"}},
			"barchart":               &TimeSeriesTransformer{base{panelType: "barchart"}},
		},
		fallback: stat,
	}
}

// Get returns the transformer for a panel type, or the stat fallback for
// unknown types.
func (r *Registry) Get(panelType string) Transformer {
	if t, ok := r.transformers[panelType]; ok {
		return t
	}
	return r.fallback
}

// SupportedTypes lists the registered panel types, sorted.
func (r *Registry) SupportedTypes() []string {
	types := lo.Keys(r.transformers)
	sort.Strings(types)
	return types
}
