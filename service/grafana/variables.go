package grafana

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Grafana built-in variables with fixed defaults. These are computed by the
// Grafana frontend and are not available through the HTTP API, so queries
// that reference them get sensible substitutes.
var builtinVariables = map[string]any{
	"__rate_interval": "5m",
	"__interval":      "1m",
	"__interval_ms":   "60000",
	"__range":         "1h",
	"__range_s":       "3600",
	"__range_ms":      "3600000",
}

// SubstituteVariables replaces every ${name} and bare $name occurrence in
// the string leaves of a decoded JSON structure. User variables shadow the
// built-ins on name collision. Names are substituted longest first so a name
// that is a prefix of another ($__interval vs $__interval_ms) cannot clobber
// the longer one. The input is never mutated: maps and slices are rewritten
// into fresh copies.
func SubstituteVariables(obj any, variables map[string]any) any {
	merged := make(map[string]any, len(builtinVariables)+len(variables))
	for name, value := range builtinVariables {
		merged[name] = value
	}
	for name, value := range variables {
		merged[name] = value
	}

	names := lo.Keys(merged)
	sort.Slice(names, func(a, b int) bool {
		if len(names[a]) != len(names[b]) {
			return len(names[a]) > len(names[b])
		}
		return names[a] < names[b]
	})

	return substitute(obj, names, merged)
}

func substitute(obj any, names []string, variables map[string]any) any {
	switch v := obj.(type) {
	case string:
		for _, name := range names {
			str := fmt.Sprint(variables[name])
			v = strings.ReplaceAll(v, "${"+name+"}", str)
			v = strings.ReplaceAll(v, "$"+name, str)
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = substitute(item, names, variables)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substitute(item, names, variables)
		}
		return out
	default:
		return obj
	}
}
