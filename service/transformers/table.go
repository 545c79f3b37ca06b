package transformers

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"grafana-trmnl-agent/service/grafana/models"
)

// Column names tried first when ordering label-derived table columns.
var labelColumnPriority = []string{"service_name", "name", "instance", "job", "state"}

// TableTransformer handles table panels. Two reconstruction paths exist:
// the standard transpose of one frame's column-major values, and the
// multi-frame shape Prometheus instant queries produce, where each frame is
// one labelled row.
type TableTransformer struct {
	base
}

func (t *TableTransformer) Transform(panel *models.Panel, result *models.QueryResult, opts Options) map[string]any {
	variables := t.baseVariables(panel)

	labelKey := opts.LabelKey
	if labelKey == "" {
		labelKey = "name"
	}

	columns := []string{}
	rows := [][]string{}
	switch {
	case isLabelledFrameSet(result):
		columns, rows = t.labelledRows(panel, result, labelKey)
	case len(result.Frames) > 0:
		columns, rows = t.frameRows(panel, &result.Frames[0])
	}

	variables["columns"] = columns
	variables["rows"] = rows
	variables["row_count"] = len(rows)

	return variables
}

// isLabelledFrameSet detects the Prometheus instant shape: more than one
// frame, and the first frame carries labels on a non-time field. A single
// frame with labels still takes the standard path.
func isLabelledFrameSet(result *models.QueryResult) bool {
	if len(result.Frames) < 2 {
		return false
	}
	for _, column := range result.Frames[0].ValueFields() {
		if len(column.Field.Labels) > 0 {
			return true
		}
	}
	return false
}

// frameRows transposes one frame's column-major values into rows, dropping
// excluded columns and applying renames. Row count follows the first
// column's length; missing cells render empty.
func (t *TableTransformer) frameRows(panel *models.Panel, frame *models.DataFrame) ([]string, [][]string) {
	excluded := panel.ExcludedFields()
	renames := panel.FieldRenames()

	var keep []int
	columns := []string{}
	for i, name := range frame.FieldNames() {
		if excluded[name] {
			continue
		}
		keep = append(keep, i)
		if renamed, ok := renames[name]; ok && renamed != "" {
			name = renamed
		}
		columns = append(columns, name)
	}

	rows := [][]string{}
	if len(frame.Values) == 0 {
		return columns, rows
	}
	for rowIdx := range frame.Values[0] {
		row := make([]string, 0, len(keep))
		for _, colIdx := range keep {
			if colIdx < len(frame.Values) && rowIdx < len(frame.Values[colIdx]) {
				row = append(row, formatCell(frame.Values[colIdx][rowIdx]))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return columns, rows
}

// labelledRows rebuilds a table from a Prometheus instant result: one row
// per frame, columns from the union of label keys plus a trailing Value
// column. Priority names come first, remaining keys alphabetically.
func (t *TableTransformer) labelledRows(panel *models.Panel, result *models.QueryResult, labelKey string) ([]string, [][]string) {
	excluded := panel.ExcludedFields()
	renames := panel.FieldRenames()

	keySet := make(map[string]bool)
	for i := range result.Frames {
		for _, column := range result.Frames[i].ValueFields() {
			for key := range column.Field.Labels {
				if key != "__name__" && !excluded[key] {
					keySet[key] = true
				}
			}
		}
	}

	var keys []string
	for _, name := range labelColumnPriority {
		if keySet[name] {
			keys = append(keys, name)
			delete(keySet, name)
		}
	}
	rest := lo.Keys(keySet)
	sort.Strings(rest)
	keys = append(keys, rest...)

	includeValue := !excluded["Value"]

	columns := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		if renamed, ok := renames[key]; ok && renamed != "" {
			key = renamed
		}
		columns = append(columns, key)
	}
	if includeValue {
		name := "Value"
		if renamed, ok := renames[name]; ok && renamed != "" {
			name = renamed
		}
		columns = append(columns, name)
	}

	rows := make([][]string, 0, len(result.Frames))
	for i := range result.Frames {
		valueColumns := result.Frames[i].ValueFields()

		labels := make(map[string]string)
		for _, column := range valueColumns {
			for key, v := range column.Field.Labels {
				if _, seen := labels[key]; !seen {
					labels[key] = v
				}
			}
		}

		var value any
		if len(valueColumns) > 0 && len(valueColumns[0].Values) > 0 {
			value = valueColumns[0].Values[len(valueColumns[0].Values)-1]
		}

		row := make([]string, 0, len(keys)+1)
		for _, key := range keys {
			row = append(row, labels[key])
		}
		if includeValue {
			row = append(row, formatCell(value))
		}
		rows = append(rows, row)
	}

	if idx := lo.IndexOf(keys, labelKey); idx >= 0 {
		sort.SliceStable(rows, func(a, b int) bool {
			return strings.ToLower(rows[a][idx]) < strings.ToLower(rows[b][idx])
		})
	}

	return columns, rows
}

// formatCell renders one table cell. Integral floats render without a
// fraction, booleans as Yes/No, nil as the empty string.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
