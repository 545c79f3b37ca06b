package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Field describes one column of a DataFrame. Labels carry the Prometheus
// label set when the datasource reports one.
type Field struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Labels map[string]string `json:"labels,omitempty"`
}

// DataFrame is one named table/series returned by a query. Values are
// column-major: Values[i] holds every value of Fields[i] across all rows, in
// row order. len(Values) == len(Fields) is expected but not guaranteed, so
// accessors bounds-check.
type DataFrame struct {
	Name   string
	Fields []Field
	Values [][]any
}

// Field names Grafana commonly uses for the time column when the field type
// is not set.
var timeFieldNames = []string{"Time", "time", "timestamp", "Timestamp"}

// bareRefIDs are query ref ids that leak into frame names; they are not
// useful display names.
var bareRefIDs = map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}

// UnmarshalJSON accepts both frame shapes Grafana produces: the nested one
// (schema.fields / data.values / schema.name, typical for timeseries) and
// the flat one with fields/values/name at the root (typical for tables).
// Each part resolves independently so mixed payloads still parse.
func (f *DataFrame) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string  `json:"name"`
		Fields []Field `json:"fields"`
		Values [][]any `json:"values"`
		Schema struct {
			Name   string  `json:"name"`
			Fields []Field `json:"fields"`
		} `json:"schema"`
		Data struct {
			Values [][]any `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Schema.Name
	if f.Name == "" {
		f.Name = raw.Name
	}
	f.Fields = raw.Schema.Fields
	if len(f.Fields) == 0 {
		f.Fields = raw.Fields
	}
	f.Values = raw.Data.Values
	if len(f.Values) == 0 {
		f.Values = raw.Values
	}
	return nil
}

// FieldNames returns the name of every field, substituting a positional
// placeholder for unnamed ones.
func (f *DataFrame) FieldNames() []string {
	names := make([]string, len(f.Fields))
	for i, fd := range f.Fields {
		if fd.Name != "" {
			names[i] = fd.Name
		} else {
			names[i] = fmt.Sprintf("field_%d", i)
		}
	}
	return names
}

// ValuesByFieldName returns the column for the first field with the given
// name, or nil when no such field (or its column) exists.
func (f *DataFrame) ValuesByFieldName(name string) []any {
	for i, fd := range f.Fields {
		if fd.Name == name && i < len(f.Values) {
			return f.Values[i]
		}
	}
	return nil
}

// TimeValues returns the time column. Detection order: field type "time",
// then the common time field names, then a first-column heuristic for
// payloads that carry raw epoch values without any field metadata.
func (f *DataFrame) TimeValues() []any {
	for i, fd := range f.Fields {
		if fd.Type == "time" && i < len(f.Values) {
			return f.Values[i]
		}
	}
	for _, name := range timeFieldNames {
		if values := f.ValuesByFieldName(name); values != nil {
			return values
		}
	}
	if len(f.Values) > 0 && len(f.Values[0]) > 0 {
		if first, ok := AsNumber(f.Values[0][0]); ok && first > 1_000_000_000 {
			return f.Values[0]
		}
	}
	return nil
}

// ValueColumn pairs a non-time field with its column of values. Name is the
// field name or a positional placeholder when the field is unnamed.
type ValueColumn struct {
	Name   string
	Field  Field
	Values []any
}

// ValueFields returns every non-time column in field order. Fields typed
// "time" or carrying one of the common time names are skipped.
func (f *DataFrame) ValueFields() []ValueColumn {
	var result []ValueColumn
	for i, fd := range f.Fields {
		if fd.Type == "time" {
			continue
		}
		name := fd.Name
		if name == "" {
			name = fmt.Sprintf("field_%d", i)
		}
		if lo.Contains(timeFieldNames, name) || i >= len(f.Values) {
			continue
		}
		result = append(result, ValueColumn{Name: name, Field: fd, Values: f.Values[i]})
	}
	return result
}

// DisplayName resolves a human-readable name for the frame: the labelKey
// label of any non-time field, else the frame's own name unless it is just a
// ref id, else "Unknown".
func (f *DataFrame) DisplayName(labelKey string) string {
	for _, fd := range f.Fields {
		if fd.Type == "time" || lo.Contains(timeFieldNames, fd.Name) {
			continue
		}
		if v, ok := fd.Labels[labelKey]; ok {
			return v
		}
	}
	if f.Name != "" && !bareRefIDs[f.Name] {
		return f.Name
	}
	return "Unknown"
}

// QueryResult aggregates the frames of one /api/ds/query execution.
type QueryResult struct {
	Frames []DataFrame
	Error  string
}

// UnmarshalJSON walks the per-ref-id results in document order, preserving
// the order the backend produced them. Queries that report an error
// contribute the error (last one wins) and no frames; frames without a name
// take their ref id.
func (q *QueryResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return nil
	}

	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		if key != "results" {
			if err := skipValue(dec); err != nil {
				return err
			}
			continue
		}
		if err := q.decodeResults(dec); err != nil {
			return err
		}
	}
	return nil
}

func (q *QueryResult) decodeResults(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return nil
	}

	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		refID, _ := key.(string)

		var result struct {
			Error  string      `json:"error"`
			Frames []DataFrame `json:"frames"`
		}
		if err := dec.Decode(&result); err != nil {
			return err
		}

		if result.Error != "" {
			q.Error = result.Error
			continue
		}
		for _, frame := range result.Frames {
			if frame.Name == "" {
				frame.Name = refID
			}
			q.Frames = append(q.Frames, frame)
		}
	}

	_, err = dec.Token()
	return err
}

// skipValue consumes one JSON value, delimiters included.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'), json.Delim('['):
		for dec.More() {
			if err := skipValue(dec); err != nil {
				return err
			}
		}
		_, err := dec.Token()
		return err
	}
	return nil
}

// SingleValue extracts the representative value for single-stat displays:
// the last element of the first frame's first non-time column, or nil.
func (q *QueryResult) SingleValue() any {
	if len(q.Frames) == 0 {
		return nil
	}
	columns := q.Frames[0].ValueFields()
	if len(columns) == 0 || len(columns[0].Values) == 0 {
		return nil
	}
	return columns[0].Values[len(columns[0].Values)-1]
}
