package models

import "encoding/json"

// ThresholdStep is one (value, color) breakpoint of a panel's threshold
// configuration. A nil Value marks the baseline step.
type ThresholdStep struct {
	Value *float64
	Color string
}

// Panel is the display configuration of one chart/table on a dashboard.
// Options, FieldConfig, Targets and Transformations stay loosely typed
// because their contents vary per panel type and datasource.
type Panel struct {
	ID              int              `json:"id"`
	Type            string           `json:"type"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Targets         []map[string]any `json:"targets"`
	Options         map[string]any   `json:"options"`
	FieldConfig     map[string]any   `json:"fieldConfig"`
	Datasource      map[string]any   `json:"datasource"`
	Transformations []map[string]any `json:"transformations"`
}

func (p *Panel) UnmarshalJSON(data []byte) error {
	type alias Panel
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Panel(a)
	if p.Type == "" {
		p.Type = "unknown"
	}
	if p.Title == "" {
		p.Title = "Untitled"
	}
	return nil
}

func (p *Panel) defaults() map[string]any {
	return GetMap(p.FieldConfig, "defaults")
}

// Unit returns the display unit from the field config, or "".
func (p *Panel) Unit() string {
	return GetString(p.defaults(), "unit")
}

// Decimals returns the configured number of decimal places, or nil for
// automatic formatting.
func (p *Panel) Decimals() *int {
	if n, ok := AsNumber(p.defaults()["decimals"]); ok {
		d := int(n)
		return &d
	}
	return nil
}

// Thresholds returns the configured threshold steps in their given order.
func (p *Panel) Thresholds() []ThresholdStep {
	raw := GetSlice(GetMap(p.defaults(), "thresholds"), "steps")
	steps := make([]ThresholdStep, 0, len(raw))
	for _, item := range raw {
		m := AsMap(item)
		step := ThresholdStep{Color: GetString(m, "color")}
		if v, ok := AsNumber(m["value"]); ok {
			step.Value = &v
		}
		steps = append(steps, step)
	}
	return steps
}

// MinMax returns the configured value range; either side may be nil.
func (p *Panel) MinMax() (*float64, *float64) {
	defaults := p.defaults()
	var min, max *float64
	if v, ok := AsNumber(defaults["min"]); ok {
		min = &v
	}
	if v, ok := AsNumber(defaults["max"]); ok {
		max = &v
	}
	return min, max
}

// ExcludedFields collects the field names every "organize" transformation
// marks as excluded.
func (p *Panel) ExcludedFields() map[string]bool {
	excluded := make(map[string]bool)
	for _, t := range p.Transformations {
		if GetString(t, "id") != "organize" {
			continue
		}
		for name, flag := range GetMap(GetMap(t, "options"), "excludeByName") {
			if on, _ := flag.(bool); on {
				excluded[name] = true
			}
		}
	}
	return excluded
}

// FieldRenames merges the rename maps of every "organize" transformation;
// later transformations win on collision.
func (p *Panel) FieldRenames() map[string]string {
	renames := make(map[string]string)
	for _, t := range p.Transformations {
		if GetString(t, "id") != "organize" {
			continue
		}
		for name, to := range GetMap(GetMap(t, "options"), "renameByName") {
			renames[name] = AsString(to)
		}
	}
	return renames
}

// DatasourceUID returns the panel-level datasource uid, falling back to the
// first target that carries its own.
func (p *Panel) DatasourceUID() string {
	if uid := GetString(p.Datasource, "uid"); uid != "" {
		return uid
	}
	for _, target := range p.Targets {
		if uid := GetString(GetMap(target, "datasource"), "uid"); uid != "" {
			return uid
		}
	}
	return ""
}

// Dashboard owns the panels of one Grafana dashboard.
type Dashboard struct {
	UID    string
	Title  string
	Tags   []string
	Panels []Panel
}

// UnmarshalJSON parses the dashboard object, flattening panels nested inside
// collapsed rows.
func (d *Dashboard) UnmarshalJSON(data []byte) error {
	var raw struct {
		UID    string            `json:"uid"`
		Title  string            `json:"title"`
		Tags   []string          `json:"tags"`
		Panels []json.RawMessage `json:"panels"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.UID = raw.UID
	d.Title = raw.Title
	if d.Title == "" {
		d.Title = "Untitled"
	}
	d.Tags = raw.Tags

	for _, panelData := range raw.Panels {
		var probe struct {
			Type   string            `json:"type"`
			Panels []json.RawMessage `json:"panels"`
		}
		if err := json.Unmarshal(panelData, &probe); err != nil {
			return err
		}
		if probe.Type == "row" && probe.Panels != nil {
			for _, nested := range probe.Panels {
				var panel Panel
				if err := json.Unmarshal(nested, &panel); err != nil {
					return err
				}
				d.Panels = append(d.Panels, panel)
			}
			continue
		}
		var panel Panel
		if err := json.Unmarshal(panelData, &panel); err != nil {
			return err
		}
		d.Panels = append(d.Panels, panel)
	}
	return nil
}

// PanelByID finds a panel by id, or nil.
func (d *Dashboard) PanelByID(id int) *Panel {
	for i := range d.Panels {
		if d.Panels[i].ID == id {
			return &d.Panels[i]
		}
	}
	return nil
}
