package models

// DataField binds one field from the data model to a role in a visual.
type DataField struct {
	DataRole  string `json:"dataRole"`
	Table     string `json:"table"`
	Column    string `json:"column"`
	IsMeasure bool   `json:"isMeasure"`
}

// VisualProperties are the display toggles of a visual.
type VisualProperties struct {
	ShowLegend bool `json:"showLegend"`
	ShowXAxis  bool `json:"showXAxis"`
	ShowYAxis  bool `json:"showYAxis"`
}

// VisualConfig is the complete configuration for creating a Power BI visual.
// Instances handed to callers have always passed schema validation; a
// generated configuration that fails validation is rejected outright, never
// partially accepted.
type VisualConfig struct {
	VisualType string           `json:"visualType"`
	Title      string           `json:"title"`
	DataFields []DataField      `json:"dataFields"`
	Properties VisualProperties `json:"properties"`
}

// VisualCreateRequest asks the visual translator for a configuration.
type VisualCreateRequest struct {
	Message string `json:"message"`
}

// VisualConfigResponse wraps a validated configuration for the client.
type VisualConfigResponse struct {
	Config  VisualConfig `json:"config"`
	Message string       `json:"message"`
}
