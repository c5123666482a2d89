package models

// EmbedConfig is what the embedding widget needs to render a report.
type EmbedConfig struct {
	EmbedURL    string `json:"embedUrl"`
	AccessToken string `json:"accessToken"`
	EmbedType   string `json:"embedType"`
	VisualID    string `json:"visualId,omitempty"`
	ReportID    string `json:"reportId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// ReportPage is one page of a report as returned by the pages listing.
type ReportPage struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Order       int    `json:"order"`
}

// EmbedDescriptor is the full result of minting an embed token: the token
// itself plus the report metadata fetched alongside it. Visuals is always
// empty; visual discovery is only possible client-side after embedding.
type EmbedDescriptor struct {
	EmbedToken          string       `json:"embedToken"`
	TokenExpiry         string       `json:"tokenExpiry"`
	EmbedURL            string       `json:"embedUrl"`
	ReportID            string       `json:"reportId"`
	WorkspaceID         string       `json:"workspaceId,omitempty"`
	ReportName          string       `json:"reportName"`
	Pages               []ReportPage `json:"pages"`
	Visuals             []string     `json:"visuals"`
	VisualDiscoveryNote string       `json:"visualDiscoveryNote,omitempty"`
}

// Report is a report entry from the reports listing.
type Report struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	EmbedURL string `json:"embedUrl"`
}
