package models

// AnalyzeRequest selects a source image and optionally overrides parameters.
// Exactly one of ImageID (a previous upload) and ImageURL must be set.
type AnalyzeRequest struct {
	ImageID    string      `json:"image_id,omitempty"`
	ImageURL   string      `json:"image_url,omitempty"`
	Parameters *Parameters `json:"parameters,omitempty"`

	// OmitPanels skips the rendered panels for callers that only want the
	// numeric results.
	OmitPanels bool `json:"omit_panels,omitempty"`
}

// AnalyzeResponse is the full analysis payload.
type AnalyzeResponse struct {
	ImageRef          string             `json:"image_ref"`
	Timestamp         string             `json:"timestamp"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
	ImageMetadata     ImageMetadata      `json:"image_metadata"`
	Parameters        ParameterValues    `json:"parameters"`
	Statistics        Statistics         `json:"statistics"`
	Terrain           *TerrainSummary    `json:"terrain,omitempty"`
	LandingAssessment *LandingAssessment `json:"landing_assessment,omitempty"`

	// Visualizations maps panel names to base64-encoded PNGs.
	Visualizations map[string]string `json:"visualizations,omitempty"`
}

// PreviewResponse carries a single rendered panel.
type PreviewResponse struct {
	Panel             string      `json:"panel"`
	ImageRef          string      `json:"image_ref"`
	Timestamp         string      `json:"timestamp"`
	ProcessingTimeSec float64     `json:"processing_time_sec"`
	Visualization     string      `json:"visualization"`
	Statistics        *Statistics `json:"statistics,omitempty"`
}

// ExportRequest runs a full analysis and writes its artifacts through the
// configured artifact store.
type ExportRequest struct {
	ImageID    string      `json:"image_id,omitempty"`
	ImageURL   string      `json:"image_url,omitempty"`
	Parameters *Parameters `json:"parameters,omitempty"`

	// Name prefixes the artifact names; a generated id is used when empty.
	Name string `json:"name,omitempty"`
}

// ExportResponse acknowledges a queued export.
type ExportResponse struct {
	ExportID  string   `json:"export_id"`
	Status    string   `json:"status"`
	Artifacts []string `json:"artifacts"`
	Timestamp string   `json:"timestamp"`
}

// UploadResponse describes a stored upload. Preview is a base64 PNG
// thumbnail of the normalized image.
type UploadResponse struct {
	ImageID   string `json:"image_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	Preview   string `json:"preview,omitempty"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

// DefaultsResponse lists the default parameters and their accepted ranges.
type DefaultsResponse struct {
	Parameters ParameterValues           `json:"parameters"`
	Ranges     map[string]ParameterRange `json:"ranges"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
