package models

// QueryAnswer is the final, validated pipeline output. Its JSON shape is the
// wire contract for POST /api/v1/process and must not change: existing
// clients parse these exact fields.
type QueryAnswer struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	ConfidenceScore float64  `json:"confidence_score"`
	IsSafe          bool     `json:"is_safe"`
	Trace           []string `json:"trace"`
	Error           string   `json:"error,omitempty"`
}

// UploadDocumentResponse is returned by the POST /api/v1/documents endpoint.
type UploadDocumentResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
}

// ListDocumentsResponse is the structure for the GET /api/v1/documents endpoint.
type ListDocumentsResponse struct {
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}
