package models

// ProcessQueryRequest is the payload for the POST /api/v1/process endpoint.
type ProcessQueryRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Query      string `json:"query" binding:"required"`
}
