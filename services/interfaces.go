package services

import (
	"context"

	"docagent/models"
)

// Embedder converts free text into a fixed-dimensionality vector matching
// the vectors stored alongside chunks.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a language model in a single blocking
// round-trip. No implicit retries, no streaming.
type Generator interface {
	Generate(ctx context.Context, systemInstructions, prompt string) (string, error)
}

// ChunkStore reads the chunks belonging to one document. Implementations
// must scope results strictly to the requested document ID.
type ChunkStore interface {
	GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error)
}

// ChunkWriter stores embedded chunks at ingestion time. Kept separate from
// ChunkStore because the pipeline itself never writes.
type ChunkWriter interface {
	AddChunks(ctx context.Context, chunks []models.Chunk) error
}

// DocumentStore owns document records. The pipeline only uses Exists as a
// precondition check; Register and List serve the ingestion and listing
// endpoints.
type DocumentStore interface {
	Register(ctx context.Context, doc models.Document) error
	Exists(ctx context.Context, documentID string) (bool, error)
	List(ctx context.Context) ([]models.Document, error)
}

// AuditLogger records security screening decisions. Writes are best-effort:
// implementations report errors, but callers must never fail a request
// because the sink is unavailable.
type AuditLogger interface {
	Log(event AuditEvent) error
}

// AuditEvent is one security screening decision.
type AuditEvent struct {
	Query    string `json:"query"`
	Safe     bool   `json:"safe"`
	Category string `json:"category,omitempty"`
}
