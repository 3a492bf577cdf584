package models

import "time"

// Document is a registered upload. Ownership lives with the document store;
// the pipeline only ever references it by ID.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a segment of a document's extracted text paired with its
// embedding vector. Chunks are written once at ingestion time and are
// read-only afterwards.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Embedding  []float32
	Index      int
}

// ScoredChunk is one retrieval hit: chunk content with its cosine
// similarity to the query, already clamped to [0,1].
type ScoredChunk struct {
	Content string
	Score   float64
}

// Verdict is the security screening outcome. Category is set only when
// Safe is false.
type Verdict struct {
	Safe     bool
	Category string
}
