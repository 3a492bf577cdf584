package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"docagent/models"
)

// Retriever performs semantic search over one document's chunks. It embeds
// the query, scores every chunk of the requested document by cosine
// similarity, and returns the strongest matches in descending order.
type Retriever struct {
	embedder    Embedder
	store       ChunkStore
	topK        int
	threshold   float64
	callTimeout time.Duration
}

// NewRetriever creates a Retriever.
//
// The similarity threshold trades recall for precision: too low and weak,
// noisy chunks leak into the grounding context; too high and most queries
// come back with an empty context. The default of 0.1 deliberately leans
// toward recall so the reasoner sees something to work with.
func NewRetriever(embedder Embedder, store ChunkStore, topK int, threshold float64, callTimeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Retriever{
		embedder:    embedder,
		store:       store,
		topK:        topK,
		threshold:   threshold,
		callTimeout: callTimeout,
	}
}

// Retrieve returns up to topK chunks of the given document ranked by
// similarity to the query. Scores are non-increasing along the result and
// always within [0,1]. An empty result is not an error: a document with no
// chunks, or none above the threshold, simply yields no grounding context.
func (r *Retriever) Retrieve(ctx context.Context, documentID, query string) ([]models.ScoredChunk, error) {
	embedCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	queryVector, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding query: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("embedding query: %v: %w", err, ErrEmbedding)
	}
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("embedder returned an empty vector: %w", ErrEmbedding)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	chunks, err := r.store.GetChunks(fetchCtx, documentID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetching chunks: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("fetching chunks for document %s: %w", documentID, err)
	}

	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		// Hard invariant: never score content from another document.
		if chunk.DocumentID != documentID {
			continue
		}
		if len(chunk.Embedding) != len(queryVector) {
			log.Printf("RETRIEVER WARN: chunk %s has dimension %d, query has %d; skipping",
				chunk.ID, len(chunk.Embedding), len(queryVector))
			continue
		}
		score := cosineSimilarity(queryVector, chunk.Embedding)
		if score < r.threshold {
			continue
		}
		scored = append(scored, models.ScoredChunk{Content: chunk.Content, Score: score})
	}

	// Stable sort keeps original chunk order on score ties, which keeps
	// results deterministic across runs.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}
	log.Printf("RETRIEVER: %d of %d chunks above threshold for document %s", len(scored), len(chunks), documentID)
	return scored, nil
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||) in float64 and
// clamps the result to [0,1]. A zero-magnitude vector yields 0, not NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
