package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"docagent/models"
)

// ChromaChunkStore keeps chunk text and embeddings in a ChromaDB
// collection, one record per chunk, with the owning document ID in the
// record metadata. Retrieval reads the raw vectors back out and leaves the
// similarity math to the pipeline.
type ChromaChunkStore struct {
	collection chromago.Collection
}

// NewChromaChunkStore wraps an existing collection.
func NewChromaChunkStore(collection chromago.Collection) *ChromaChunkStore {
	return &ChromaChunkStore{collection: collection}
}

// GetChunks returns every chunk belonging to the given document, in chunk
// order. The where filter scopes the read to the one document; nothing
// else ever comes back.
func (s *ChromaChunkStore) GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	results, err := s.collection.Get(ctx,
		chromago.WithWhereGet(chromago.EqString("doc_id", documentID)),
		chromago.WithIncludeGet(chromago.IncludeDocuments, chromago.IncludeMetadatas, chromago.IncludeEmbeddings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks from chromadb: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()
	vectors := results.GetEmbeddings()

	chunks := make([]models.Chunk, 0, len(ids))
	for i := range ids {
		chunk := models.Chunk{
			ID:         string(ids[i]),
			DocumentID: documentID,
		}
		if i < len(documents) {
			chunk.Content = documents[i].ContentString()
		}
		if i < len(vectors) && vectors[i] != nil {
			chunk.Embedding = vectors[i].ContentAsFloat32()
		}
		if i < len(metadatas) {
			meta := metadataToMap(metadatas[i])
			if n, ok := meta["chunk_num"].(float64); ok {
				chunk.Index = int(n)
			}
		}
		chunks = append(chunks, chunk)
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// AddChunks stores embedded chunks for a document.
func (s *ChromaChunkStore) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	for _, chunk := range chunks {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("doc_id", chunk.DocumentID),
			chromago.NewIntAttribute("chunk_num", int64(chunk.Index)),
		)
		err := s.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(chunk.ID)),
			chromago.WithTexts(chunk.Content),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(chunk.Embedding)),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %s to chromadb: %w", chunk.ID, err)
		}
	}
	return nil
}

// ChromaDocumentStore keeps one record per registered document in its own
// collection, separate from the chunk data.
type ChromaDocumentStore struct {
	collection chromago.Collection
}

// NewChromaDocumentStore wraps an existing collection.
func NewChromaDocumentStore(collection chromago.Collection) *ChromaDocumentStore {
	return &ChromaDocumentStore{collection: collection}
}

// Register records a document.
func (s *ChromaDocumentStore) Register(ctx context.Context, doc models.Document) error {
	metadata := chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("title", doc.Title),
		chromago.NewStringAttribute("created_at", doc.CreatedAt.UTC().Format(time.RFC3339)),
	)
	err := s.collection.Add(ctx,
		chromago.WithIDs(chromago.DocumentID(doc.ID)),
		chromago.WithTexts(doc.Title),
		chromago.WithMetadatas(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to register document in chromadb: %w", err)
	}
	return nil
}

// Exists reports whether a document ID is known.
func (s *ChromaDocumentStore) Exists(ctx context.Context, documentID string) (bool, error) {
	results, err := s.collection.Get(ctx, chromago.WithIDsGet(chromago.DocumentID(documentID)))
	if err != nil {
		return false, fmt.Errorf("failed to look up document in chromadb: %w", err)
	}
	return len(results.GetIDs()) > 0, nil
}

// List returns all registered documents, newest first.
func (s *ChromaDocumentStore) List(ctx context.Context) ([]models.Document, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents from chromadb: %w", err)
	}

	ids := results.GetIDs()
	metadatas := results.GetMetadatas()

	docs := make([]models.Document, 0, len(ids))
	for i := range ids {
		doc := models.Document{ID: string(ids[i])}
		if i < len(metadatas) {
			meta := metadataToMap(metadatas[i])
			if title, ok := meta["title"].(string); ok {
				doc.Title = title
			}
			if created, ok := meta["created_at"].(string); ok {
				if t, err := time.Parse(time.RFC3339, created); err == nil {
					doc.CreatedAt = t
				}
			}
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

// metadataToMap converts a chroma DocumentMetadata into a plain map. The
// metadata type has no public accessor for its values, so it goes through
// a JSON round-trip.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	out := make(map[string]interface{})
	if metadata == nil {
		return out
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal chroma metadata: %v", err)
		return out
	}
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		log.Printf("WARN: could not unmarshal chroma metadata: %v", err)
		return make(map[string]interface{})
	}
	return out
}
