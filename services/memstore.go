package services

import (
	"context"
	"sort"
	"sync"

	"docagent/models"
)

// MemoryChunkStore is a process-local chunk store. It backs the "memory"
// store type for single-process deployments and doubles as the test
// double for the pipeline.
type MemoryChunkStore struct {
	mu    sync.RWMutex
	byDoc map[string][]models.Chunk
}

// NewMemoryChunkStore creates an empty in-memory chunk store.
func NewMemoryChunkStore() *MemoryChunkStore {
	return &MemoryChunkStore{byDoc: make(map[string][]models.Chunk)}
}

// GetChunks returns the chunks of one document in chunk order.
func (s *MemoryChunkStore) GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byDoc[documentID]
	chunks := make([]models.Chunk, len(stored))
	copy(chunks, stored)
	return chunks, nil
}

// AddChunks stores embedded chunks.
func (s *MemoryChunkStore) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.byDoc[chunk.DocumentID] = append(s.byDoc[chunk.DocumentID], chunk)
	}
	return nil
}

// MemoryDocumentStore is a process-local document registry.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs []models.Document
}

// NewMemoryDocumentStore creates an empty in-memory document store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

// Register records a document.
func (s *MemoryDocumentStore) Register(ctx context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

// Exists reports whether a document ID is known.
func (s *MemoryDocumentStore) Exists(ctx context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ID == documentID {
			return true, nil
		}
	}
	return false, nil
}

// List returns all registered documents, newest first.
func (s *MemoryDocumentStore) List(ctx context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.Document, len(s.docs))
	copy(docs, s.docs)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}
