package services

import (
	"context"
	"errors"

	"docagent/models"
)

// mockEmbedder implements Embedder for testing. Vectors can be pinned per
// text; anything else gets the fallback vector.
type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	block    bool
	calls    int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return []float32{1, 0, 0}, nil
}

// mockGenerator implements Generator for testing and records the prompt it
// was given.
type mockGenerator struct {
	response   string
	err        error
	block      bool
	calls      int
	lastSystem string
	lastPrompt string
}

func (m *mockGenerator) Generate(ctx context.Context, systemInstructions, prompt string) (string, error) {
	m.calls++
	m.lastSystem = systemInstructions
	m.lastPrompt = prompt
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockAudit implements AuditLogger and captures events.
type mockAudit struct {
	events []AuditEvent
	err    error
}

func (m *mockAudit) Log(event AuditEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// leakyChunkStore returns every chunk it holds regardless of the requested
// document, simulating a store that fails to scope its reads.
type leakyChunkStore struct {
	chunks []models.Chunk
}

func (s *leakyChunkStore) GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	return s.chunks, nil
}

// failingChunkStore always errors.
type failingChunkStore struct{}

func (s *failingChunkStore) GetChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	return nil, errors.New("store unavailable")
}
