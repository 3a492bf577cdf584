package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docagent/models"
)

// chunkDelimiter separates retrieved chunks inside the grounding context.
const chunkDelimiter = "\n---\n"

// answerInstructions is the fixed system prompt for grounded generation.
// The model must answer only from the supplied context and emit the fixed
// answer schema so the verifier can parse it without a second model call.
const answerInstructions = `You are a research assistant answering questions about a single document.
Use ONLY the context provided between the CONTEXT markers. Never use outside knowledge and never invent facts.
If the context does not contain the information needed, say so clearly instead of guessing.
Respond with ONLY a JSON object with these exact keys:
"summary" (string): a direct answer to the question,
"key_points" (array of strings): the supporting points, in order of importance; always include at least one,
"confidence_score" (number between 0 and 1): how well the context supports your answer.`

// emptyContextInstructions replaces the grounded prompt when retrieval
// found nothing usable.
const emptyContextInstructions = `You are a research assistant. No relevant content was found in the document for this question.
Respond with ONLY a JSON object with these exact keys:
"summary" (string): state that the document contains insufficient information to answer the question,
"key_points" (array of strings): one entry explaining that no relevant content was found,
"confidence_score" (number between 0 and 1): a low value reflecting the missing context.`

// Reasoner builds a grounding context from retrieved chunks and asks the
// generation capability for a structured answer constrained to it.
type Reasoner struct {
	generator       Generator
	maxContextChars int
	callTimeout     time.Duration
}

// NewReasoner creates a Reasoner. maxContextChars caps the grounding
// context; lowest-ranked chunks are dropped first when the retrieval would
// exceed it.
func NewReasoner(generator Generator, maxContextChars int, callTimeout time.Duration) *Reasoner {
	if maxContextChars <= 0 {
		maxContextChars = 8000
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Reasoner{
		generator:       generator,
		maxContextChars: maxContextChars,
		callTimeout:     callTimeout,
	}
}

// Reason issues exactly one blocking generation call and returns the raw
// answer draft. The draft is expected, but not guaranteed, to satisfy the
// answer schema; parsing it is the verifier's job.
func (r *Reasoner) Reason(ctx context.Context, query string, retrieved []models.ScoredChunk) (string, error) {
	grounding := r.buildContext(retrieved)

	instructions := answerInstructions
	prompt := query
	if grounding == "" {
		instructions = emptyContextInstructions
	} else {
		prompt = fmt.Sprintf("CONTEXT:\n%s\nEND CONTEXT\n\nQuestion: %s", grounding, query)
	}

	genCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	log.Printf("REASONER: generating answer (context=%d chars)", len(grounding))
	draft, err := r.generator.Generate(genCtx, instructions, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("generating answer: %w", ErrTimeout)
		}
		return "", fmt.Errorf("generating answer: %v: %w", err, ErrGeneration)
	}
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("generator returned an empty draft: %w", ErrGeneration)
	}
	return draft, nil
}

// buildContext concatenates chunk texts in ranked order. Chunks that would
// push the total past the character budget are dropped, lowest-ranked
// first, so the strongest matches always survive.
func (r *Reasoner) buildContext(retrieved []models.ScoredChunk) string {
	var sb strings.Builder
	for i, chunk := range retrieved {
		addition := len(chunk.Content)
		if i > 0 {
			addition += len(chunkDelimiter)
		}
		if sb.Len()+addition > r.maxContextChars {
			log.Printf("REASONER: context budget reached, dropping %d lowest-ranked chunks", len(retrieved)-i)
			break
		}
		if i > 0 {
			sb.WriteString(chunkDelimiter)
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String()
}
