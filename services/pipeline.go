package services

import (
	"context"
	"fmt"
	"log"

	"docagent/models"
)

// Trace labels appended per completed stage. They are part of the response
// payload that existing clients display, so the exact strings matter.
const (
	TraceSecurityBlocked   = "Security Check Failed"
	TraceSecurityCleared   = "Security Cleared"
	TraceRetrievalComplete = "Semantic Retrieval Complete"
	TraceReasoningDone     = "Reasoning Verified"
	TraceSchemaValidated   = "Schema Validated"
)

// blockedSummary is returned in place of an answer when the guard rejects
// the query.
const blockedSummary = "Request Blocked: Security Policy Violation."

// Pipeline sequences the four stages (guard, retriever, reasoner,
// verifier) for one request at a time. It holds no per-request state, so a
// single Pipeline serves concurrent requests safely.
type Pipeline struct {
	guard     *Guard
	retriever *Retriever
	reasoner  *Reasoner
	verifier  *Verifier
	documents DocumentStore
}

// NewPipeline wires the four stages and the document store used for the
// existence precondition.
func NewPipeline(guard *Guard, retriever *Retriever, reasoner *Reasoner, verifier *Verifier, documents DocumentStore) *Pipeline {
	return &Pipeline{
		guard:     guard,
		retriever: retriever,
		reasoner:  reasoner,
		verifier:  verifier,
		documents: documents,
	}
}

// Run executes the pipeline for one query. Control flows strictly forward;
// an unsafe verdict at the guard short-circuits everything after it and is
// reported as a normal (blocked) answer, not an error. Stage faults come
// back as a *StageError carrying the trace of the stages that did
// complete.
func (p *Pipeline) Run(ctx context.Context, documentID, query string) (*models.QueryAnswer, error) {
	// Precondition: the document must be known before any stage runs.
	exists, err := p.documents.Exists(ctx, documentID)
	if err != nil {
		return nil, &StageError{Stage: "precondition", Err: fmt.Errorf("checking document %s: %w", documentID, err)}
	}
	if !exists {
		return nil, &StageError{Stage: "precondition", Err: fmt.Errorf("document %s: %w", documentID, ErrNotFound)}
	}

	// Stage 1: security screening. A rejection is terminal but not a
	// fault: the caller still gets a well-formed answer shape.
	verdict := p.guard.Screen(query)
	if !verdict.Safe {
		return &models.QueryAnswer{
			Summary:         blockedSummary,
			KeyPoints:       []string{},
			ConfidenceScore: 0,
			IsSafe:          false,
			Trace:           []string{TraceSecurityBlocked},
		}, nil
	}
	trace := []string{TraceSecurityCleared}

	// Stage 2: semantic retrieval. An empty result is fine; the reasoner
	// is instructed to report insufficient information rather than invent.
	retrieved, err := p.retriever.Retrieve(ctx, documentID, query)
	if err != nil {
		return nil, &StageError{Stage: "retriever", Trace: trace, Err: err}
	}
	trace = append(trace, TraceRetrievalComplete)

	// Stage 3: grounded generation.
	draft, err := p.reasoner.Reason(ctx, query, retrieved)
	if err != nil {
		return nil, &StageError{Stage: "reasoner", Trace: trace, Err: err}
	}
	trace = append(trace, TraceReasoningDone)

	// Stage 4: schema validation. No retry on failure here: a bad draft is
	// a generation-quality problem the caller should see as such.
	answer, err := p.verifier.Verify(draft, retrieved)
	if err != nil {
		return nil, &StageError{Stage: "verifier", Trace: trace, Err: err}
	}
	trace = append(trace, TraceSchemaValidated)

	answer.Trace = trace
	log.Printf("PIPELINE: request complete (confidence=%.2f, chunks=%d)", answer.ConfidenceScore, len(retrieved))
	return answer, nil
}
