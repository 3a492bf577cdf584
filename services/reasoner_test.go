package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docagent/models"
)

func TestReasoner_BuildsDelimitedContext(t *testing.T) {
	generator := &mockGenerator{response: "{}"}
	reasoner := NewReasoner(generator, 8000, time.Second)

	retrieved := []models.ScoredChunk{
		{Content: "first chunk", Score: 0.9},
		{Content: "second chunk", Score: 0.5},
	}
	if _, err := reasoner.Reason(context.Background(), "what is this?", retrieved); err != nil {
		t.Fatalf("reason failed: %v", err)
	}

	if !strings.Contains(generator.lastPrompt, "first chunk\n---\nsecond chunk") {
		t.Errorf("prompt should contain delimited chunks in ranked order, got:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, "what is this?") {
		t.Error("prompt should contain the user query")
	}
	if generator.lastSystem != answerInstructions {
		t.Error("grounded queries should use the grounded instructions")
	}
}

func TestReasoner_DropsLowestRankedOverBudget(t *testing.T) {
	generator := &mockGenerator{response: "{}"}
	reasoner := NewReasoner(generator, 30, time.Second)

	retrieved := []models.ScoredChunk{
		{Content: "the best and strongest match", Score: 0.9}, // 28 chars, fits
		{Content: "a weaker match that will not fit", Score: 0.2},
	}
	if _, err := reasoner.Reason(context.Background(), "q", retrieved); err != nil {
		t.Fatalf("reason failed: %v", err)
	}

	if !strings.Contains(generator.lastPrompt, "the best and strongest match") {
		t.Error("highest-ranked chunk must survive the budget cut")
	}
	if strings.Contains(generator.lastPrompt, "a weaker match") {
		t.Error("lowest-ranked chunk should be dropped when over budget")
	}
}

func TestReasoner_EmptyContextUsesInsufficiencyInstructions(t *testing.T) {
	generator := &mockGenerator{response: "{}"}
	reasoner := NewReasoner(generator, 8000, time.Second)

	if _, err := reasoner.Reason(context.Background(), "who is sarah?", nil); err != nil {
		t.Fatalf("reason failed: %v", err)
	}

	if generator.lastSystem != emptyContextInstructions {
		t.Error("empty retrieval should switch to the insufficiency instructions")
	}
	if generator.lastPrompt != "who is sarah?" {
		t.Errorf("with no context the prompt should be the bare query, got %q", generator.lastPrompt)
	}
}

func TestReasoner_IssuesExactlyOneCall(t *testing.T) {
	generator := &mockGenerator{response: "{}"}
	reasoner := NewReasoner(generator, 8000, time.Second)

	if _, err := reasoner.Reason(context.Background(), "q", nil); err != nil {
		t.Fatalf("reason failed: %v", err)
	}
	if generator.calls != 1 {
		t.Errorf("expected exactly one generation call, got %d", generator.calls)
	}
}

func TestReasoner_GenerationFailure(t *testing.T) {
	generator := &mockGenerator{err: errors.New("upstream 500")}
	reasoner := NewReasoner(generator, 8000, time.Second)

	_, err := reasoner.Reason(context.Background(), "q", nil)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestReasoner_HangBecomesTimeout(t *testing.T) {
	generator := &mockGenerator{block: true}
	reasoner := NewReasoner(generator, 8000, 10*time.Millisecond)

	_, err := reasoner.Reason(context.Background(), "q", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestReasoner_EmptyDraftIsGenerationFailure(t *testing.T) {
	generator := &mockGenerator{response: "   \n"}
	reasoner := NewReasoner(generator, 8000, time.Second)

	_, err := reasoner.Reason(context.Background(), "q", nil)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration for empty draft, got %v", err)
	}
}
