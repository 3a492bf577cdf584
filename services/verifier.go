package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"docagent/models"
)

// answerDraft is the fixed schema the generation capability is instructed
// to emit.
type answerDraft struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Verifier parses the reasoner's draft into the fixed answer schema and
// applies the anti-hallucination confidence policy. It never re-derives
// safety: unsafe requests are stopped by the guard and never reach here.
type Verifier struct {
	// emptyContextCeiling caps confidence when retrieval found nothing.
	// With no grounding context the model is answering from thin air, so
	// the reported confidence is forced down to at most this value
	// (default 0.3) regardless of what the model claimed.
	emptyContextCeiling float64
}

// NewVerifier creates a Verifier with the given empty-context confidence
// ceiling.
func NewVerifier(emptyContextCeiling float64) *Verifier {
	if emptyContextCeiling <= 0 {
		emptyContextCeiling = 0.3
	}
	return &Verifier{emptyContextCeiling: emptyContextCeiling}
}

// Verify validates the draft against the answer schema and returns the
// final answer. Minor formatting noise around the JSON (code fences,
// surrounding prose) is tolerated; a draft from which no summary or no key
// points can be extracted fails with ErrSchema.
func (v *Verifier) Verify(draft string, retrieved []models.ScoredChunk) (*models.QueryAnswer, error) {
	payload, ok := extractJSON(draft)
	if !ok {
		return nil, fmt.Errorf("no JSON object in draft: %w", ErrSchema)
	}

	var parsed answerDraft
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("decoding draft: %v: %w", err, ErrSchema)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("draft has no summary: %w", ErrSchema)
	}
	if len(parsed.KeyPoints) == 0 {
		return nil, fmt.Errorf("draft has no key points: %w", ErrSchema)
	}

	confidence := clamp01(parsed.ConfidenceScore)
	if len(retrieved) == 0 && confidence > v.emptyContextCeiling {
		log.Printf("VERIFIER: empty retrieval, capping confidence %.2f -> %.2f", confidence, v.emptyContextCeiling)
		confidence = v.emptyContextCeiling
	}

	return &models.QueryAnswer{
		Summary:         strings.TrimSpace(parsed.Summary),
		KeyPoints:       parsed.KeyPoints,
		ConfidenceScore: confidence,
		IsSafe:          true,
	}, nil
}

// extractJSON pulls the first JSON object out of possibly noisy model
// output: fenced code blocks and prose before or after the object are
// stripped.
func extractJSON(text string) (string, bool) {
	cleaned := text
	if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+3:]
		cleaned = strings.TrimPrefix(cleaned, "json")
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
