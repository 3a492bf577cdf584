package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docagent/models"
)

// EmbeddingClient talks to an OpenAI-compatible embeddings endpoint
// (OpenAI, OpenRouter, or a local server exposing the same shape).
type EmbeddingClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewEmbeddingClient creates an embeddings client. apiKey may be empty for
// local servers that do not authenticate.
func NewEmbeddingClient(httpClient *http.Client, baseURL, apiKey, model string) *EmbeddingClient {
	return &EmbeddingClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Embed generates an embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	// Embedding models handle single-line input better.
	cleaned := strings.ReplaceAll(text, "\n", " ")

	reqBody, err := json.Marshal(models.EmbedRequest{
		Model: c.model,
		Input: []string{cleaned},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call embeddings api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var embedResp models.EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(embedResp.Data) == 0 || len(embedResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings api returned no vector")
	}
	return embedResp.Data[0].Embedding, nil
}
