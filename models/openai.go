package models

// EmbedRequest is used to structure the request to an OpenAI-compatible
// embeddings API.
type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbedResponse is used to parse the embedding vector from the API response.
type EmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}
