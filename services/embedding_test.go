package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docagent/models"
)

func TestEmbeddingClient_Embed(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq models.EmbedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "test-key", "text-embedding-3-small")
	vector, err := client.Embed(context.Background(), "line one\nline two")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if len(vector) != 3 {
		t.Errorf("expected 3-dimensional vector, got %d", len(vector))
	}
	if gotPath != "/embeddings" {
		t.Errorf("expected POST to /embeddings, got %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotReq.Model != "text-embedding-3-small" {
		t.Errorf("unexpected model: %q", gotReq.Model)
	}
	if len(gotReq.Input) != 1 || strings.Contains(gotReq.Input[0], "\n") {
		t.Errorf("newlines should be flattened before embedding, got %+v", gotReq.Input)
	}
}

func TestEmbeddingClient_NoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without an API key")
		}
		w.Write([]byte(`{"data": [{"embedding": [1.0]}]}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "", "nomic-embed-text")
	if _, err := client.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
}

func TestEmbeddingClient_Non200IsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "k", "m")
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestEmbeddingClient_EmptyVectorIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "k", "m")
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error when the API returns no vector")
	}
}
