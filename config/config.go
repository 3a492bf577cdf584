package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig configures the Gemini generation client.
type GeneratorConfig struct {
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the chunk/document stores.
type StoreConfig struct {
	Type               string `yaml:"type"` // "chroma" or "memory"
	ChromaURL          string `yaml:"chroma_url"`
	ChunkCollection    string `yaml:"chunk_collection"`
	DocumentCollection string `yaml:"document_collection"`
}

// RetrieverConfig tunes semantic search.
type RetrieverConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ReasonerConfig tunes grounded generation.
type ReasonerConfig struct {
	MaxContextChars int `yaml:"max_context_chars"`
}

// VerifierConfig tunes answer validation.
type VerifierConfig struct {
	EmptyContextMaxConfidence float64 `yaml:"empty_context_max_confidence"`
}

// GuardConfig configures security screening.
type GuardConfig struct {
	AuditLogPath string `yaml:"audit_log_path"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	WatchDir     string `yaml:"watch_dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Store     StoreConfig     `yaml:"store"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Reasoner  ReasonerConfig  `yaml:"reasoner"`
	Verifier  VerifierConfig  `yaml:"verifier"`
	Guard     GuardConfig     `yaml:"guard"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// Load reads a config from the given path. If the file does not exist,
// defaults are returned.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.5-flash"
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 30
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "chroma"
	}
	if cfg.Store.ChunkCollection == "" {
		cfg.Store.ChunkCollection = "doc-chunks"
	}
	if cfg.Store.DocumentCollection == "" {
		cfg.Store.DocumentCollection = "doc-registry"
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.Retriever.SimilarityThreshold == 0 {
		cfg.Retriever.SimilarityThreshold = 0.1
	}
	if cfg.Reasoner.MaxContextChars == 0 {
		cfg.Reasoner.MaxContextChars = 8000
	}
	if cfg.Verifier.EmptyContextMaxConfidence == 0 {
		cfg.Verifier.EmptyContextMaxConfidence = 0.3
	}
	if cfg.Guard.AuditLogPath == "" {
		cfg.Guard.AuditLogPath = "security_audit.jsonl"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 100
	}
}
