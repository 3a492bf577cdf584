package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"docagent/config"
	"docagent/controller"
	"docagent/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load config: %v", err)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	}

	// Stores: chroma for real deployments, in-memory for single-process use.
	var chunkStore services.ChunkStore
	var chunkWriter services.ChunkWriter
	var documentStore services.DocumentStore

	switch cfg.Store.Type {
	case "memory":
		memChunks := services.NewMemoryChunkStore()
		chunkStore, chunkWriter = memChunks, memChunks
		documentStore = services.NewMemoryDocumentStore()
		log.Println("Using in-memory stores.")
	default:
		var opts []chromago.ClientOption
		if cfg.Store.ChromaURL != "" {
			opts = append(opts, chromago.WithBaseURL(cfg.Store.ChromaURL))
		}
		chromaClient, err := chromago.NewHTTPClient(opts...)
		if err != nil {
			log.Fatalf("FATAL: Failed to create chroma client: %v", err)
		}
		defer func() {
			if cerr := chromaClient.Close(); cerr != nil {
				log.Printf("Warning: Failed to close chroma client: %v", cerr)
			}
		}()

		chunkCollection, err := getOrCreateCollection(chromaClient, cfg.Store.ChunkCollection, "document chunk embeddings")
		if err != nil {
			log.Fatalf("FATAL: Failed to get or create chunk collection: %v", err)
		}
		docCollection, err := getOrCreateCollection(chromaClient, cfg.Store.DocumentCollection, "registered document records")
		if err != nil {
			log.Fatalf("FATAL: Failed to get or create document collection: %v", err)
		}

		chromaChunks := services.NewChromaChunkStore(chunkCollection)
		chunkStore, chunkWriter = chromaChunks, chromaChunks
		documentStore = services.NewChromaDocumentStore(docCollection)
	}

	// Gemini client for answer generation.
	geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")

	embedder := services.NewEmbeddingClient(httpClient, cfg.Embedder.BaseURL, os.Getenv(cfg.Embedder.APIKeyEnv), cfg.Embedder.Model)
	generator := services.NewGeminiGenerator(geminiClient, cfg.Generator.Model)

	guard := services.NewGuard(services.NewFileAuditLogger(cfg.Guard.AuditLogPath))
	retriever := services.NewRetriever(embedder, chunkStore, cfg.Retriever.TopK, cfg.Retriever.SimilarityThreshold,
		time.Duration(cfg.Embedder.TimeoutSecs)*time.Second)
	reasoner := services.NewReasoner(generator, cfg.Reasoner.MaxContextChars,
		time.Duration(cfg.Generator.TimeoutSecs)*time.Second)
	verifier := services.NewVerifier(cfg.Verifier.EmptyContextMaxConfidence)

	pipeline := services.NewPipeline(guard, retriever, reasoner, verifier, documentStore)
	ingestion := services.NewIngestionService(embedder, chunkWriter, documentStore, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	pipelineController := controller.NewPipelineController(pipeline, ingestion, documentStore)

	// Auto-ingest files dropped into the watch directory, if configured.
	if cfg.Ingest.WatchDir != "" {
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go ingestion.WatchDirectory(watchCtx, cfg.Ingest.WatchDir)
	}

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware for the browser UI
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Document Q&A API",
			"version": "1.0.0",
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", pipelineController.UploadDocument) // Upload and embed a PDF
		apiV1.GET("/documents", pipelineController.ListDocuments)   // List uploaded documents
		apiV1.POST("/process", pipelineController.ProcessQuery)     // Ask a question about a document
	}

	// Start the Server
	port := cfg.Server.Port
	log.Printf("Go Gin backend server starting on http://localhost:%s", port)
	log.Printf("Health check available at: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/api/v1/documents", port)
	log.Printf("  GET  http://localhost:%s/api/v1/documents", port)
	log.Printf("  POST http://localhost:%s/api/v1/process", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// getOrCreateCollection implements collection management using the chroma
// v2 API.
func getOrCreateCollection(client chromago.Client, collectionName, description string) (chromago.Collection, error) {
	ctx := context.Background()

	log.Printf("Getting or creating collection '%s'...", collectionName)

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", description),
				chromago.NewStringAttribute("created_by", "docagent"),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully got/created collection '%s'", collectionName)
	return collection, nil
}
