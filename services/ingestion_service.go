package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"docagent/models"
)

// minChunkChars drops near-empty chunks (page breaks, stray whitespace)
// before they waste an embedding call.
const minChunkChars = 10

// IngestionService turns raw document text into embedded chunks. The
// pipeline core never calls it; it feeds the stores the pipeline reads.
type IngestionService struct {
	embedder     Embedder
	chunks       ChunkWriter
	documents    DocumentStore
	chunkSize    int
	chunkOverlap int

	mu       sync.Mutex
	ingested map[string]string // watched file path -> content hash
}

// NewIngestionService creates an ingestion service. chunkSize and
// chunkOverlap are in characters; zero values get the 1000/100 defaults.
func NewIngestionService(embedder Embedder, chunks ChunkWriter, documents DocumentStore, chunkSize, chunkOverlap int) *IngestionService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 100
	}
	return &IngestionService{
		embedder:     embedder,
		chunks:       chunks,
		documents:    documents,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		ingested:     make(map[string]string),
	}
}

// IngestText registers a document, splits its text, embeds every chunk and
// stores the result. Returns the new document ID.
func (s *IngestionService) IngestText(ctx context.Context, title, text string) (string, error) {
	docID := uuid.New().String()
	doc := models.Document{ID: docID, Title: title, CreatedAt: time.Now().UTC()}
	if err := s.documents.Register(ctx, doc); err != nil {
		return "", fmt.Errorf("could not register document: %w", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return "", fmt.Errorf("could not split document text: %w", err)
	}
	log.Printf("INGEST: split %q into %d chunks", title, len(pieces))

	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if len(strings.TrimSpace(piece)) < minChunkChars {
			continue
		}
		vector, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			return "", fmt.Errorf("could not embed chunk %d of %q: %w", i, title, err)
		}
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s-chunk%d", docID, i),
			DocumentID: docID,
			Content:    piece,
			Embedding:  vector,
			Index:      i,
		})
	}
	if err := s.chunks.AddChunks(ctx, chunks); err != nil {
		return "", fmt.Errorf("could not store chunks for %q: %w", title, err)
	}

	log.Printf("INGEST: stored %d chunks for document %s (%q)", len(chunks), docID, title)
	return docID, nil
}

// IngestPDF extracts text from a PDF stream and ingests it.
func (s *IngestionService) IngestPDF(ctx context.Context, title string, rs io.ReadSeeker) (string, error) {
	text, err := ExtractPDFText(rs)
	if err != nil {
		return "", fmt.Errorf("could not extract text from %q: %w", title, err)
	}
	return s.IngestText(ctx, title, text)
}

// WatchDirectory starts a long-running loop ingesting supported files
// dropped into dirPath. Files are deduplicated by content hash so editor
// save storms do not produce duplicate documents. Blocks until the context
// is cancelled.
func (s *IngestionService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					s.ingestWatchedFile(ctx, event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (s *IngestionService) ingestWatchedFile(ctx context.Context, path string) {
	hash, err := calculateFileHash(path)
	if err != nil {
		log.Printf("WATCHER WARN: Could not hash file %s: %v", path, err)
		return
	}

	s.mu.Lock()
	previous, seen := s.ingested[path]
	s.mu.Unlock()
	if seen && previous == hash {
		return
	}

	log.Printf("WATCHER: Ingesting %s...", path)
	text, err := ExtractTextFromFile(path)
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to extract text from %s: %v", path, err)
		return
	}
	if _, err := s.IngestText(ctx, filepath.Base(path), text); err != nil {
		log.Printf("WATCHER ERROR: Failed to ingest %s: %v", path, err)
		return
	}

	s.mu.Lock()
	s.ingested[path] = hash
	s.mu.Unlock()
}

func calculateFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}
