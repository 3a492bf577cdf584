package controller

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docagent/models"
	"docagent/services"
)

// PipelineController handles the HTTP requests for the document Q&A API.
// It depends on the pipeline and ingestion services to perform the actual
// business logic.
type PipelineController struct {
	pipeline  *services.Pipeline
	ingestion *services.IngestionService
	documents services.DocumentStore
}

// NewPipelineController is a constructor function that creates a new
// PipelineController. This is called from main.go to inject the service
// dependencies.
func NewPipelineController(pipeline *services.Pipeline, ingestion *services.IngestionService, documents services.DocumentStore) *PipelineController {
	return &PipelineController{
		pipeline:  pipeline,
		ingestion: ingestion,
		documents: documents,
	}
}

// ProcessQuery is the Gin handler for the POST /api/v1/process endpoint.
// It runs the four-stage pipeline and maps failures onto distinct HTTP
// statuses while always returning the answer-shaped body clients expect.
func (c *PipelineController) ProcessQuery(ctx *gin.Context) {
	var req models.ProcessQueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	answer, err := c.pipeline.Run(ctx.Request.Context(), req.DocumentID, req.Query)
	if err != nil {
		status, message := classifyPipelineError(err)

		var stageErr *services.StageError
		trace := []string{}
		if errors.As(err, &stageErr) && stageErr.Trace != nil {
			trace = stageErr.Trace
		}

		// Failures keep the wire shape so every client response stays
		// parseable. The detailed cause is logged by the service layer;
		// only the class of failure is exposed here.
		ctx.JSON(status, models.QueryAnswer{
			Summary:         "",
			KeyPoints:       []string{},
			ConfidenceScore: 0,
			IsSafe:          true,
			Trace:           trace,
			Error:           message,
		})
		return
	}

	ctx.JSON(http.StatusOK, answer)
}

// classifyPipelineError maps the error taxonomy onto HTTP statuses with a
// generic user-facing message per class.
func classifyPipelineError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Document not found."
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "An upstream service timed out. Please try again."
	case errors.Is(err, services.ErrEmbedding):
		return http.StatusBadGateway, "The embedding service is unavailable."
	case errors.Is(err, services.ErrGeneration):
		return http.StatusBadGateway, "The answer service is unavailable."
	case errors.Is(err, services.ErrSchema):
		return http.StatusUnprocessableEntity, "The model produced an unusable answer. Please retry the question."
	default:
		return http.StatusInternalServerError, "Failed to process query."
	}
}

// UploadDocument is the Gin handler for the POST /api/v1/documents
// endpoint. It accepts a single PDF file and ingests it.
func (c *PipelineController) UploadDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'file' form field: " + err.Error()})
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only PDFs allowed."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	docID, err := c.ingestion.IngestPDF(ctx.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest document"})
		return
	}

	ctx.JSON(http.StatusCreated, models.UploadDocumentResponse{
		Message:    "Upload & Embedding successful",
		DocumentID: docID,
	})
}

// ListDocuments is the Gin handler for the GET /api/v1/documents endpoint.
// The UI polls it to refresh the document list.
func (c *PipelineController) ListDocuments(ctx *gin.Context) {
	docs, err := c.documents.List(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve documents"})
		return
	}

	ctx.JSON(http.StatusOK, models.ListDocumentsResponse{
		Count:     len(docs),
		Documents: docs,
	})
}
