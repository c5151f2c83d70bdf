package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"slidedeck/internal/app"
	"slidedeck/internal/ingest"
	"slidedeck/internal/model"
	"slidedeck/internal/storage"
	"slidedeck/internal/transport/http/response"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

type DocumentService interface {
	Upload(ctx context.Context, input app.UploadInput) (*ingest.Result, error)
	Get(ctx context.Context, documentID string) (*model.Document, error)
	List(ctx context.Context, limit int) ([]model.Document, error)
	Delete(ctx context.Context, documentID string) error
}

type FileResolver interface {
	Resolve(name string) (string, error)
}

type DocumentHandler struct {
	documents DocumentService
	files     FileResolver
	maxBytes  int64
	log       *logrus.Logger
}

func NewDocumentHandler(documents DocumentService, files FileResolver, maxBytes int64, log *logrus.Logger) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = ingest.MaxUploadBytes
	}
	return &DocumentHandler{documents: documents, files: files, maxBytes: maxBytes, log: log}
}

type uploadResponse struct {
	DocumentID  string        `json:"document_id"`
	Filename    string        `json:"filename"`
	Status      ingest.Status `json:"status"`
	TotalSlides *int          `json:"total_slides,omitempty"`
}

type documentSummary struct {
	DocumentID       string         `json:"document_id"`
	OriginalFilename string         `json:"original_filename"`
	FileType         model.FileType `json:"file_type"`
	UploadTimestamp  time.Time      `json:"upload_timestamp"`
	TotalSlides      int            `json:"total_slides"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file provided")
		return
	}
	if fileHeader.Filename == "" {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFilename, "no file selected")
		return
	}
	if fileHeader.Size == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeEmptyFile, "file is empty")
		return
	}
	if fileHeader.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.documents.Upload(c.Request.Context(), app.UploadInput{
		Filename: fileHeader.Filename,
		Body:     f,
	})
	if err != nil {
		h.writeError(c, err, "upload failed")
		return
	}

	body := uploadResponse{
		DocumentID: result.DocumentID,
		Filename:   result.Filename,
		Status:     result.Status,
	}
	if result.Status == ingest.StatusQueued {
		response.Status(c, http.StatusAccepted, "file uploaded and queued for processing", body)
		return
	}
	if result.Document != nil {
		total := result.Document.TotalSlides
		body.TotalSlides = &total
	}
	response.Status(c, http.StatusCreated, "file processed", body)
}

// List returns full records by default; view=summary drops slides and metadata.
func (h *DocumentHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	docs, err := h.documents.List(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err, "list documents failed")
		return
	}

	if c.Query("view") != "summary" {
		response.OK(c, gin.H{"documents": docs, "count": len(docs)})
		return
	}

	summaries := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, documentSummary{
			DocumentID:       d.DocumentID,
			OriginalFilename: d.OriginalFilename,
			FileType:         d.FileType,
			UploadTimestamp:  d.UploadTimestamp,
			TotalSlides:      d.TotalSlides,
		})
	}
	response.OK(c, gin.H{"documents": summaries, "count": len(summaries)})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

// ServeFile streams a stored upload by its generated name.
func (h *DocumentHandler) ServeFile(c *gin.Context) {
	path, err := h.files.Resolve(c.Param("filename"))
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFilename, "invalid file name")
		return
	case errors.Is(err, os.ErrNotExist):
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, "file not found")
		return
	case err != nil:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read file failed")
		return
	}
	c.File(path)
}

func (h *DocumentHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, model.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, model.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
	case model.IsKind(err, model.KindUnsupportedFile):
		response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedFile, err.Error())
	case model.IsKind(err, model.KindParsing):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeParsingFailed, err.Error())
	case model.IsKind(err, model.KindDatabaseConnection):
		h.log.WithError(err).Error(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeDatabase, "database connection error")
	default:
		h.log.WithError(err).Error(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
