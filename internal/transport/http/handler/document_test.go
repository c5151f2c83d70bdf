package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidedeck/internal/app"
	"slidedeck/internal/ingest"
	"slidedeck/internal/model"
	"slidedeck/internal/pkg/logger"
	"slidedeck/internal/storage"
	"slidedeck/internal/transport/http/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDocuments struct {
	uploadResult *ingest.Result
	uploadErr    error
	uploaded     []string
	docs         map[string]*model.Document
	err          error
	listLimits   []int
}

func (f *fakeDocuments) Upload(_ context.Context, input app.UploadInput) (*ingest.Result, error) {
	content, _ := io.ReadAll(input.Body)
	f.uploaded = append(f.uploaded, input.Filename+":"+string(content))
	return f.uploadResult, f.uploadErr
}

func (f *fakeDocuments) Get(_ context.Context, id string) (*model.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocuments) List(_ context.Context, limit int) ([]model.Document, error) {
	f.listLimits = append(f.listLimits, limit)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDocuments) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return model.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

func newTestEngine(t *testing.T, docs *fakeDocuments, maxBytes int64) (*gin.Engine, *storage.Store) {
	t.Helper()
	files, err := storage.New(filepath.Join(t.TempDir(), "uploads"), 0)
	require.NoError(t, err)

	h := NewDocumentHandler(docs, files, maxBytes, logger.Discard())
	r := gin.New()
	r.POST("/upload/", h.Upload)
	r.GET("/documents", h.List)
	r.GET("/documents/:id", h.Get)
	r.DELETE("/documents/:id", h.Delete)
	r.GET("/uploads/:filename", h.ServeFile)
	return r, files
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (response.APIResponse, map[string]any) {
	t.Helper()
	var env response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data, _ := env.Data.(map[string]any)
	return env, data
}

func TestUpload_Queued(t *testing.T) {
	docs := &fakeDocuments{uploadResult: &ingest.Result{Status: ingest.StatusQueued, DocumentID: "doc-1", Filename: "deck.pdf"}}
	r, _ := newTestEngine(t, docs, 1024)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "file", "deck.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	env, data := decode(t, rec)
	assert.Equal(t, response.CodeOK, env.Code)
	assert.Equal(t, "doc-1", data["document_id"])
	assert.Equal(t, "queued", data["status"])
	assert.NotContains(t, data, "total_slides")
	assert.Equal(t, []string{"deck.pdf:%PDF-1.4"}, docs.uploaded)
}

func TestUpload_ProcessedInline(t *testing.T) {
	docs := &fakeDocuments{uploadResult: &ingest.Result{
		Status: ingest.StatusProcessed, DocumentID: "doc-1", Filename: "deck.pdf",
		Document: &model.Document{DocumentID: "doc-1", TotalSlides: 7},
	}}
	r, _ := newTestEngine(t, docs, 1024)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "file", "deck.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, http.StatusCreated, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "processed", data["status"])
	assert.EqualValues(t, 7, data["total_slides"])
}

func TestUpload_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		svcErr   error
		wantCode int
	}{
		{"missing file part", func(t *testing.T) *http.Request { return multipartRequest(t, "", "", nil) }, nil, http.StatusBadRequest},
		{"empty file", func(t *testing.T) *http.Request { return multipartRequest(t, "file", "deck.pdf", nil) }, nil, http.StatusBadRequest},
		{"larger than limit", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "deck.pdf", bytes.Repeat([]byte("x"), 64))
		}, nil, http.StatusRequestEntityTooLarge},
		{"unsupported extension", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "notes.docx", []byte("x"))
		}, model.UnsupportedFile("docx"), http.StatusUnsupportedMediaType},
		{"parse failure", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "deck.pdf", []byte("x"))
		}, model.Parsing("PDF document: bad xref", nil), http.StatusUnprocessableEntity},
		{"database down", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "deck.pdf", []byte("x"))
		}, model.DatabaseConnection("upsert document failed", errors.New("refused")), http.StatusInternalServerError},
		{"too large from service", func(t *testing.T) *http.Request {
			return multipartRequest(t, "file", "deck.pdf", []byte("x"))
		}, model.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestEngine(t, &fakeDocuments{uploadErr: tt.svcErr}, 32)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, tt.req(t))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			env, _ := decode(t, rec)
			assert.NotEqual(t, response.CodeOK, env.Code)
		})
	}
}

func TestGetDocument(t *testing.T) {
	doc := &model.Document{ID: 42, DocumentID: "doc-1", OriginalFilename: "deck.pdf", FileType: model.FileTypePDF, TotalSlides: 1}
	r, _ := newTestEngine(t, &fakeDocuments{docs: map[string]*model.Document{"doc-1": doc}}, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "doc-1", data["document_id"])
	assert.NotContains(t, data, "id", "internal id is never serialized")
	assert.NotContains(t, data, "ID")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env, _ := decode(t, rec)
	assert.Equal(t, response.CodeDocumentNotFound, env.Code)
}

func listFixture() *fakeDocuments {
	return &fakeDocuments{docs: map[string]*model.Document{
		"doc-1": {
			ID:               42,
			DocumentID:       "doc-1",
			OriginalFilename: "deck.pdf",
			FilePath:         "uploads/doc-1.pdf",
			FileType:         model.FileTypePDF,
			TotalSlides:      1,
			Slides:           []model.Slide{{SlideNumber: 1, Title: "Acme", Content: "Acme"}},
			Metadata:         map[string]any{"Author": "Jane"},
			UploadTimestamp:  time.Now().UTC(),
		},
	}}
}

func TestListDocuments_ReturnsFullRecords(t *testing.T) {
	docs := listFixture()
	r, _ := newTestEngine(t, docs, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.EqualValues(t, 1, data["count"])
	list, ok := data["documents"].([]any)
	require.True(t, ok)
	first := list[0].(map[string]any)
	assert.Equal(t, "doc-1", first["document_id"])
	assert.Equal(t, "uploads/doc-1.pdf", first["file_path"])
	assert.Len(t, first["slides"], 1)
	assert.Equal(t, map[string]any{"Author": "Jane"}, first["metadata"])
	assert.NotContains(t, first, "id")
	assert.NotContains(t, first, "ID")
	assert.Equal(t, []int{0}, docs.listLimits)
}

func TestListDocuments_SummaryView(t *testing.T) {
	docs := listFixture()
	r, _ := newTestEngine(t, docs, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents?view=summary&limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	first := data["documents"].([]any)[0].(map[string]any)
	assert.Equal(t, "doc-1", first["document_id"])
	assert.EqualValues(t, 1, first["total_slides"])
	assert.NotContains(t, first, "slides")
	assert.NotContains(t, first, "metadata")
	assert.Equal(t, []int{5}, docs.listLimits)
}

func TestListDocuments_RejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"abc", "-1", "1.5"} {
		docs := listFixture()
		r, _ := newTestEngine(t, docs, 0)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents?limit="+limit, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		env, _ := decode(t, rec)
		assert.Equal(t, response.CodeBadRequest, env.Code)
		assert.Empty(t, docs.listLimits, "service must not be called for limit %q", limit)
	}
}

func TestListDocuments_DatabaseError(t *testing.T) {
	r, _ := newTestEngine(t, &fakeDocuments{err: model.DatabaseConnection("list documents failed", errors.New("gone"))}, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env, _ := decode(t, rec)
	assert.Equal(t, response.CodeDatabase, env.Code)
	assert.Equal(t, "database connection error", env.Message)
}

func TestDeleteDocument(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]*model.Document{"doc-1": {DocumentID: "doc-1"}}}
	r, _ := newTestEngine(t, docs, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, docs.docs)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeFile(t *testing.T) {
	r, files := newTestEngine(t, &fakeDocuments{}, 0)
	stored, err := files.Save(strings.NewReader("%PDF-1.4 body"), "pdf")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+stored.Name, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 body", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/..", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
