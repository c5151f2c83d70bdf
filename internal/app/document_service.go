package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"slidedeck/internal/ingest"
	"slidedeck/internal/model"
	"slidedeck/internal/storage"
)

var ErrInvalidInput = errors.New("invalid input")

type DocumentRepository interface {
	GetByDocumentID(ctx context.Context, documentID string) (*model.Document, error)
	List(ctx context.Context, limit int) ([]model.Document, error)
	Delete(ctx context.Context, documentID string) (bool, error)
}

type DocumentCache interface {
	Get(ctx context.Context, documentID string) (*model.Document, bool, error)
	Set(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, documentID string) error
}

type FileStore interface {
	Save(src io.Reader, ext string) (storage.StoredFile, error)
	Remove(path string) error
}

type UploadValidator interface {
	Validate(path, extension string) error
}

type Ingester interface {
	Ingest(ctx context.Context, up ingest.Upload) (*ingest.Result, error)
}

type UploadInput struct {
	Filename string
	Body     io.Reader
}

// DocumentService is the entry point for uploads and document reads.
// Reads go through the cache first; the cache is filled on a miss and
// never holds negative entries.
type DocumentService struct {
	repo      DocumentRepository
	cache     DocumentCache
	files     FileStore
	validator UploadValidator
	ingester  Ingester
	log       *logrus.Logger
}

func NewDocumentService(
	repo DocumentRepository,
	cache DocumentCache,
	files FileStore,
	validator UploadValidator,
	ingester Ingester,
	log *logrus.Logger,
) *DocumentService {
	return &DocumentService{
		repo:      repo,
		cache:     cache,
		files:     files,
		validator: validator,
		ingester:  ingester,
		log:       log,
	}
}

// Upload stores the body under a generated name and hands it to the
// ingestion pipeline. Unsupported extensions are refused before anything
// is written.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*ingest.Result, error) {
	if input.Body == nil || strings.TrimSpace(input.Filename) == "" {
		return nil, ErrInvalidInput
	}

	filename := storage.SanitizeFilename(input.Filename)
	ext := storage.Extension(filename)
	if _, ok := model.ParseFileType(ext); !ok {
		return nil, model.UnsupportedFile(ext)
	}

	stored, err := s.files.Save(input.Body, ext)
	if err != nil {
		return nil, err
	}

	if s.validator != nil {
		if err := s.validator.Validate(stored.Path, ext); err != nil {
			if rmErr := s.files.Remove(stored.Path); rmErr != nil {
				s.log.WithError(rmErr).WithField("document_id", stored.DocumentID).Error("remove invalid upload failed")
			}
			return nil, err
		}
	}

	return s.ingester.Ingest(ctx, ingest.Upload{
		DocumentID:       stored.DocumentID,
		FilePath:         stored.Path,
		OriginalFilename: filename,
		Extension:        ext,
	})
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (*model.Document, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, ErrInvalidInput
	}
	entry := s.log.WithField("document_id", documentID)

	if s.cache != nil {
		doc, hit, err := s.cache.Get(ctx, documentID)
		if err != nil {
			entry.WithError(err).Warn("document cache read failed")
		} else if hit {
			return doc, nil
		}
	}

	doc, err := s.repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, model.ErrDocumentNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, doc); err != nil {
			entry.WithError(err).Warn("document cache write failed")
		}
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, limit int) ([]model.Document, error) {
	return s.repo.List(ctx, limit)
}

// Delete removes the record, its cache entry and the raw file.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return ErrInvalidInput
	}

	doc, err := s.repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return model.ErrDocumentNotFound
	}

	if _, err := s.repo.Delete(ctx, documentID); err != nil {
		return err
	}

	entry := s.log.WithField("document_id", documentID)
	if s.cache != nil {
		if err := s.cache.Delete(ctx, documentID); err != nil {
			entry.WithError(err).Warn("document cache delete failed")
		}
	}
	if err := s.files.Remove(doc.FilePath); err != nil {
		return fmt.Errorf("delete raw file failed: %w", err)
	}
	entry.Info("document deleted")
	return nil
}
