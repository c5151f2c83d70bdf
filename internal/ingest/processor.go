package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"slidedeck/internal/model"
	"slidedeck/internal/parser"
)

type Dispatcher interface {
	Dispatch(path, extension string) (*parser.Extraction, error)
}

type DocumentStore interface {
	Upsert(ctx context.Context, doc *model.Document) error
}

type FileRemover interface {
	Remove(path string) error
}

// ErrInterrupted means processing stopped because its context ended. The raw
// file is left in place so the work can be retried.
var ErrInterrupted = errors.New("document processing interrupted")

// Processor parses and stores one upload. It is shared by the inline path
// and the queue consumer so both apply the same cleanup rule: the raw file
// is removed on any failure and kept on success. An interrupted run is not
// a failure of the document and keeps the file.
type Processor struct {
	dispatcher Dispatcher
	store      DocumentStore
	files      FileRemover
	log        *logrus.Logger
	now        func() time.Time
}

func NewProcessor(dispatcher Dispatcher, store DocumentStore, files FileRemover, log *logrus.Logger) *Processor {
	return &Processor{
		dispatcher: dispatcher,
		store:      store,
		files:      files,
		log:        log,
		now:        time.Now,
	}
}

func (p *Processor) Process(ctx context.Context, msg ProcessingMessage) (*model.Document, error) {
	entry := p.log.WithFields(logrus.Fields{
		"document_id": msg.DocumentID,
		"extension":   msg.FileExtension,
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	doc, err := p.build(msg)
	if err == nil {
		err = p.store.Upsert(ctx, doc)
	}
	if err != nil && interrupted(ctx, err) {
		entry.WithError(err).Warn("document processing interrupted, raw file kept")
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	if err != nil {
		entry.WithError(err).WithField("state", StateFailed).Warn("document processing failed")
		if rmErr := p.files.Remove(msg.FilePath); rmErr != nil {
			entry.WithError(rmErr).Error("remove raw file failed")
		}
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"state":        StateStored,
		"total_slides": doc.TotalSlides,
	}).Info("document stored")
	return doc, nil
}

func (p *Processor) build(msg ProcessingMessage) (*model.Document, error) {
	extraction, err := p.dispatcher.Dispatch(msg.FilePath, msg.FileExtension)
	if err != nil {
		return nil, err
	}
	fileType, ok := model.ParseFileType(msg.FileExtension)
	if !ok {
		return nil, model.UnsupportedFile(msg.FileExtension)
	}

	doc, err := model.NewDocument(model.NewDocumentInput{
		DocumentID:       msg.DocumentID,
		OriginalFilename: msg.OriginalFilename,
		FilePath:         msg.FilePath,
		FileType:         fileType,
		Slides:           extraction.Slides,
		Metadata:         extraction.Metadata,
		UploadTimestamp:  p.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("build document failed: %w", err)
	}
	return doc, nil
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
