package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"slidedeck/internal/model"
)

// State is the lifecycle position of an upload, used in log fields.
type State string

const (
	StateReceived       State = "received"
	StateQueued         State = "queued"
	StateProcessingSync State = "processing_sync"
	StateProcessing     State = "processing"
	StateStored         State = "stored"
	StateRejected       State = "rejected"
	StateFailed         State = "failed"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusProcessed Status = "processed"
)

// Upload is a file that has already been written to the upload directory.
type Upload struct {
	DocumentID       string
	FilePath         string
	OriginalFilename string
	Extension        string
}

type Result struct {
	Status     Status
	DocumentID string
	Filename   string
	// Document is set only when the upload was processed inline.
	Document *model.Document
}

type Pipeline struct {
	publisher      Publisher
	processor      *Processor
	files          FileRemover
	log            *logrus.Logger
	publishTimeout time.Duration
}

// NewPipeline wires the ingestion path. publisher may be nil, in which case
// every upload is processed inline.
func NewPipeline(publisher Publisher, processor *Processor, files FileRemover, log *logrus.Logger, publishTimeout time.Duration) *Pipeline {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &Pipeline{
		publisher:      publisher,
		processor:      processor,
		files:          files,
		log:            log,
		publishTimeout: publishTimeout,
	}
}

// Ingest enqueues the upload for background processing. If the queue does
// not accept it, the upload is processed before returning.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*Result, error) {
	entry := p.log.WithFields(logrus.Fields{
		"document_id": up.DocumentID,
		"filename":    up.OriginalFilename,
	})
	entry.WithField("state", StateReceived).Debug("upload received")

	if _, ok := model.ParseFileType(up.Extension); !ok {
		entry.WithField("state", StateRejected).Warn("unsupported upload rejected")
		if err := p.files.Remove(up.FilePath); err != nil {
			entry.WithError(err).Error("remove rejected upload failed")
		}
		return nil, model.UnsupportedFile(up.Extension)
	}

	msg := ProcessingMessage{
		DocumentID:       up.DocumentID,
		FilePath:         up.FilePath,
		OriginalFilename: up.OriginalFilename,
		FileExtension:    up.Extension,
	}

	if err := p.enqueue(ctx, msg); err != nil {
		entry.WithError(err).WithField("state", StateProcessingSync).Warn("queue unavailable, processing inline")
	} else {
		entry.WithField("state", StateQueued).Info("upload queued")
		return &Result{Status: StatusQueued, DocumentID: up.DocumentID, Filename: up.OriginalFilename}, nil
	}

	doc, err := p.processor.Process(ctx, msg)
	if errors.Is(err, ErrInterrupted) {
		// No queued message will retry an inline upload.
		if rmErr := p.files.Remove(up.FilePath); rmErr != nil {
			entry.WithError(rmErr).Error("remove interrupted upload failed")
		}
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:     StatusProcessed,
		DocumentID: up.DocumentID,
		Filename:   up.OriginalFilename,
		Document:   doc,
	}, nil
}

func (p *Pipeline) enqueue(ctx context.Context, msg ProcessingMessage) error {
	if p.publisher == nil {
		return errNoPublisher
	}
	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()
	return p.publisher.Publish(publishCtx, msg)
}

var errNoPublisher = errors.New("no queue publisher configured")
