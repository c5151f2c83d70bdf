// Package ingest moves an uploaded file from disk to a stored document,
// either through the processing queue or inline when the queue is unavailable.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProcessingMessage is the queue payload; it carries everything a consumer
// needs to parse and store an upload.
type ProcessingMessage struct {
	DocumentID       string `json:"document_id"`
	FilePath         string `json:"file_path"`
	OriginalFilename string `json:"original_filename"`
	FileExtension    string `json:"file_extension"`
}

func (m ProcessingMessage) Validate() error {
	var missing []string
	if strings.TrimSpace(m.DocumentID) == "" {
		missing = append(missing, "document_id")
	}
	if strings.TrimSpace(m.FilePath) == "" {
		missing = append(missing, "file_path")
	}
	if strings.TrimSpace(m.FileExtension) == "" {
		missing = append(missing, "file_extension")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidMessage, strings.Join(missing, ", "))
	}
	return nil
}

var ErrInvalidMessage = errors.New("invalid processing message")

// Publisher hands a message to the processing queue. Any error means the
// message was not accepted and the caller should process inline.
type Publisher interface {
	Publish(ctx context.Context, msg ProcessingMessage) error
}
