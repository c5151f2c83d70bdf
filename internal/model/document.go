package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
)

const (
	MaxTitleLength = 100
	titleEllipsis  = "..."
)

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypePPTX FileType = "pptx"
)

// SupportedFileTypes lists every format a Document can be built from.
func SupportedFileTypes() []FileType {
	return []FileType{FileTypePDF, FileTypePPTX}
}

// ParseFileType accepts "pdf", ".PDF", "pptx" and so on.
func ParseFileType(ext string) (FileType, bool) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch FileType(normalized) {
	case FileTypePDF:
		return FileTypePDF, true
	case FileTypePPTX:
		return FileTypePPTX, true
	default:
		return "", false
	}
}

type Slide struct {
	SlideNumber int    `json:"slide_number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	HasImages   bool   `json:"has_images"`
	HasCharts   bool   `json:"has_charts"`
}

type Document struct {
	ID               uint                       `gorm:"primaryKey" json:"-"`
	DocumentID       string                     `gorm:"size:64;not null;uniqueIndex" json:"document_id"`
	OriginalFilename string                     `gorm:"size:255;not null" json:"original_filename"`
	FilePath         string                     `gorm:"size:512;not null" json:"file_path"`
	FileType         FileType                   `gorm:"size:8;not null;index" json:"file_type"`
	UploadTimestamp  time.Time                  `gorm:"not null;index" json:"upload_timestamp"`
	TotalSlides      int                        `gorm:"not null" json:"total_slides"`
	Slides           datatypes.JSONSlice[Slide] `json:"slides"`
	Metadata         datatypes.JSONMap          `json:"metadata"`
}

func (Document) TableName() string {
	return "documents"
}

// NewDocumentInput carries everything known about a document once parsing succeeded.
type NewDocumentInput struct {
	DocumentID       string
	OriginalFilename string
	FilePath         string
	FileType         FileType
	Slides           []Slide
	Metadata         map[string]any
	UploadTimestamp  time.Time
}

// NewDocument builds a canonical Document and enforces its invariants.
// A zero UploadTimestamp is replaced by the current UTC time.
func NewDocument(input NewDocumentInput) (*Document, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, fmt.Errorf("document id is empty")
	}
	fileType, ok := ParseFileType(string(input.FileType))
	if !ok {
		return nil, UnsupportedFile(string(input.FileType))
	}
	for i, slide := range input.Slides {
		if slide.SlideNumber != i+1 {
			return nil, fmt.Errorf("slide at index %d has number %d", i, slide.SlideNumber)
		}
	}

	uploadedAt := input.UploadTimestamp
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	slides := make([]Slide, len(input.Slides))
	copy(slides, input.Slides)

	return &Document{
		DocumentID:       input.DocumentID,
		OriginalFilename: input.OriginalFilename,
		FilePath:         input.FilePath,
		FileType:         fileType,
		UploadTimestamp:  uploadedAt.UTC(),
		TotalSlides:      len(slides),
		Slides:           datatypes.NewJSONSlice(slides),
		Metadata:         CompactMetadata(input.Metadata),
	}, nil
}

// CompactMetadata drops nil and blank-string values. The result is never nil.
func CompactMetadata(in map[string]any) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for key, value := range in {
		if key == "" || value == nil {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// TruncateTitle caps a title at MaxTitleLength runes, marking the cut with an ellipsis.
func TruncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	keep := MaxTitleLength - utf8.RuneCountInString(titleEllipsis)
	return string(runes[:keep]) + titleEllipsis
}
