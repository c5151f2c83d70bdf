// Package parser turns stored presentation files into the canonical slide shape.
package parser

import "slidedeck/internal/model"

// Parser extracts slides and document metadata from one file format.
// Implementations fail with a model.KindParsing error.
type Parser interface {
	Parse(path string) (*Extraction, error)
}

// Extraction is the format-independent result of a parse.
type Extraction struct {
	TotalSlides int
	Slides      []model.Slide
	Metadata    map[string]any
}

func newExtraction(slides []model.Slide, metadata map[string]any) *Extraction {
	if slides == nil {
		slides = []model.Slide{}
	}
	return &Extraction{
		TotalSlides: len(slides),
		Slides:      slides,
		Metadata:    map[string]any(model.CompactMetadata(metadata)),
	}
}
