package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"slidedeck/internal/model"
	"slidedeck/internal/pkg/pdfextract"
)

var chartKeywords = regexp.MustCompile(`(?i)chart|graph|figure|diagram`)

// PDFParser treats every page as one slide.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Parse(path string) (result *Extraction, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, model.Parsing("file not found: "+path, nil)
	}

	// The pdf reader panics on malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = model.Parsing("malformed pdf", fmt.Errorf("%v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, model.Parsing("open pdf failed", err)
	}
	defer f.Close()

	pageCount := reader.NumPage()
	slides := make([]model.Slide, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		text, err := pdfextract.PageText(page)
		if err != nil {
			return nil, model.Parsing(fmt.Sprintf("page %d", i), err)
		}
		slides = append(slides, pdfSlide(i, text, pdfextract.PageHasImage(page)))
	}

	return newExtraction(slides, pdfextract.InfoMetadata(reader)), nil
}

func pdfSlide(number int, text string, hasImages bool) model.Slide {
	return model.Slide{
		SlideNumber: number,
		Title:       model.TruncateTitle(firstLine(text)),
		Content:     strings.TrimSpace(text),
		HasImages:   hasImages,
		HasCharts:   chartKeywords.MatchString(text),
	}
}

// firstLine returns the first line of text that is not blank, trimmed.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
