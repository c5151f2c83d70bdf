package parser

import (
	"errors"
	"fmt"
	"strings"

	"slidedeck/internal/model"
)

// Dispatcher selects the parser for a file extension. The set of formats is closed:
// supporting a new one means adding a model.FileType and a case below.
type Dispatcher struct {
	pdf  Parser
	pptx Parser
}

func NewDispatcher(pdf, pptx Parser) *Dispatcher {
	return &Dispatcher{pdf: pdf, pptx: pptx}
}

func DefaultDispatcher() *Dispatcher {
	return NewDispatcher(NewPDFParser(), NewPPTXParser())
}

// SupportedExtensions returns the extensions Dispatch accepts, without dots.
func (d *Dispatcher) SupportedExtensions() []string {
	types := model.SupportedFileTypes()
	exts := make([]string, 0, len(types))
	for _, t := range types {
		exts = append(exts, string(t))
	}
	return exts
}

// Dispatch parses the file at path with the parser registered for extension.
// Unsupported extensions fail before any file access.
func (d *Dispatcher) Dispatch(path, extension string) (*Extraction, error) {
	fileType, ok := model.ParseFileType(extension)
	if !ok {
		return nil, model.UnsupportedFile(extension)
	}

	p := d.parserFor(fileType)
	if p == nil {
		return nil, model.UnsupportedFile(extension)
	}

	result, err := p.Parse(path)
	if err != nil {
		return nil, wrapParseError(fileType, err)
	}
	return result, nil
}

func (d *Dispatcher) parserFor(fileType model.FileType) Parser {
	switch fileType {
	case model.FileTypePDF:
		return d.pdf
	case model.FileTypePPTX:
		return d.pptx
	default:
		return nil
	}
}

// wrapParseError names the format while keeping the underlying cause readable.
func wrapParseError(fileType model.FileType, err error) error {
	cause := err.Error()
	var parseErr *model.Error
	if errors.As(err, &parseErr) && parseErr.Kind == model.KindParsing {
		cause = parseErr.Message
	}
	return &model.Error{
		Kind:    model.KindParsing,
		Message: fmt.Sprintf("%s document: %s", strings.ToUpper(string(fileType)), cause),
		Err:     err,
	}
}
