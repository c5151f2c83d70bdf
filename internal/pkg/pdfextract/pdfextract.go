package pdfextract

import (
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxFormDepth bounds recursion through nested form XObjects.
const maxFormDepth = 4

// lineTolerance is the vertical distance, in points, within which glyphs
// belong to the same line.
const lineTolerance = 2.0

// PageText returns the plain text of a single page, one line per visual
// row. Line breaks follow glyph positions, so Td/TD/T* moves inside one
// text object start a new line just like separate text objects do.
// Returns empty string and nil error for pages without a content stream.
func PageText(page pdf.Page) (text string, err error) {
	if page.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("extract page text failed: %v", r)
		}
	}()
	return layoutLines(page.Content().Text), nil
}

// layoutLines joins glyphs in content-stream order. A vertical move starts
// a new line; a horizontal jump wider than a quarter em inserts a space.
func layoutLines(glyphs []pdf.Text) string {
	var (
		b       strings.Builder
		lineY   float64
		endX    float64
		started bool
	)
	for _, g := range glyphs {
		if g.S == "" || g.S == "\n" || g.S == "\r" {
			continue
		}
		switch {
		case !started:
			started = true
		case math.Abs(g.Y-lineY) > lineTolerance:
			b.WriteByte('\n')
		case g.X-endX > wordGap(g.FontSize):
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		lineY = g.Y
		endX = g.X + g.W
	}
	return b.String()
}

func wordGap(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return fontSize / 4
}

// PageHasImage reports whether the page resources reference an image XObject,
// directly or through a form XObject.
func PageHasImage(page pdf.Page) bool {
	if page.V.IsNull() {
		return false
	}
	return resourcesHaveImage(page.Resources(), 0)
}

func resourcesHaveImage(resources pdf.Value, depth int) bool {
	xobjects := resources.Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return false
	}
	for _, name := range xobjects.Keys() {
		xobj := xobjects.Key(name)
		switch xobj.Key("Subtype").Name() {
		case "Image":
			return true
		case "Form":
			if depth < maxFormDepth && resourcesHaveImage(xobj.Key("Resources"), depth+1) {
				return true
			}
		}
	}
	return false
}

// InfoMetadata flattens the trailer Info dictionary into scalar values.
// Key names never carry the leading name marker; empty values are skipped.
func InfoMetadata(r *pdf.Reader) map[string]any {
	info := r.Trailer().Key("Info")
	out := make(map[string]any)
	if info.Kind() != pdf.Dict {
		return out
	}
	for _, key := range info.Keys() {
		name := strings.TrimPrefix(key, "/")
		if name == "" {
			continue
		}
		value := info.Key(key)
		switch value.Kind() {
		case pdf.String:
			if text := strings.TrimSpace(value.Text()); text != "" {
				out[name] = text
			}
		case pdf.Name:
			if n := value.Name(); n != "" {
				out[name] = n
			}
		case pdf.Integer:
			out[name] = value.Int64()
		case pdf.Real:
			out[name] = value.Float64()
		case pdf.Bool:
			out[name] = value.Bool()
		}
	}
	return out
}
