// Package parsertest builds small PDF and PPTX files for tests.
package parsertest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// PDFPage describes one page: each line is drawn in its own text object.
// Stream, when set, replaces the generated content stream verbatim; font
// /F1 is Helvetica.
type PDFPage struct {
	Lines    []string
	HasImage bool
	Stream   string
}

// BuildPDF renders an uncompressed PDF with a classic xref table and an
// optional Info dictionary.
func BuildPDF(pages []PDFPage, info map[string]string) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalogID := add("") // filled once the page tree id is known
	pagesID := add("")
	fontID := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	imageID := add("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\n\x00\nendstream")

	kids := make([]string, 0, len(pages))
	for _, page := range pages {
		var content strings.Builder
		y := 720
		for _, line := range page.Lines {
			fmt.Fprintf(&content, "BT /F1 18 Tf 72 %d Td (%s) Tj ET\n", y, escapePDFString(line))
			y -= 24
		}
		if page.Stream != "" {
			content.Reset()
			content.WriteString(page.Stream)
		}
		contentID := add(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))

		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", fontID)
		if page.HasImage {
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", imageID)
		}
		pageID := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>",
			pagesID, resources, contentID))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objects[catalogID-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID)
	objects[pagesID-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	infoID := 0
	if len(info) > 0 {
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var dict strings.Builder
		dict.WriteString("<<")
		for _, k := range keys {
			fmt.Fprintf(&dict, " /%s (%s)", k, escapePDFString(info[k]))
		}
		dict.WriteString(" >>")
		infoID = add(dict.String())
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", len(objects)+1, catalogID)
	if infoID != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoID)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

// WriteFile stores content under dir and returns its path.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return p
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
