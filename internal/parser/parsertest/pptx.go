package parsertest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"
)

const (
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	chartURI        = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	tableURI        = "http://schemas.openxmlformats.org/drawingml/2006/table"
)

// Shape is one top-level element of a slide's shape tree.
type Shape struct {
	xml string
}

// TextShape is an autoshape whose text frame holds one paragraph per argument.
func TextShape(paragraphs ...string) Shape {
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p>`, html.EscapeString(p))
	}
	return Shape{xml: `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Text"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/>` +
		`<p:txBody><a:bodyPr/><a:lstStyle/>` + body.String() + `</p:txBody></p:sp>`}
}

// EmptyShape is an autoshape without text, such as a plain rectangle.
func EmptyShape() Shape {
	return Shape{xml: `<p:sp><p:nvSpPr><p:cNvPr id="3" name="Rectangle"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/></p:sp>`}
}

func Picture() Shape {
	return Shape{xml: `<p:pic><p:nvPicPr><p:cNvPr id="4" name="Picture"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="rId2"/></p:blipFill><p:spPr/></p:pic>`}
}

func Chart() Shape {
	return graphicFrame(chartURI, `<c:chart xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart" r:id="rId3"/>`)
}

func Table(cell string) Shape {
	return graphicFrame(tableURI, `<a:tbl><a:tr h="0"><a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>`+
		html.EscapeString(cell)+`</a:t></a:r></a:p></a:txBody></a:tc></a:tr></a:tbl>`)
}

func graphicFrame(uri, data string) Shape {
	return Shape{xml: `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="5" name="Frame"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>` +
		`<p:xfrm/><a:graphic><a:graphicData uri="` + uri + `">` + data + `</a:graphicData></a:graphic></p:graphicFrame>`}
}

// CoreProperties renders docProps/core.xml; empty fields are omitted.
type CoreProperties struct {
	Creator        string
	Title          string
	Subject        string
	Created        string
	Modified       string
	Category       string
	Description    string
	Keywords       string
	LastModifiedBy string
	Revision       string
}

func (c CoreProperties) xml() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	field := func(tag, value string) {
		if value != "" {
			fmt.Fprintf(&b, "<%s>%s</%s>", tag, html.EscapeString(value), tag)
		}
	}
	field("dc:title", c.Title)
	field("dc:subject", c.Subject)
	field("dc:creator", c.Creator)
	field("cp:keywords", c.Keywords)
	field("dc:description", c.Description)
	field("cp:lastModifiedBy", c.LastModifiedBy)
	field("cp:revision", c.Revision)
	field("cp:category", c.Category)
	if c.Created != "" {
		fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, c.Created)
	}
	if c.Modified != "" {
		fmt.Fprintf(&b, `<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, c.Modified)
	}
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

// BuildPPTX writes a minimal presentation package. Slides are stored in reverse
// part order so that readers must follow sldIdLst rather than file names.
func BuildPPTX(slides [][]Shape, core *CoreProperties) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	write := func(name, content string) {
		f, _ := w.Create(name)
		_, _ = f.Write([]byte(content))
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="xml" ContentType="application/xml"/></Types>`)

	var ids, rels strings.Builder
	for i := range slides {
		partNumber := len(slides) - i
		relID := fmt.Sprintf("rId%d", i+10)
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="%s"/>`, 256+i, relID)
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="%s/slide" Target="slides/slide%d.xml"/>`, relID, nsRelationships, partNumber)
	}

	write("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<p:presentation xmlns:a="`+nsDrawing+`" xmlns:r="`+nsRelationships+`" xmlns:p="`+nsPresentation+`">`+
		`<p:sldMasterIdLst/><p:sldIdLst>`+ids.String()+`</p:sldIdLst></p:presentation>`)
	write("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels.String()+`</Relationships>`)

	for i, shapes := range slides {
		var tree strings.Builder
		for _, s := range shapes {
			tree.WriteString(s.xml)
		}
		write(fmt.Sprintf("ppt/slides/slide%d.xml", len(slides)-i), `<?xml version="1.0" encoding="UTF-8"?>`+
			`<p:sld xmlns:a="`+nsDrawing+`" xmlns:r="`+nsRelationships+`" xmlns:p="`+nsPresentation+`">`+
			`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`+
			tree.String()+`</p:spTree></p:cSld></p:sld>`)
	}

	if core != nil {
		write("docProps/core.xml", core.xml())
	}

	_ = w.Close()
	return buf.Bytes()
}
