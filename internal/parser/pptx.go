package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"slidedeck/internal/model"
)

const (
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"
	corePropertiesPart   = "docProps/core.xml"
)

// maxPartBytes caps the inflated size of any single archive part.
var maxPartBytes int64 = 64 << 20

// PPTXParser reads OOXML presentations. Each native slide becomes one slide.
type PPTXParser struct{}

func NewPPTXParser() *PPTXParser {
	return &PPTXParser{}
}

func (p *PPTXParser) Parse(filePath string) (*Extraction, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, model.Parsing("file not found: "+filePath, nil)
	}

	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, model.Parsing("open pptx archive failed", err)
	}
	defer archive.Close()

	parts := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		parts[f.Name] = f
	}

	slidePaths, err := orderedSlideParts(parts)
	if err != nil {
		return nil, model.Parsing("read slide list failed", err)
	}

	slides := make([]model.Slide, 0, len(slidePaths))
	for i, slidePath := range slidePaths {
		var sld slideXML
		if err := decodePart(parts, slidePath, &sld); err != nil {
			return nil, model.Parsing(fmt.Sprintf("slide %d", i+1), err)
		}
		slides = append(slides, sld.toSlide(i+1))
	}

	metadata, err := coreMetadata(parts)
	if err != nil {
		return nil, model.Parsing("read core properties failed", err)
	}

	return newExtraction(slides, metadata), nil
}

type presentationXML struct {
	SlideIDs []struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// orderedSlideParts resolves sldIdLst entries to part names, in presentation order.
func orderedSlideParts(parts map[string]*zip.File) ([]string, error) {
	var pres presentationXML
	if err := decodePart(parts, presentationPart, &pres); err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := decodePart(parts, presentationRelsPart, &rels); err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		targets[rel.ID] = rel.Target
	}

	slidePaths := make([]string, 0, len(pres.SlideIDs))
	for _, sldID := range pres.SlideIDs {
		relID := relationshipID(sldID.Attrs)
		target, ok := targets[relID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %q not found", relID)
		}
		slidePaths = append(slidePaths, resolvePartName("ppt", target))
	}
	return slidePaths, nil
}

// relationshipID picks r:id, whichever relationships namespace the producer used.
func relationshipID(attrs []xml.Attr) string {
	for _, attr := range attrs {
		if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
			return attr.Value
		}
	}
	return ""
}

func resolvePartName(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(baseDir, target))
}

func decodePart(parts map[string]*zip.File, name string, v any) error {
	f, ok := parts[name]
	if !ok {
		return fmt.Errorf("missing part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open part %s failed: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	if err != nil {
		return fmt.Errorf("read part %s failed: %w", name, err)
	}
	if int64(len(content)) > maxPartBytes {
		return fmt.Errorf("part %s exceeds %d bytes", name, maxPartBytes)
	}
	if err := xml.Unmarshal(content, v); err != nil {
		return fmt.Errorf("decode part %s failed: %w", name, err)
	}
	return nil
}

type slideXML struct {
	Tree struct {
		Shapes []shapeXML `xml:",any"`
	} `xml:"cSld>spTree"`
}

type shapeXML struct {
	XMLName xml.Name
	TxBody  *textBodyXML `xml:"txBody"`
	Graphic struct {
		Data struct {
			URI string `xml:"uri,attr"`
		} `xml:"graphicData"`
	} `xml:"graphic"`
}

type textBodyXML struct {
	Paragraphs []struct {
		Items []struct {
			XMLName xml.Name
			Text    string `xml:"t"`
		} `xml:",any"`
	} `xml:"p"`
}

func (s slideXML) toSlide(number int) model.Slide {
	slide := model.Slide{SlideNumber: number}
	var content []string
	for _, shape := range s.Tree.Shapes {
		switch shape.XMLName.Local {
		case "sp":
			text := strings.TrimSpace(shape.TxBody.text())
			if text == "" {
				continue
			}
			if slide.Title == "" {
				slide.Title = model.TruncateTitle(text)
			}
			content = append(content, text)
		case "pic":
			slide.HasImages = true
		case "graphicFrame":
			if isChartURI(shape.Graphic.Data.URI) {
				slide.HasCharts = true
			}
		}
	}
	slide.Content = strings.Join(content, "\n")
	return slide
}

func (b *textBodyXML) text() string {
	if b == nil {
		return ""
	}
	paragraphs := make([]string, 0, len(b.Paragraphs))
	for _, p := range b.Paragraphs {
		var sb strings.Builder
		for _, item := range p.Items {
			switch item.XMLName.Local {
			case "r", "fld":
				sb.WriteString(item.Text)
			case "br":
				sb.WriteString("\n")
			}
		}
		paragraphs = append(paragraphs, sb.String())
	}
	return strings.Join(paragraphs, "\n")
}

func isChartURI(uri string) bool {
	return strings.HasSuffix(uri, "/chart")
}

type corePropertiesXML struct {
	Creator        string `xml:"creator"`
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
	Category       string `xml:"category"`
	Description    string `xml:"description"`
	Keywords       string `xml:"keywords"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Revision       string `xml:"revision"`
}

// coreMetadata reads docProps/core.xml. A package without core properties has no metadata.
func coreMetadata(parts map[string]*zip.File) (map[string]any, error) {
	if _, ok := parts[corePropertiesPart]; !ok {
		return map[string]any{}, nil
	}
	var core corePropertiesXML
	if err := decodePart(parts, corePropertiesPart, &core); err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"author":           strings.TrimSpace(core.Creator),
		"title":            strings.TrimSpace(core.Title),
		"subject":          strings.TrimSpace(core.Subject),
		"created":          isoTimestamp(core.Created),
		"modified":         isoTimestamp(core.Modified),
		"category":         strings.TrimSpace(core.Category),
		"comments":         strings.TrimSpace(core.Description),
		"keywords":         strings.TrimSpace(core.Keywords),
		"last_modified_by": strings.TrimSpace(core.LastModifiedBy),
	}
	if revision := strings.TrimSpace(core.Revision); revision != "" {
		if n, err := strconv.Atoi(revision); err == nil {
			metadata["revision"] = n
		} else {
			metadata["revision"] = revision
		}
	}
	return metadata, nil
}

// isoTimestamp normalizes W3CDTF values to RFC 3339 in UTC; unparseable values pass through.
func isoTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
