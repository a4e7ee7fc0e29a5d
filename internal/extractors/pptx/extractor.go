// Package pptx extracts slide text and speaker notes from PowerPoint
// presentations, one page per slide.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	presentationPart = "ppt/presentation.xml"
	notesRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX documents.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pptx"}
}

// Extract returns one page per slide in presentation order. Each page is
// the text of every shape joined by newlines, followed by the speaker
// notes when present.
func (e *Extractor) Extract(_ context.Context, filePath string) ([]domain.Page, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}
	defer reader.Close()

	pkg := newPackage(reader.File)

	slides, err := pkg.slideOrder()
	if err != nil {
		return nil, err
	}

	pages := make([]domain.Page, 0, len(slides))
	for i, slidePath := range slides {
		text, err := pkg.slideText(slidePath)
		if err != nil {
			return nil, err
		}
		pages = append(pages, domain.NewPage(i+1, text))
	}
	return pages, nil
}

// pkg indexes the parts of an OPC package by name.
type pkg struct {
	parts map[string]*zip.File
}

func newPackage(files []*zip.File) *pkg {
	parts := make(map[string]*zip.File, len(files))
	for _, f := range files {
		parts[f.Name] = f
	}
	return &pkg{parts: parts}
}

func (p *pkg) decode(name string, v any) error {
	f, ok := p.parts[name]
	if !ok {
		return fmt.Errorf("pptx part %s missing", name)
	}
	rc, err := ooxml.OpenPart(f)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// relsPath returns the relationships part for a package part.
func relsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// relationships loads the relationships of a part, keyed by ID. A part
// without relationships yields an empty map.
func (p *pkg) relationships(part string) (map[string]relationship, error) {
	name := relsPath(part)
	out := map[string]relationship{}
	if _, ok := p.parts[name]; !ok {
		return out, nil
	}

	var rels relationshipsXML
	if err := p.decode(name, &rels); err != nil {
		return nil, err
	}
	for _, r := range rels.Relationships {
		if strings.HasPrefix(r.Target, "/") {
			r.Target = strings.TrimPrefix(r.Target, "/")
		} else {
			r.Target = path.Clean(path.Join(path.Dir(part), r.Target))
		}
		out[r.ID] = r
	}
	return out, nil
}

// slideOrder lists slide parts in presentation order. Packages without a
// readable slide list fall back to numeric part order.
func (p *pkg) slideOrder() ([]string, error) {
	if _, ok := p.parts[presentationPart]; ok {
		var pres presentationXML
		if err := p.decode(presentationPart, &pres); err != nil {
			return nil, err
		}
		rels, err := p.relationships(presentationPart)
		if err != nil {
			return nil, err
		}

		var ordered []string
		for _, id := range pres.SlideIDs {
			rel, ok := rels[id.RelID]
			if !ok {
				continue
			}
			if _, exists := p.parts[rel.Target]; exists {
				ordered = append(ordered, rel.Target)
			}
		}
		if len(ordered) > 0 {
			return ordered, nil
		}
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for name := range p.parts {
		m := slidePartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{name: name, n: n})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names, nil
}

func (p *pkg) slideText(slidePath string) (string, error) {
	var slide slideXML
	if err := p.decode(slidePath, &slide); err != nil {
		return "", err
	}

	content := make([]string, 0, len(slide.Shapes)+1)
	for _, sp := range slide.Shapes {
		content = append(content, sp.text())
	}

	notes, err := p.notesText(slidePath)
	if err != nil {
		return "", err
	}
	if notes != "" {
		content = append(content, "\n[Notes]: "+notes)
	}

	return strings.Join(content, "\n"), nil
}

// notesText returns the body placeholder text of the slide's notes page.
func (p *pkg) notesText(slidePath string) (string, error) {
	rels, err := p.relationships(slidePath)
	if err != nil {
		return "", err
	}

	for _, rel := range rels {
		if rel.Type != notesRelType {
			continue
		}
		if _, ok := p.parts[rel.Target]; !ok {
			return "", nil
		}

		var notes slideXML
		if err := p.decode(rel.Target, &notes); err != nil {
			return "", err
		}
		for _, sp := range notes.Shapes {
			if sp.Placeholder != nil && sp.Placeholder.Type == "body" {
				return sp.text(), nil
			}
		}
		return "", nil
	}
	return "", nil
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	Relationships []relationship `xml:"Relationship"`
}

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type slideXML struct {
	Shapes []shapeXML `xml:"cSld>spTree>sp"`
}

type shapeXML struct {
	Placeholder *struct {
		Type string `xml:"type,attr"`
	} `xml:"nvSpPr>nvPr>ph"`
	Paragraphs []paragraphXML `xml:"txBody>p"`
}

type paragraphXML struct {
	Items []struct {
		XMLName xml.Name
		Text    string `xml:"t"`
	} `xml:",any"`
}

func (s shapeXML) text() string {
	lines := make([]string, len(s.Paragraphs))
	for i, para := range s.Paragraphs {
		var b strings.Builder
		for _, item := range para.Items {
			switch item.XMLName.Local {
			case "r", "fld":
				b.WriteString(item.Text)
			case "br":
				b.WriteString("\n")
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
