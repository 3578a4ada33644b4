package integrations

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"path"
	"regexp"
	"strings"
)

const (
	navDocName     = "EPUB/nav.xhtml"
	ncxDocName     = "EPUB/toc.ncx"
	packageDocName = "EPUB/package.opf"
)

// bookNav holds what the navigation documents and manifest are rebuilt from.
type bookNav struct {
	title      string
	author     string
	identifier string
	entries    []tocEntry
	// mediaTypes maps an internal image filename to its manifest media type
	mediaTypes map[string]string
}

// go-epub lists every top-level section in the navigation and sniffs image
// media types itself, so both are rewritten after the book is written.
func rewriteArchive(raw []byte, dst io.Writer, nav bookNav) error {
	r, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("failed to read written EPub: %w", err)
	}

	z := zip.NewWriter(dst)
	for _, f := range r.File {
		var content []byte
		switch f.Name {
		case navDocName:
			content = renderNavDoc(nav)
		case ncxDocName:
			content, err = renderNcxDoc(nav)
		case packageDocName:
			content, err = patchManifest(f, nav.mediaTypes)
		default:
			if err := z.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}
		if err != nil {
			return err
		}

		w, err := z.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := z.Close(); err != nil {
		return fmt.Errorf("failed to finish EPub: %w", err)
	}
	return nil
}

func renderNavDoc(nav bookNav) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	fmt.Fprintf(&b, "  <head>\n    <meta charset=\"utf-8\" />\n    <title>%s</title>\n  </head>\n", html.EscapeString(nav.title))
	b.WriteString("  <body>\n    <nav epub:type=\"toc\">\n      <h1>Table of Contents</h1>\n      <ol>\n")
	for _, entry := range nav.entries {
		fmt.Fprintf(&b, "        <li><a href=\"%s\">%s</a></li>\n",
			path.Join(xhtmlFolder, entry.sectionName), html.EscapeString(entry.title))
	}
	b.WriteString("      </ol>\n    </nav>\n  </body>\n</html>\n")
	return []byte(b.String())
}

type ncxDoc struct {
	XMLName   xml.Name      `xml:"http://www.daisy.org/z3986/2005/ncx/ ncx"`
	Version   string        `xml:"version,attr"`
	Meta      []ncxMeta     `xml:"head>meta"`
	Title     string        `xml:"docTitle>text"`
	Author    string        `xml:"docAuthor>text"`
	NavPoints []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxNavPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     string     `xml:"navLabel>text"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

func renderNcxDoc(nav bookNav) ([]byte, error) {
	doc := ncxDoc{
		Version: "2005-1",
		Meta: []ncxMeta{
			{Name: "dtb:uid", Content: nav.identifier},
			{Name: "dtb:depth", Content: "1"},
		},
		Title:  nav.title,
		Author: nav.author,
	}
	for i, entry := range nav.entries {
		doc.NavPoints = append(doc.NavPoints, ncxNavPoint{
			ID:        fmt.Sprintf("navPoint-%d", i+1),
			PlayOrder: i + 1,
			Label:     entry.title,
			Content:   ncxContent{Src: path.Join(xhtmlFolder, entry.sectionName)},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render toc.ncx: %w", err)
	}
	return append(append([]byte(xml.Header), out...), '\n'), nil
}

var manifestImagePattern = regexp.MustCompile(`href="images/([^"]+)"(\s+)media-type="[^"]*"`)

// patchManifest sets the media type of every embedded image from mediaTypes.
func patchManifest(f *zip.File, mediaTypes map[string]string) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open package document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}

	return manifestImagePattern.ReplaceAllFunc(raw, func(m []byte) []byte {
		sub := manifestImagePattern.FindSubmatch(m)
		mediaType, ok := mediaTypes[string(sub[1])]
		if !ok {
			return m
		}
		return []byte(fmt.Sprintf(`href="images/%s"%smedia-type="%s"`, sub[1], sub[2], mediaType))
	}), nil
}
