package integrations

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/google/uuid"
	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/vincent-petithory/dataurl"
)

// ErrNoPages is returned when none of the chapters contributed a page.
var ErrNoPages = errors.New("no images were collected for the book")

const (
	DefaultAuthor   = "Manga2EPUB"
	DefaultLanguage = "en"
	UntitledBook    = "Untitled_Manga"
)

const pageCSS = `body { margin: 0; padding: 0; background-color: #000; text-align: center; }
div.page { height: 100vh; display: flex; align-items: center; justify-content: center; }
img { height: 100%; max-width: 100%; object-fit: contain; }
`

const xhtmlFolder = "xhtml"

const pageTemplate = `<div class="page"><img src="%s" alt="Page %d"/></div>`

type EPubBuilder struct {
	outputDir string
}

func NewEPubBuilder(outputDir string) *EPubBuilder {
	return &EPubBuilder{outputDir: outputDir}
}

// BuildResult describes a written book.
type BuildResult struct {
	Path     string
	Pages    int
	Chapters int
}

// plannedPage is one page of the spine with its generated internal names.
type plannedPage struct {
	page         data.Page
	index        int
	imageName    string
	sectionName  string
	chapterTitle string // set on the first page of a chapter only
}

type tocEntry struct {
	title       string
	sectionName string
}

// CreateEPub compiles the ordered chapters into a single EPub file. Chapters
// without pages are skipped.
func (b *EPubBuilder) CreateEPub(manga *data.Manga, chapters []*data.Chapter) (*BuildResult, error) {
	if manga == nil {
		return nil, fmt.Errorf("manga cannot be nil")
	}

	plan, toc := planPages(chapters)
	if len(plan) == 0 {
		return nil, ErrNoPages
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	title := manga.Title
	if strings.TrimSpace(title) == "" {
		title = UntitledBook
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return nil, fmt.Errorf("failed to create EPub: %w", err)
	}

	author := valueOr(manga.Author, DefaultAuthor)
	identifier := BookIdentifier(title)

	// Set metadata
	e.SetAuthor(author)
	e.SetLang(valueOr(manga.Language, DefaultLanguage))
	if manga.Description != "" {
		e.SetDescription(manga.Description)
	}
	e.SetIdentifier(identifier)

	cssPath, err := e.AddCSS(dataurl.New([]byte(pageCSS), "text/css").String(), "page.css")
	if err != nil {
		return nil, fmt.Errorf("failed to add stylesheet: %w", err)
	}

	// Contents page goes first in the spine.
	if _, err := e.AddSection(renderContents(toc), "", "contents.xhtml", cssPath); err != nil {
		return nil, fmt.Errorf("failed to add contents page: %w", err)
	}

	for _, p := range plan {
		if err := addPage(e, p, cssPath); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write EPub: %w", err)
	}

	nav := bookNav{
		title:      title,
		author:     author,
		identifier: identifier,
		entries:    toc,
		mediaTypes: make(map[string]string, len(plan)),
	}
	for _, p := range plan {
		nav.mediaTypes[p.imageName] = MediaTypeFor(p.page.Name)
	}

	outputPath := OutputPath(b.outputDir, title)
	if err := writeBook(outputPath, buf.Bytes(), nav); err != nil {
		return nil, err
	}

	return &BuildResult{Path: outputPath, Pages: len(plan), Chapters: len(toc)}, nil
}

// planPages numbers every page with a running counter and records one TOC
// entry per chapter that has pages.
func planPages(chapters []*data.Chapter) ([]plannedPage, []tocEntry) {
	var plan []plannedPage
	var toc []tocEntry
	counter := 0

	for _, chapter := range chapters {
		if chapter == nil || chapter.PageCount() == 0 {
			continue
		}
		for i, page := range chapter.Pages {
			counter++
			p := plannedPage{
				page:        page,
				index:       counter,
				imageName:   fmt.Sprintf("img_%06d%s", counter, strings.ToLower(filepath.Ext(page.Name))),
				sectionName: fmt.Sprintf("page_%06d.xhtml", counter),
			}
			if i == 0 {
				p.chapterTitle = valueOr(chapter.Title, chapter.Folder)
				toc = append(toc, tocEntry{title: p.chapterTitle, sectionName: p.sectionName})
			}
			plan = append(plan, p)
		}
	}

	return plan, toc
}

func writeBook(outputPath string, raw []byte, nav bookNav) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := rewriteArchive(raw, f, nav); err != nil {
		f.Close()
		os.Remove(outputPath)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write EPub: %w", err)
	}
	return nil
}

// addPage embeds one image and its wrapping page document
func addPage(e *epub.Epub, p plannedPage, cssPath string) error {
	raw, err := os.ReadFile(p.page.Path)
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", p.page.Path, err)
	}

	source := dataurl.New(raw, MediaTypeFor(p.page.Name)).String()
	internalPath, err := e.AddImage(source, p.imageName)
	if err != nil {
		return fmt.Errorf("failed to add image %s: %w", p.page.Name, err)
	}

	body := fmt.Sprintf(pageTemplate, internalPath, p.index)
	if _, err := e.AddSection(body, p.chapterTitle, p.sectionName, cssPath); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

func renderContents(toc []tocEntry) string {
	var b strings.Builder
	b.WriteString("<h1>Contents</h1>\n<ol>\n")
	for _, entry := range toc {
		b.WriteString(fmt.Sprintf(`<li><a href="%s">%s</a></li>`+"\n", entry.sectionName, html.EscapeString(entry.title)))
	}
	b.WriteString("</ol>\n")
	return b.String()
}

// MediaTypeFor maps a page filename to the media type used when embedding it.
func MediaTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".webp":
		return "image/webp"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// BookIdentifier derives a stable identifier from the book title.
func BookIdentifier(title string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("manga2epub:"+title)).String()
}

// OutputPath returns where a book with the given title is written.
func OutputPath(dir, title string) string {
	name := sanitizeFilename(title)
	if name == "" {
		name = UntitledBook
	}
	return filepath.Join(dir, name+".epub")
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	// Replace invalid characters with underscores
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	// Trim spaces and dots from ends
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
