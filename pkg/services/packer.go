package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/jwh1000/Manga2EPUB/pkg/integrations"
	"github.com/jwh1000/Manga2EPUB/pkg/library"
)

// ErrNoChapters is returned when the root directory holds no chapter folders.
var ErrNoChapters = errors.New("no chapter folders found")

// PackProgress represents the progress of a pack run
type PackProgress struct {
	Chapter string
	Title   string
	Pages   int
	Status  string // "scanning", "found", "skipped", "error", "writing", "complete"
	Error   error
	Detail  string
}

// PackRequest describes one book to compile.
type PackRequest struct {
	RootDir     string
	Title       string
	Author      string
	Language    string
	Description string
	Recursive   bool
}

// Packer scans a chapter tree and hands the sorted pages to the assembler.
type Packer struct {
	assembler    integrations.Assembler
	logger       *slog.Logger
	progressChan chan PackProgress
	closeOnce    sync.Once
}

func NewPacker(assembler integrations.Assembler, logger *slog.Logger) *Packer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Packer{
		assembler:    assembler,
		logger:       logger,
		progressChan: make(chan PackProgress, 256),
	}
}

// GetProgressChannel returns the channel for receiving pack progress updates
func (p *Packer) GetProgressChannel() <-chan PackProgress {
	return p.progressChan
}

// Pack compiles every chapter under req.RootDir into one book.
func (p *Packer) Pack(ctx context.Context, req PackRequest) (*integrations.BuildResult, error) {
	if _, err := os.Stat(req.RootDir); err != nil {
		return nil, fmt.Errorf("root directory %q not found: %w", req.RootDir, err)
	}

	chapters, err := library.ListChapters(req.RootDir)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChapters, req.RootDir)
	}
	p.logger.Info("found chapters", "count", len(chapters), "root", req.RootDir)

	for _, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.collectPages(chapter, req.Recursive)
	}

	manga := &data.Manga{
		Title:       req.Title,
		Author:      req.Author,
		Language:    req.Language,
		Description: req.Description,
	}

	p.sendProgress(PackProgress{Title: req.Title, Status: "writing"})
	result, err := p.assembler.CreateEPub(manga, chapters)
	if err != nil {
		if errors.Is(err, integrations.ErrNoPages) {
			return nil, fmt.Errorf("nothing to pack: %w", err)
		}
		return nil, fmt.Errorf("failed to build EPub: %w", err)
	}

	if _, err := os.Stat(result.Path); err != nil {
		p.logger.Warn("output file missing after write", "path", result.Path, "error", err)
	}

	p.sendProgress(PackProgress{Title: req.Title, Pages: result.Pages, Status: "complete", Detail: result.Path})
	return result, nil
}

// collectPages fills chapter.Pages. Failures skip the chapter.
func (p *Packer) collectPages(chapter *data.Chapter, recursive bool) {
	p.sendProgress(PackProgress{Chapter: chapter.Folder, Title: chapter.Title, Status: "scanning"})

	pages, err := library.ListPages(chapter.Path, recursive)
	if err != nil {
		p.logger.Error("failed to list pages", "chapter", chapter.Folder, "error", err)
		p.sendProgress(PackProgress{Chapter: chapter.Folder, Title: chapter.Title, Status: "error", Error: err})
		return
	}

	if len(pages) == 0 {
		sample := library.SampleFiles(chapter.Path, 3)
		p.logger.Warn("no images in chapter, skipping", "chapter", chapter.Folder, "files", sample)
		p.sendProgress(PackProgress{
			Chapter: chapter.Folder,
			Title:   chapter.Title,
			Status:  "skipped",
			Detail:  fmt.Sprintf("files present: %v", sample),
		})
		return
	}

	chapter.Pages = pages
	p.sendProgress(PackProgress{Chapter: chapter.Folder, Title: chapter.Title, Pages: chapter.PageCount(), Status: "found"})
}

// sendProgress sends a progress update (non-blocking)
func (p *Packer) sendProgress(progress PackProgress) {
	select {
	case p.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel
func (p *Packer) Close() {
	p.closeOnce.Do(func() { close(p.progressChan) })
}
