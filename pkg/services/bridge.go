package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/jwh1000/Manga2EPUB/pkg/sources"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/time/rate"
)

var (
	ErrListenerDown = errors.New("ingest listener is not reachable")
	ErrNoImages     = errors.New("no page images found")
	ErrIncomplete   = errors.New("chapter is missing pages")
)

// BridgeProgress represents the progress of a chapter sync
type BridgeProgress struct {
	Manga       string
	Chapter     string
	CurrentPage int
	TotalPages  int
	Status      string // "syncing", "saved", "error", "complete"
	Error       error
}

// PageSink receives scraped pages, normally the ingest listener.
type PageSink interface {
	Ping(ctx context.Context) error
	SavePage(ctx context.Context, payload data.PagePayload) error
}

// BridgeOptions tunes pacing and retries.
type BridgeOptions struct {
	RequestsPerSecond float64
	Attempts          uint
	RetryDelay        time.Duration
}

// DefaultBridgeOptions matches the pacing of the reader userscript.
func DefaultBridgeOptions() BridgeOptions {
	return BridgeOptions{RequestsPerSecond: 2, Attempts: 2, RetryDelay: 3 * time.Second}
}

// Bridge copies chapters from a reader site into the ingest listener.
type Bridge struct {
	source       sources.Source
	sink         PageSink
	limiter      *rate.Limiter
	attempts     uint
	retryDelay   time.Duration
	logger       *slog.Logger
	progressChan chan BridgeProgress
	closeOnce    sync.Once
}

func NewBridge(source sources.Source, sink PageSink, opts BridgeOptions, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	return &Bridge{
		source:       source,
		sink:         sink,
		limiter:      rate.NewLimiter(limit, 1),
		attempts:     opts.Attempts,
		retryDelay:   opts.RetryDelay,
		logger:       logger,
		progressChan: make(chan BridgeProgress, 256),
	}
}

// GetProgressChannel returns the channel for receiving sync progress updates
func (b *Bridge) GetProgressChannel() <-chan BridgeProgress {
	return b.progressChan
}

// Run syncs the chapter at startURL and keeps following next-chapter links
// until there are none or maxChapters (when positive) have been synced.
// It returns the number of chapters synced.
func (b *Bridge) Run(ctx context.Context, startURL string, maxChapters int) (int, error) {
	if err := b.sink.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrListenerDown, err)
	}

	visited := make(map[string]bool)
	synced := 0
	next := startURL

	for next != "" && !visited[next] {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		visited[next] = true

		if err := b.limiter.Wait(ctx); err != nil {
			return synced, err
		}
		chapter, err := b.source.FetchChapter(ctx, next)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch chapter %s: %w", next, err)
		}

		if _, err := b.SyncChapter(ctx, chapter); err != nil {
			return synced, err
		}
		synced++

		if maxChapters > 0 && synced >= maxChapters {
			break
		}
		next = chapter.NextURL
	}

	return synced, nil
}

// SyncChapter posts every page of a scraped chapter. Pages that still fail
// after retrying are reported and skipped. It returns the number of pages saved.
func (b *Bridge) SyncChapter(ctx context.Context, chapter *data.RemoteChapter) (int, error) {
	if chapter == nil {
		return 0, fmt.Errorf("chapter cannot be nil")
	}
	total := len(chapter.ImageURLs)
	if total == 0 {
		return 0, fmt.Errorf("%s: %w", chapter.ChapterTitle, ErrNoImages)
	}
	if chapter.ExpectedPages > 0 && total < chapter.ExpectedPages {
		return 0, fmt.Errorf("%s: %w: found %d of %d", chapter.ChapterTitle, ErrIncomplete, total, chapter.ExpectedPages)
	}

	b.sendProgress(BridgeProgress{Manga: chapter.MangaTitle, Chapter: chapter.ChapterTitle, TotalPages: total, Status: "syncing"})

	saved := 0
	for i, imageURL := range chapter.ImageURLs {
		payload := data.PagePayload{
			Manga:    chapter.MangaTitle,
			Chapter:  chapter.ChapterTitle,
			Filename: fmt.Sprintf("Page_%03d", i),
		}

		err := retry.Do(
			func() error {
				return b.transferPage(ctx, imageURL, chapter.URL, payload)
			},
			retry.Attempts(b.attempts),
			retry.Delay(b.retryDelay),
			retry.DelayType(retry.FixedDelay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				b.logger.Warn("retrying page", "chapter", chapter.ChapterTitle, "page", payload.Filename, "attempt", n+1, "error", err)
			}),
		)
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}
		if err != nil {
			b.logger.Error("failed to sync page", "chapter", chapter.ChapterTitle, "page", payload.Filename, "error", err)
			b.sendProgress(BridgeProgress{
				Manga:       chapter.MangaTitle,
				Chapter:     chapter.ChapterTitle,
				CurrentPage: i + 1,
				TotalPages:  total,
				Status:      "error",
				Error:       err,
			})
			continue
		}

		saved++
		b.sendProgress(BridgeProgress{
			Manga:       chapter.MangaTitle,
			Chapter:     chapter.ChapterTitle,
			CurrentPage: i + 1,
			TotalPages:  total,
			Status:      "saved",
		})
	}

	b.sendProgress(BridgeProgress{Manga: chapter.MangaTitle, Chapter: chapter.ChapterTitle, CurrentPage: saved, TotalPages: total, Status: "complete"})
	return saved, nil
}

func (b *Bridge) transferPage(ctx context.Context, imageURL, referer string, payload data.PagePayload) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return retry.Unrecoverable(err)
	}
	img, mediaType, err := b.source.FetchImage(ctx, imageURL, referer)
	if err != nil {
		return err
	}
	payload.ImageData = dataurl.New(img, safeMediaType(mediaType)).String()
	return b.sink.SavePage(ctx, payload)
}

// safeMediaType returns a "type/subtype" string acceptable to dataurl.New.
func safeMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil || strings.Count(mt, "/") != 1 || strings.HasPrefix(mt, "/") || strings.HasSuffix(mt, "/") {
		return "application/octet-stream"
	}
	return mt
}

// sendProgress sends a progress update (non-blocking)
func (b *Bridge) sendProgress(progress BridgeProgress) {
	select {
	case b.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.progressChan) })
}
