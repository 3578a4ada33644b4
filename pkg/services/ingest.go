package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/jwh1000/Manga2EPUB/pkg/integrations"
	"github.com/vincent-petithory/dataurl"
)

const (
	DefaultManga    = "Unknown_Manga"
	DefaultChapter  = "Unknown_Chapter"
	DefaultFilename = "page"
)

var (
	ErrEmptyPayload = errors.New("image_data is empty")
	ErrUnsafePath   = errors.New("path escapes the base directory")
)

// PageStore writes incoming page images under <base>/<manga>/<chapter>.
// Saves are serialized; a second save of the same name overwrites the first.
type PageStore struct {
	baseDir    string
	classifier integrations.Classifier
	logger     *slog.Logger
	mu         sync.Mutex
}

func NewPageStore(baseDir string, classifier integrations.Classifier, logger *slog.Logger) *PageStore {
	if classifier == nil {
		classifier = integrations.NewImageSniffer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageStore{baseDir: baseDir, classifier: classifier, logger: logger}
}

// BaseDir returns the directory pages are written under.
func (s *PageStore) BaseDir() string {
	return s.baseDir
}

// Save decodes the payload, sniffs its format and writes it to disk.
func (s *PageStore) Save(payload data.PagePayload) (*data.StoredPage, error) {
	manga := valueOr(payload.Manga, DefaultManga)
	chapter := valueOr(payload.Chapter, DefaultChapter)

	raw, err := DecodePayload(payload.ImageData)
	if err != nil {
		return nil, err
	}

	class := s.classifier.Classify(raw)
	if !class.Sniffed {
		s.logger.Debug("image format not recognised, using fallback", "format", class.Format)
	}

	dir, err := s.chapterDir(manga, chapter)
	if err != nil {
		return nil, err
	}
	filename := baseFilename(payload.Filename) + class.Extension()
	path := filepath.Join(dir, filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chapter directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return nil, fmt.Errorf("failed to write page: %w", err)
	}

	s.logger.Info("saved page", "manga", manga, "chapter", chapter, "file", filename, "bytes", len(raw))

	return &data.StoredPage{
		Manga:    manga,
		Chapter:  chapter,
		Filename: filename,
		Path:     path,
		Format:   string(class.Format),
		Sniffed:  class.Sniffed,
		Size:     len(raw),
	}, nil
}

func (s *PageStore) chapterDir(manga, chapter string) (string, error) {
	if filepath.IsAbs(manga) || filepath.IsAbs(chapter) {
		return "", ErrUnsafePath
	}
	dir := filepath.Join(s.baseDir, manga, chapter)
	rel, err := filepath.Rel(s.baseDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	return dir, nil
}

// DecodePayload turns a base64 string, optionally carrying a data URI
// header, into raw bytes.
func DecodePayload(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if du, err := dataurl.DecodeString(encoded); err == nil && len(du.Data) > 0 {
			return du.Data, nil
		}
	}
	if _, after, found := strings.Cut(encoded, ","); found {
		encoded = strings.TrimSpace(after)
	}
	if encoded == "" {
		return nil, ErrEmptyPayload
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	return raw, nil
}

// baseFilename strips directories and any extension from a caller supplied name.
func baseFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return DefaultFilename
	}
	return name
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
