package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
)

var pageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// IsPageImage checks if a file has one of the page image extensions
func IsPageImage(filename string) bool {
	return pageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ListChapters returns the immediate subdirectories of root as chapters,
// ordered by chapter key.
func ListChapters(root string) ([]*data.Chapter, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}

	var chapters []*data.Chapter
	for _, entry := range entries {
		if !isDir(root, entry) {
			continue
		}
		chapters = append(chapters, data.NewChapter(entry.Name(), filepath.Join(root, entry.Name())))
	}

	SortChapters(chapters)
	return chapters, nil
}

// SortChapters orders chapters by (number, sub), then folder name.
func SortChapters(chapters []*data.Chapter) {
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Less(chapters[j])
	})
}

// ListPages collects the page images of a chapter directory. With recursive
// set, the whole subtree is searched.
func ListPages(dir string, recursive bool) ([]data.Page, error) {
	var pages []data.Page

	if recursive {
		// WalkDir does not descend into a symlinked root.
		walkRoot, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve chapter directory: %w", err)
		}
		err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsPageImage(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return err
			}
			pages = append(pages, newPage(filepath.Join(dir, rel)))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk chapter directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsPageImage(entry.Name()) {
				pages = append(pages, newPage(filepath.Join(dir, entry.Name())))
			}
		}
	}

	SortPages(pages)
	return pages, nil
}

// SortPages orders pages by page number, then name, then path.
func SortPages(pages []data.Page) {
	sort.Slice(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
}

// SampleFiles returns up to n file names found directly in dir. It is used
// to explain why a chapter had no usable pages.
func SampleFiles(dir string, n int) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if len(names) == n {
			break
		}
		names = append(names, entry.Name())
	}
	return names
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func newPage(path string) data.Page {
	name := filepath.Base(path)
	return data.Page{
		Path:   path,
		Name:   name,
		Number: data.PageNumber(name),
	}
}
