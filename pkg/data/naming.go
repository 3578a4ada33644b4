package data

import (
	"regexp"
	"strconv"
	"strings"
)

// UnparsedChapter is the key given to folders that carry no chapter number,
// placing them after every numbered chapter.
const UnparsedChapter = 999999

const titleSeparator = "___"

var (
	chapterPattern = regexp.MustCompile(`(?i)Chapter_(\d+)(?:[_.](\d+))?`)
	digitsPattern  = regexp.MustCompile(`\d+`)
)

// ParseChapterKey extracts (number, sub) from a folder name such as
// Chapter_12, Chapter_12_5 or Chapter_12.5___Title.
func ParseChapterKey(folder string) (number, sub int, ok bool) {
	m := chapterPattern.FindStringSubmatch(folder)
	if m == nil {
		return UnparsedChapter, UnparsedChapter, false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return UnparsedChapter, UnparsedChapter, false
	}
	if m[2] != "" {
		if sub, err = strconv.Atoi(m[2]); err != nil {
			return UnparsedChapter, UnparsedChapter, false
		}
	}
	return number, sub, true
}

// ChapterDisplayTitle returns the part of the folder name before the first
// "___", with underscores turned into spaces.
func ChapterDisplayTitle(folder string) string {
	head, _, _ := strings.Cut(folder, titleSeparator)
	return strings.ReplaceAll(head, "_", " ")
}

// PageNumber returns the first run of digits in name, or 0 when there is none.
func PageNumber(name string) int {
	m := digitsPattern.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// NewChapter builds a Chapter from its folder name and path.
func NewChapter(folder, path string) *Chapter {
	number, sub, ok := ParseChapterKey(folder)
	return &Chapter{
		Folder: folder,
		Path:   path,
		Number: number,
		Sub:    sub,
		Parsed: ok,
		Title:  ChapterDisplayTitle(folder),
	}
}

// Less reports whether c sorts before other: by chapter key, then folder name,
// then path.
func (c *Chapter) Less(other *Chapter) bool {
	if c.Number != other.Number {
		return c.Number < other.Number
	}
	if c.Sub != other.Sub {
		return c.Sub < other.Sub
	}
	if c.Folder != other.Folder {
		return c.Folder < other.Folder
	}
	return c.Path < other.Path
}

// PageCount returns the number of pages collected for the chapter.
func (c *Chapter) PageCount() int {
	return len(c.Pages)
}
