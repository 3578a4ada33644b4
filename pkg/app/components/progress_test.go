package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/jwh1000/Manga2EPUB/pkg/services"
)

func TestRenderProgressBar(t *testing.T) {
	bar := renderProgressBar(5, 10, 20)

	if strings.Count(bar, "█") != 10 {
		t.Errorf("Expected 10 filled cells, got %d", strings.Count(bar, "█"))
	}
	if strings.Count(bar, "░") != 10 {
		t.Errorf("Expected 10 empty cells, got %d", strings.Count(bar, "░"))
	}
}

func TestRenderProgressBarZeroTotal(t *testing.T) {
	if bar := renderProgressBar(0, 0, 20); bar != "" {
		t.Errorf("Expected empty bar for zero total, got %q", bar)
	}
}

func TestRenderProgressBarFull(t *testing.T) {
	bar := renderProgressBar(12, 10, 20)

	if strings.Count(bar, "█") != 20 {
		t.Errorf("Expected bar to be capped at 20, got %d", strings.Count(bar, "█"))
	}
	if strings.Contains(bar, "░") {
		t.Error("Expected no empty cells")
	}
}

func TestChapterLine(t *testing.T) {
	line := ChapterLine(services.BridgeProgress{
		Chapter:     "chapter-3",
		CurrentPage: 2,
		TotalPages:  4,
		Status:      "saved",
	}, 8)

	for _, want := range []string{"chapter-3", "2/4", "saved"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected line to contain %q, got %q", want, line)
		}
	}
}

func TestChapterLineWithError(t *testing.T) {
	line := ChapterLine(services.BridgeProgress{
		Chapter: "chapter-3",
		Status:  "error",
		Error:   errors.New("timeout"),
	}, 8)

	if !strings.Contains(line, "Error: timeout") {
		t.Errorf("Expected error message in line, got %q", line)
	}
	if strings.Contains(line, "█") || strings.Contains(line, "░") {
		t.Error("Expected no bar without a page total")
	}
}

func TestPackLine(t *testing.T) {
	tests := []struct {
		progress services.PackProgress
		want     string
	}{
		{services.PackProgress{Status: "found", Title: "Chapter 1", Pages: 12}, "(12 images)"},
		{services.PackProgress{Status: "skipped", Chapter: "Chapter_2", Detail: "files present: [a.txt]"}, "a.txt"},
		{services.PackProgress{Status: "error", Chapter: "Chapter_3", Error: errors.New("denied")}, "denied"},
		{services.PackProgress{Status: "writing", Title: "Book"}, "Book"},
	}

	for _, tt := range tests {
		if line := PackLine(tt.progress); !strings.Contains(line, tt.want) {
			t.Errorf("Expected %q in %q", tt.want, line)
		}
	}
}
