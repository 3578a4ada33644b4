package components

import (
	"fmt"
	"strings"

	"github.com/jwh1000/Manga2EPUB/pkg/app/styles"
	"github.com/jwh1000/Manga2EPUB/pkg/services"
)

// ChapterLine renders one line for a bridge progress update.
func ChapterLine(progress services.BridgeProgress, width int) string {
	var b strings.Builder

	b.WriteString(styles.TextStyle.Render(progress.Chapter))
	b.WriteString(" ")

	if progress.TotalPages > 0 {
		b.WriteString(renderProgressBar(progress.CurrentPage, progress.TotalPages, width))
		b.WriteString(fmt.Sprintf(" %d/%d ", progress.CurrentPage, progress.TotalPages))
	}

	b.WriteString(styles.StatusStyle(progress.Status).Render(progress.Status))

	if progress.Error != nil {
		b.WriteString(" ")
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
	}

	return b.String()
}

// PackLine renders one line for a pack progress update.
func PackLine(progress services.PackProgress) string {
	status := styles.StatusStyle(progress.Status).Render(fmt.Sprintf("%-8s", progress.Status))

	switch progress.Status {
	case "found":
		return fmt.Sprintf("  %s %s (%d images)", status, progress.Title, progress.Pages)
	case "skipped":
		return fmt.Sprintf("  %s %s %s", status, progress.Chapter, styles.MutedStyle.Render(progress.Detail))
	case "error":
		return fmt.Sprintf("  %s %s: %v", status, progress.Chapter, progress.Error)
	default:
		return fmt.Sprintf("  %s %s", status, progress.Title)
	}
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}
