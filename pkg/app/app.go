package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwh1000/Manga2EPUB/pkg/app/screens"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user dismisses the prompt.
var ErrCancelled = errors.New("prompt cancelled")

// PromptTitle asks for a book title. Terminals get an interactive text
// input; other readers are read line by line. A blank answer yields fallback.
func PromptTitle(in io.Reader, out io.Writer, fallback string) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return runTitleScreen(f, out, fallback)
	}
	return readTitleLine(in, out, fallback)
}

func runTitleScreen(in *os.File, out io.Writer, fallback string) (string, error) {
	model := screens.NewTitleScreen(fallback)
	p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return "", fmt.Errorf("title prompt failed: %w", err)
	}
	if model.Cancelled() {
		return "", ErrCancelled
	}
	return model.Title(), nil
}

func readTitleLine(in io.Reader, out io.Writer, fallback string) (string, error) {
	fmt.Fprintf(out, "Enter Manga Title (default: %s): ", fallback)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read title: %w", err)
	}

	title := strings.TrimSpace(line)
	if title == "" {
		return fallback, nil
	}
	return title, nil
}
