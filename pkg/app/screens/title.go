package screens

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwh1000/Manga2EPUB/pkg/app/styles"
)

// TitleScreen asks for the title of the book to pack.
type TitleScreen struct {
	input     textinput.Model
	fallback  string
	value     string
	done      bool
	cancelled bool
}

func NewTitleScreen(fallback string) *TitleScreen {
	ti := textinput.New()
	ti.Placeholder = fallback
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50

	return &TitleScreen{input: ti, fallback: fallback}
}

func (s *TitleScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TitleScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			s.value = strings.TrimSpace(s.input.Value())
			s.done = true
			return s, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			s.cancelled = true
			return s, tea.Quit
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *TitleScreen) View() string {
	if s.done || s.cancelled {
		return ""
	}

	header := styles.TitleStyle.Render("📖 Book title")
	input := styles.FocusedInputStyle.Render(s.input.View())
	help := styles.HelpStyle.Render("enter: confirm • esc: cancel • blank keeps " + s.fallback)

	return lipgloss.JoinVertical(lipgloss.Left, header, input, help) + "\n"
}

// Title returns the entered title, or the fallback when left blank.
func (s *TitleScreen) Title() string {
	if s.value == "" {
		return s.fallback
	}
	return s.value
}

// Cancelled reports whether the prompt was dismissed.
func (s *TitleScreen) Cancelled() bool {
	return s.cancelled
}
