package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/mend/internal/edit"
	"github.com/sokinpui/mend/internal/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))           // Orange
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Prompt asks for per-file confirmation in a scrollable diff view. It
// implements edit.Confirmer.
type Prompt struct {
	tty *os.File
}

// NewPrompt creates a Prompt. When stdin is a pipe (the response usually
// arrives that way) key input is read from /dev/tty instead.
func NewPrompt() (*Prompt, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return &Prompt{}, nil
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("no terminal available for confirmation, use --yes or --print-diff: %w", err)
	}
	return &Prompt{tty: tty}, nil
}

// Close releases the tty handle, if one was opened.
func (p *Prompt) Close() {
	if p.tty != nil {
		p.tty.Close()
	}
}

// Confirm shows the rendered diff for one file and blocks until the user
// answers. Only an explicit yes applies; q aborts the whole run.
func (p *Prompt) Confirm(path string, decision model.Decision, rendered string) (bool, error) {
	var opts []tea.ProgramOption
	if p.tty != nil {
		opts = append(opts, tea.WithInput(p.tty))
	}

	out, err := tea.NewProgram(newConfirmModel(path, decision, rendered), opts...).Run()
	if err != nil {
		return false, err
	}

	final := out.(confirmModel)
	if final.aborted {
		return false, edit.ErrAborted
	}
	return final.approved, nil
}

// --- Confirmation model ---

type confirmModel struct {
	path     string
	decision model.Decision
	rendered string
	viewport viewport.Model
	ready    bool
	approved bool
	aborted  bool
}

func newConfirmModel(path string, decision model.Decision, rendered string) confirmModel {
	return confirmModel{path: path, decision: decision, rendered: rendered}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - 4
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.rendered)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.approved = true
			return m, tea.Quit
		case "n", "N", "esc":
			return m, tea.Quit
		case "q", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m confirmModel) View() string {
	if !m.ready {
		return ""
	}
	header := headerStyle.Render(fmt.Sprintf("%s %s", m.decision, m.path))
	help := faintStyle.Render("y: apply  n: skip  q: abort  ↑/↓: scroll")
	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), help)
}

// RenderSummary renders a run summary for the terminal.
func RenderSummary(s model.Summary) string {
	var b strings.Builder

	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message))
		b.WriteString("\n")
	}

	section := func(style lipgloss.Style, title string, files []string) {
		if len(files) == 0 {
			return
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		for _, f := range files {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}

	section(successStyle, "Created:", s.Created)
	section(successStyle, "Modified:", s.Modified)
	section(warnStyle, "Skipped:", s.Skipped)
	section(errorStyle, "Failed:", s.Failed)

	if b.Len() == 0 {
		return faintStyle.Render("Nothing to do.") + "\n"
	}
	return b.String()
}
