package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxLogLines = 500

var logLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray

// LogPane shows the tail of intercepted log output.
type LogPane struct {
	viewport viewport.Model
	lines    []string
}

// NewLogPane creates a log pane.
func NewLogPane() *LogPane {
	vp := viewport.New(0, 0)
	return &LogPane{viewport: vp}
}

func (p *LogPane) Update(msg tea.Msg) (Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case LogLineMsg:
		line := strings.TrimRight(msg.Line, "\n")
		p.lines = append(p.lines, logLineStyle.Render(line))
		if len(p.lines) > maxLogLines {
			p.lines = p.lines[len(p.lines)-maxLogLines:]
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *LogPane) View() string {
	return p.viewport.View()
}

func (p *LogPane) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}
