package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"drawchat/diagram"
)

var (
	diagramTitleStyle = lipgloss.NewStyle().Bold(true)
	diagramDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	diagramOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
)

// DiagramPane shows the bridge status for the embedded editor. The editor
// itself renders in the browser; this pane is the in-terminal stand-in.
type DiagramPane struct {
	host          *diagram.Host
	connected     bool
	width, height int
}

// NewDiagramPane creates the diagram status pane.
func NewDiagramPane(host *diagram.Host) *DiagramPane {
	return &DiagramPane{host: host}
}

func (p *DiagramPane) Update(msg tea.Msg) (Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case hostEventMsg:
		if !msg.ok {
			return p, nil
		}
		switch msg.event.Kind {
		case diagram.EditorConnected:
			p.connected = true
		case diagram.EditorDisconnected:
			p.connected = false
		}
		return p, nil
	}
	return p, nil
}

func (p *DiagramPane) View() string {
	var lines []string
	lines = append(lines, diagramTitleStyle.Render("Diagram Editor"))
	lines = append(lines, "")

	if p.host == nil {
		lines = append(lines, diagramDimStyle.Render("bridge disabled"))
	} else {
		lines = append(lines, diagramDimStyle.Render("open in browser:"))
		lines = append(lines, p.host.URL())
		lines = append(lines, "")
		if p.connected {
			lines = append(lines, diagramOKStyle.Render("editor connected"))
		} else {
			lines = append(lines, diagramDimStyle.Render("waiting for editor..."))
		}
		lines = append(lines, diagramDimStyle.Render(fmt.Sprintf("editor messages: %d", p.host.Accepted())))
	}

	body := strings.Join(lines, "\n")
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, body)
}

func (p *DiagramPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}
