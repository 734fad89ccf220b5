package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"drawchat/panel"
)

var (
	userMsgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	thinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatTitleStyle = lipgloss.NewStyle().Bold(true)
)

// ChatPanel renders the conversation and owns the message and credential
// inputs. All state transitions go through the shared machine; the panel
// only mirrors widget contents into events.
type ChatPanel struct {
	machine *panel.Machine

	viewport viewport.Model
	input    textinput.Model
	keyInput textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	editingKey    bool
	width, height int

	// render cache, invalidated on conversation or geometry change
	renderedFor renderKey
	rendered    string
}

type renderKey struct {
	messages int
	errText  string
	loading  bool
	width    int
}

// NewChatPanel creates the chat panel bound to the shared machine.
func NewChatPanel(machine *panel.Machine) *ChatPanel {
	vp := viewport.New(0, 0)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "ask about your diagram..."
	ti.Focus()

	ki := textinput.New()
	ki.Prompt = "api key: "
	ki.EchoMode = textinput.EchoPassword
	ki.SetValue(machine.State().Credential)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	return &ChatPanel{
		machine:  machine,
		viewport: vp,
		input:    ti,
		keyInput: ki,
		spin:     sp,
	}
}

func (p *ChatPanel) Update(msg tea.Msg) (Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case spinner.TickMsg:
		if !p.machine.State().Loading {
			return p, nil
		}
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd
	}

	// Remaining messages (cursor blink, paste) go to the focused input
	// and the viewport.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if p.editingKey {
		p.keyInput, cmd = p.keyInput.Update(msg)
	} else {
		p.input, cmd = p.input.Update(msg)
	}
	cmds = append(cmds, cmd)
	p.viewport, cmd = p.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return p, tea.Batch(cmds...)
}

func (p *ChatPanel) handleKey(msg tea.KeyMsg) (Pane, tea.Cmd) {
	if msg.Type == tea.KeyCtrlK {
		p.editingKey = !p.editingKey
		if p.editingKey {
			p.keyInput.SetValue(p.machine.State().Credential)
			p.keyInput.Focus()
			p.input.Blur()
		} else {
			p.keyInput.Blur()
			p.input.Focus()
		}
		return p, nil
	}

	if p.editingKey {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			p.editingKey = false
			p.keyInput.Blur()
			p.input.Focus()
			return p, nil
		}
		before := p.keyInput.Value()
		var cmd tea.Cmd
		p.keyInput, cmd = p.keyInput.Update(msg)
		if v := p.keyInput.Value(); v != before {
			p.machine.Apply(panel.CredentialChanged{Value: v})
		}
		return p, cmd
	}

	if msg.Type == tea.KeyEnter {
		if eff := p.machine.Apply(panel.SendRequested{}); eff != nil {
			// The machine consumed the buffer; mirror the widget.
			p.input.Reset()
			return p, tea.Batch(
				func() tea.Msg { return effectMsg{effect: eff} },
				p.spin.Tick,
			)
		}
		return p, nil
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if v := p.input.Value(); v != before {
		p.machine.Apply(panel.InputChanged{Value: v})
	}
	return p, cmd
}

func (p *ChatPanel) View() string {
	st := p.machine.State()

	p.refreshTranscript(st)

	var b strings.Builder
	b.WriteString(chatTitleStyle.Render("AI Assistant"))
	b.WriteString("\n")
	b.WriteString(p.credentialLine(st))
	b.WriteString("\n")
	b.WriteString(p.viewport.View())
	b.WriteString("\n")
	if p.editingKey {
		b.WriteString(p.keyInput.View())
	} else {
		b.WriteString(p.input.View())
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("~%d tokens · ctrl+k key · ctrl+b collapse", panel.CountTokens(st.Messages))))
	return b.String()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	// title + credential line + input + footer
	p.viewport.Width = width
	p.viewport.Height = max(height-4, 1)
	p.input.Width = max(width-len(p.input.Prompt)-1, 4)
	p.keyInput.Width = max(width-len(p.keyInput.Prompt)-1, 4)
	p.renderer = nil // re-wrap markdown at the new width
}

// refreshTranscript rebuilds the viewport content when the conversation,
// error, or loading state has changed.
func (p *ChatPanel) refreshTranscript(st panel.State) {
	key := renderKey{
		messages: len(st.Messages),
		errText:  st.Err,
		loading:  st.Loading,
		width:    p.width,
	}
	// While loading the spinner frame changes every tick, so skip caching.
	if !st.Loading && key == p.renderedFor && p.rendered != "" {
		return
	}

	var lines []string
	for _, m := range st.Messages {
		switch m.Role {
		case "user":
			lines = append(lines, userMsgStyle.Render("you: "+m.Content))
		case "assistant":
			lines = append(lines, p.renderMarkdown(m.Content))
		default:
			lines = append(lines, thinkingStyle.Render(m.Content))
		}
	}
	if st.Loading {
		lines = append(lines, thinkingStyle.Render(p.spin.View()+"thinking..."))
	}
	if st.Err != "" {
		lines = append(lines, errorStyle.Render(st.Err))
	}

	p.rendered = strings.Join(lines, "\n")
	p.renderedFor = key
	p.viewport.SetContent(p.rendered)
	p.viewport.GotoBottom()
}

// renderMarkdown renders an assistant reply for the terminal, falling
// back to the raw text when glamour is unhappy.
func (p *ChatPanel) renderMarkdown(content string) string {
	if p.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(p.width-2, 20)),
		)
		if err != nil {
			return content
		}
		p.renderer = r
	}
	out, err := p.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (p *ChatPanel) credentialLine(st panel.State) string {
	if st.Credential == "" {
		return errorStyle.Render("no api key set (ctrl+k)")
	}
	return footerStyle.Render("api key " + maskCredential(st.Credential))
}

func maskCredential(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return "****" + v[len(v)-4:]
}
