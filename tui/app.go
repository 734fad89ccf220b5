package tui

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"drawchat/diagram"
	"drawchat/logger"
	"drawchat/panel"
	"drawchat/provider"
)

// cellPixels maps terminal columns onto the machine's pixel geometry
// (a typical monospace glyph is 8px wide).
const cellPixels = 8

const collapsedCols = panel.CollapsedWidth / cellPixels

var (
	handleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	handleActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	stripStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logSepStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ChatCaller performs one chat backend round trip for the given
// credential and conversation.
type ChatCaller func(ctx context.Context, credential string, messages []provider.Message) (string, error)

// App is the root model: diagram pane on the left, chat panel fixed to
// its machine-driven width on the right, optional log tail below.
type App struct {
	machine     *panel.Machine
	chat        *ChatPanel
	diagramPane *DiagramPane
	logPane     *LogPane
	host        *diagram.Host
	caller      ChatCaller

	showLogs      bool
	width, height int
}

// NewApp creates the root model. host may be nil when the bridge is
// disabled.
func NewApp(machine *panel.Machine, host *diagram.Host, caller ChatCaller) *App {
	return &App{
		machine:     machine,
		chat:        NewChatPanel(machine),
		diagramPane: NewDiagramPane(host),
		logPane:     NewLogPane(),
		host:        host,
		caller:      caller,
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.host != nil {
		cmds = append(cmds, a.listenHost())
	}
	return tea.Batch(cmds...)
}

// listenHost waits for one host event and re-arms from Update.
func (a *App) listenHost() tea.Cmd {
	events := a.host.Events()
	return func() tea.Msg {
		ev, ok := <-events
		return hostEventMsg{event: ev, ok: ok}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.machine.Apply(panel.ViewportResized{Width: msg.Width * cellPixels})
		a.recalcLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		a.handleMouse(msg)
		return a, nil

	case effectMsg:
		if call, ok := msg.effect.(panel.CallChat); ok {
			return a, a.callChat(call)
		}
		return a, nil

	case sendResultMsg:
		if msg.err != nil {
			a.machine.Apply(panel.SendFailed{Message: msg.err.Error()})
		} else {
			a.machine.Apply(panel.SendSucceeded{Text: msg.text})
		}
		return a, nil

	case hostEventMsg:
		pane, _ := a.diagramPane.Update(msg)
		a.diagramPane = pane.(*DiagramPane)
		if msg.ok {
			return a, a.listenHost()
		}
		return a, nil

	case LogLineMsg:
		pane, cmd := a.logPane.Update(msg)
		a.logPane = pane.(*LogPane)
		return a, cmd
	}

	// Everything else (spinner ticks, blink) belongs to the chat panel.
	pane, cmd := a.chat.Update(msg)
	a.chat = pane.(*ChatPanel)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyCtrlB:
		a.machine.Apply(panel.CollapseToggled{})
		a.recalcLayout()
		return a, nil
	case tea.KeyCtrlL:
		a.showLogs = !a.showLogs
		a.recalcLayout()
		return a, nil
	}
	// While collapsed no chat UI is reachable.
	if a.machine.State().Collapsed {
		return a, nil
	}
	pane, cmd := a.chat.Update(msg)
	a.chat = pane.(*ChatPanel)
	return a, cmd
}

// handleMouse maps pointer input onto the drag sub-machine: press on the
// handle starts a drag, motion moves it, release anywhere ends it.
func (a *App) handleMouse(msg tea.MouseMsg) {
	st := a.machine.State()
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if st.Collapsed {
			// Clicking the collapsed strip expands the panel.
			if msg.X >= a.width-collapsedCols {
				a.machine.Apply(panel.CollapseToggled{})
				a.recalcLayout()
			}
			return
		}
		if msg.X == a.handleCol() {
			a.machine.Apply(panel.DragStarted{})
		}

	case tea.MouseActionMotion:
		if st.Resizing {
			a.machine.Apply(panel.DragMoved{X: msg.X * cellPixels})
			a.recalcLayout()
		}

	case tea.MouseActionRelease:
		a.machine.Apply(panel.DragEnded{})
	}
}

// callChat runs the backend round trip off the event loop; the result
// re-enters as a sendResultMsg.
func (a *App) callChat(call panel.CallChat) tea.Cmd {
	caller := a.caller
	return func() tea.Msg {
		text, err := caller(context.Background(), call.Credential, call.Messages)
		if err != nil {
			return sendResultMsg{err: err}
		}
		return sendResultMsg{text: text}
	}
}

// chatCols converts the machine's pixel width to columns, visually capped
// so the diagram pane keeps some room on narrow terminals. The machine
// state itself is never capped.
func (a *App) chatCols() int {
	st := a.machine.State()
	if st.Collapsed {
		return collapsedCols
	}
	cols := st.Width / cellPixels
	if maxCols := a.width - 24; maxCols > 10 && cols > maxCols {
		cols = maxCols
	}
	return cols
}

// handleCol is the column of the resize handle, between the panes.
func (a *App) handleCol() int {
	return a.width - a.chatCols() - 1
}

func (a *App) mainHeight() int {
	h := a.height
	if a.showLogs {
		h -= logPaneHeight + 1
	}
	return max(h, 2)
}

const logPaneHeight = 8

func (a *App) recalcLayout() {
	mainH := a.mainHeight()
	chatW := a.chatCols()
	a.diagramPane.SetSize(max(a.width-chatW-1, 10), mainH)
	a.chat.SetSize(chatW, mainH)
	a.logPane.SetSize(a.width, logPaneHeight)
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "initializing..."
	}

	st := a.machine.State()
	mainH := a.mainHeight()
	chatW := a.chatCols()

	var right string
	if st.Collapsed {
		right = lipgloss.Place(chatW, mainH, lipgloss.Center, lipgloss.Center, stripStyle.Render("<"))
	} else {
		right = lipgloss.NewStyle().Width(chatW).Height(mainH).Render(a.chat.View())
	}

	style := handleStyle
	if st.Resizing {
		style = handleActiveStyle
	}
	handle := style.Render(strings.TrimRight(strings.Repeat("│\n", mainH), "\n"))

	left := lipgloss.NewStyle().Width(a.width - chatW - 1).Height(mainH).Render(a.diagramPane.View())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, handle, right)

	if !a.showLogs {
		return main
	}
	sep := logSepStyle.Render(strings.Repeat("─", a.width))
	return lipgloss.JoinVertical(lipgloss.Left, main, sep, a.logPane.View())
}

// Run starts the TUI program with the logger redirected into the log
// pane for the duration.
func Run(machine *panel.Machine, host *diagram.Host, caller ChatCaller) error {
	app := NewApp(machine, host, caller)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion())

	logger.Intercept(newLogWriter(program.Send))
	defer logger.Restore()

	_, err := program.Run()
	return err
}

// logWriter forwards intercepted log lines to the TUI as LogLineMsgs.
// Write never blocks: program.Send waits on the event loop, and a log
// call made from inside Update would otherwise deadlock the loop on its
// own output. Lines go through a buffered channel drained by a separate
// goroutine; overflow is dropped.
type logWriter struct {
	lines chan string
}

func newLogWriter(send func(tea.Msg)) *logWriter {
	w := &logWriter{lines: make(chan string, 256)}
	go func() {
		for line := range w.lines {
			send(LogLineMsg{Line: line})
		}
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}
