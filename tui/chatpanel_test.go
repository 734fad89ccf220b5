package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"

	"drawchat/panel"
)

func TestBlinkReachesFocusedInput(t *testing.T) {
	p := NewChatPanel(panel.NewMachine(&panel.MemoryStore{Value: "sk-test"}))
	p.SetSize(45, 30)

	// textinput.Blink produces the cursor's initial blink message; the
	// focused input must see it and re-arm the blink timer.
	_, cmd := p.Update(textinput.Blink())
	if cmd == nil {
		t.Error("message input never re-armed its cursor blink")
	}
}
