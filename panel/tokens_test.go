package panel

import (
	"testing"

	"drawchat/provider"
)

func TestCountTokensEmptyConversation(t *testing.T) {
	if got := CountTokens(nil); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestCountTokensGrowsWithConversation(t *testing.T) {
	short := CountTokens([]provider.Message{provider.UserMessage("hi")})
	if short == 0 {
		t.Fatal("non-empty conversation should count above zero")
	}
	long := CountTokens([]provider.Message{
		provider.UserMessage("hi"),
		provider.AssistantMessage("draw a flowchart with three decision nodes and a loop back to start"),
	})
	if long <= short {
		t.Errorf("count = %d, want more than %d for the longer conversation", long, short)
	}
}
