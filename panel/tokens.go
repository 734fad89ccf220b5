package panel

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"drawchat/provider"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens estimates the token footprint of the conversation using the
// cl100k vocabulary. An approximation for the footer display, not a
// billing-accurate count; returns 0 if the tokenizer is unavailable.
func CountTokens(messages []provider.Message) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return 0
	}

	total := 0
	for _, m := range messages {
		n, err := codec.Count(m.Content)
		if err != nil {
			continue
		}
		// Per-message wrapping overhead (role tag and separators).
		total += n + 4
	}
	return total
}
