// Package provider provides chat backend implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"drawchat/logger"
)

const (
	anthropicDefaultModel     = "claude-sonnet-4-5"
	anthropicDefaultMaxTokens = 8192
)

func init() {
	Register("anthropic", Registration{
		DefaultModel: anthropicDefaultModel,
		EnvKey:       "ANTHROPIC_API_KEY",
		EnvBase:      "ANTHROPIC_API_BASE",
		KeyPortalURL: "https://console.anthropic.com",
		Constructor: func(opts Options) Provider {
			return NewAnthropicProvider(opts)
		},
	})
}

// AnthropicProvider talks to the Anthropic Messages API. System messages
// are lifted into the system prompt since the Messages API keeps them out
// of the turn list.
type AnthropicProvider struct {
	apiKey      string
	modelName   string
	maxTokens   int
	temperature float64
	client      anthropic.Client
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(opts Options) *AnthropicProvider {
	model := opts.ModelName
	if model == "" {
		model = anthropicDefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	clientOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(opts.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.APIBase); base != "" {
		clientOpts = append(clientOpts, anthropicoption.WithBaseURL(base))
	}

	return &AnthropicProvider{
		apiKey:      opts.APIKey,
		modelName:   model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		client:      anthropic.NewClient(clientOpts...),
	}
}

// Chat sends a request to the Anthropic Messages API.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredential
	}

	start := time.Now()
	logger.Info(
		"anthropic request",
		"provider", "anthropic",
		"modelName", p.modelName,
		"messages", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelName),
		MaxTokens: int64(p.maxTokens),
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}
	if p.temperature != 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(ctx, err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		logger.Error("anthropic response missing content", "provider", "anthropic")
		return nil, ErrMalformedResponse
	}

	usage := Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	logger.Info(
		"anthropic response",
		"provider", "anthropic",
		"modelName", p.modelName,
		"stopReason", msg.StopReason,
		"promptTokens", usage.PromptTokens,
		"completionTokens", usage.CompletionTokens,
		"outputChars", content.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{Content: content.String(), Usage: usage}, nil
}

func mapAnthropicError(ctx context.Context, err error) error {
	if cerr := ctxError(ctx); cerr != nil {
		logger.Warn("anthropic request aborted", "provider", "anthropic", "err", cerr)
		return cerr
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		backendErr := &BackendError{
			StatusCode: apiErr.StatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
			Body:       strings.TrimSpace(apiErr.RawJSON()),
		}
		logger.Error("anthropic request error", "provider", "anthropic", "status", apiErr.StatusCode, "body", backendErr.Body)
		return backendErr
	}
	logger.Error("anthropic request send error", "provider", "anthropic", "err", err)
	return fmt.Errorf("network failure: %w", err)
}
