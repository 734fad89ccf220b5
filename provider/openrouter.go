// Package provider provides chat backend implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"drawchat/logger"
)

const (
	openRouterAPIBase      = "https://openrouter.ai/api/v1"
	openRouterDefaultModel = "deepseek/deepseek-chat"
)

func init() {
	Register("openrouter", Registration{
		DefaultModel: openRouterDefaultModel,
		EnvKey:       "OPENROUTER_API_KEY",
		EnvBase:      "OPENROUTER_API_BASE",
		KeyPortalURL: "https://openrouter.ai/keys",
		Constructor: func(opts Options) Provider {
			return NewOpenRouterProvider(opts)
		},
	})
}

// OpenRouterProvider talks to OpenRouter (or any OpenAI-compatible base)
// through the openai-go SDK. SDK retries are disabled so the no-retry
// contract matches the raw providers.
type OpenRouterProvider struct {
	apiKey      string
	modelName   string
	maxTokens   int
	temperature float64
	client      openai.Client
}

// NewOpenRouterProvider creates an OpenRouter provider.
func NewOpenRouterProvider(opts Options) *OpenRouterProvider {
	model := opts.ModelName
	if model == "" {
		model = openRouterDefaultModel
	}
	client := openai.NewClient(
		oaioption.WithAPIKey(opts.APIKey),
		oaioption.WithBaseURL(normalizeSDKBaseURL(opts.APIBase, openRouterAPIBase)),
		oaioption.WithMaxRetries(0),
	)
	return &OpenRouterProvider{
		apiKey:      opts.APIKey,
		modelName:   model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		client:      client,
	}
}

// Chat sends a chat completion request to OpenRouter.
func (p *OpenRouterProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredential
	}

	start := time.Now()
	logger.Info(
		"openrouter request",
		"provider", "openrouter",
		"modelName", p.modelName,
		"messages", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	chatReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.modelName),
		Messages: toOpenAIChatMessages(req.Messages),
	}
	if p.maxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if p.temperature != 0 {
		chatReq.Temperature = openai.Float(p.temperature)
	}

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq)
	if err != nil {
		return nil, mapSDKError(ctx, "openrouter", err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		logger.Error("openrouter response missing content", "provider", "openrouter")
		return nil, ErrMalformedResponse
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"openrouter response",
		"provider", "openrouter",
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"totalTokens", chatResp.Usage.TotalTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}

// toOpenAIChatMessages converts canonical messages to SDK params.
func toOpenAIChatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// mapSDKError converts openai-go failures onto the shared taxonomy.
func mapSDKError(ctx context.Context, name string, err error) error {
	if cerr := ctxError(ctx); cerr != nil {
		logger.Warn(name+" request aborted", "provider", name, "err", cerr)
		return cerr
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		backendErr := &BackendError{
			StatusCode: apiErr.StatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
			Body:       strings.TrimSpace(apiErr.RawJSON()),
		}
		logger.Error(name+" request error", "provider", name, "status", apiErr.StatusCode, "body", backendErr.Body)
		return backendErr
	}
	logger.Error(name+" request send error", "provider", name, "err", err)
	return fmt.Errorf("network failure: %w", err)
}

// normalizeSDKBaseURL trims a configured chat-completions URL down to the
// base the SDK expects (the SDK appends /chat/completions itself).
func normalizeSDKBaseURL(apiBase, defaultBase string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = defaultBase
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return base
}
