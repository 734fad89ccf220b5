// Package provider provides chat backend implementations.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/sjson"

	"drawchat/logger"
)

const (
	deepSeekAPIURL       = "https://api.deepseek.com/chat/completions"
	deepSeekDefaultModel = "deepseek-chat"
)

func init() {
	Register("deepseek", Registration{
		DefaultModel: deepSeekDefaultModel,
		EnvKey:       "DEEPSEEK_API_KEY",
		EnvBase:      "DEEPSEEK_API_BASE",
		KeyPortalURL: "https://platform.deepseek.com",
		Constructor: func(opts Options) Provider {
			return NewDeepSeekProvider(opts)
		},
	})
}

// DeepSeekProvider talks to the DeepSeek chat completions API over plain
// HTTP. No retries and no streaming: the full reply comes back in one
// response.
type DeepSeekProvider struct {
	apiKey     string
	apiBase    string
	modelName  string
	maxTokens  int
	extraBody  map[string]any
	httpClient *http.Client
}

// NewDeepSeekProvider creates a DeepSeek provider.
func NewDeepSeekProvider(opts Options) *DeepSeekProvider {
	base := opts.APIBase
	if base == "" {
		base = deepSeekAPIURL
	}
	model := opts.ModelName
	if model == "" {
		model = deepSeekDefaultModel
	}
	return &DeepSeekProvider{
		apiKey:     opts.APIKey,
		apiBase:    base,
		modelName:  model,
		maxTokens:  opts.MaxTokens,
		extraBody:  opts.ExtraBody,
		httpClient: &http.Client{},
	}
}

// deepSeekRequest is the request body for the chat completions endpoint.
type deepSeekRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// deepSeekResponse is the chat completions response.
type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Chat sends the conversation to DeepSeek and returns the assistant reply.
func (p *DeepSeekProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredential
	}

	start := time.Now()
	logger.Info(
		"deepseek request",
		"provider", "deepseek",
		"modelName", p.modelName,
		"messages", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	body, err := json.Marshal(deepSeekRequest{
		Model:     p.modelName,
		Messages:  req.Messages,
		Stream:    false,
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	for path, value := range p.extraBody {
		body, err = sjson.SetBytes(body, path, value)
		if err != nil {
			return nil, fmt.Errorf("failed to apply extra body field %q: %w", path, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if cerr := ctxError(ctx); cerr != nil {
			logger.Warn("deepseek request aborted", "provider", "deepseek", "err", cerr)
			return nil, cerr
		}
		logger.Error("deepseek request send error", "provider", "deepseek", "err", err)
		return nil, fmt.Errorf("network failure: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Body read is best-effort; a read failure is not escalated.
		raw, _ := io.ReadAll(httpResp.Body)
		backendErr := &BackendError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       string(bytes.TrimSpace(raw)),
		}
		logger.Error("deepseek request error",
			"provider", "deepseek",
			"status", httpResp.StatusCode,
			"body", backendErr.Body,
		)
		return nil, backendErr
	}

	var parsed deepSeekResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		logger.Error("deepseek response parse error", "provider", "deepseek", "err", err)
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		logger.Error("deepseek response missing content", "provider", "deepseek")
		return nil, ErrMalformedResponse
	}

	logger.Info(
		"deepseek response",
		"provider", "deepseek",
		"modelName", p.modelName,
		"finishReason", parsed.Choices[0].FinishReason,
		"promptTokens", parsed.Usage.PromptTokens,
		"completionTokens", parsed.Usage.CompletionTokens,
		"totalTokens", parsed.Usage.TotalTokens,
		"outputChars", len(parsed.Choices[0].Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: parsed.Choices[0].Message.Content,
		Usage:   parsed.Usage,
	}, nil
}
