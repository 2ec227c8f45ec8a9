package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/registry"
	"github.com/dshills/reviewgen/internal/review"
)

const (
	anthropicBaseURL       = "https://api.anthropic.com"
	anthropicAPIVersion    = "2023-06-01"
	anthropicExtendedBeta  = "context-1m-2025-08-07"
	anthropicMinThinking   = 1024
	anthropicThinkingShare = 2
)

// Anthropic builds Messages API requests. Line-comment reviews force the
// submit_review tool; discussion replies are plain text.
type Anthropic struct {
	apiKey          string
	baseURL         string
	extendedContext bool
	registry        *registry.Registry
	exec            *Executor
}

// NewAnthropic creates the Anthropic backend.
func NewAnthropic(opts Options) *Anthropic {
	opts = opts.withDefaults()
	base := opts.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	return &Anthropic{
		apiKey:          opts.APIKey,
		baseURL:         strings.TrimRight(base, "/"),
		extendedContext: opts.ExtendedContext,
		registry:        opts.Registry,
		exec:            NewExecutor(opts.HTTPClient, opts.MaxAttempts, opts.Logger),
	}
}

func (a *Anthropic) Name() backend.Provider { return backend.ProviderAnthropic }

// thinkingBudget returns the budget_tokens to request, or 0 when the
// output budget cannot hold the minimum thinking allowance.
func thinkingBudget(maxTokens int) int {
	b := maxTokens / anthropicThinkingShare
	if b < anthropicMinThinking || b >= maxTokens {
		return 0
	}
	return b
}

func (a *Anthropic) Build(req backend.ReviewRequest, opts BuildOptions) (*Payload, error) {
	if a.apiKey == "" {
		return nil, backend.Errorf(backend.ErrMissingCredential, backend.ProviderAnthropic, "no API key configured")
	}
	params := resolveParams(a.registry, req, opts)

	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: params.TokenBudget,
	}

	stable := req.StableSegments()
	dynamic := req.DynamicPrompt()
	if len(stable) > 0 && strings.TrimSpace(dynamic) != "" {
		for _, s := range stable {
			body.System = append(body.System, anthropicTextBlock{Type: "text", Text: s})
		}
		body.System[len(body.System)-1].CacheControl = &anthropicCacheControl{Type: "ephemeral"}
	} else {
		dynamic = req.Prompt()
	}

	user := []anthropicTextBlock{{Type: "text", Text: dynamic}}
	if opts.Corrective && req.Mode == backend.ModeDiscussion {
		user = append(user, anthropicTextBlock{Type: "text", Text: EmptyReplyInstruction})
	}
	body.Messages = []anthropicMessage{{Role: "user", Content: user}}

	thinking := 0
	if req.ThinkingEnabled {
		thinking = thinkingBudget(params.TokenBudget)
	}
	if thinking > 0 {
		body.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: thinking}
	}
	body.Temperature = ptr(params.Temperature)

	if req.Mode == backend.ModeLineComment {
		body.Tools = []anthropicTool{{
			Name:        review.ToolName,
			Description: review.ToolDescription,
			InputSchema: review.Schema(),
		}}
		if thinking > 0 {
			// Forced tool choice is rejected alongside extended thinking.
			body.ToolChoice = &anthropicToolChoice{Type: "auto"}
		} else {
			body.ToolChoice = &anthropicToolChoice{Type: "tool", Name: review.ToolName}
		}
	}

	header := http.Header{}
	header.Set("x-api-key", a.apiKey)
	header.Set("anthropic-version", anthropicAPIVersion)
	if a.extendedContext {
		header.Set("anthropic-beta", anthropicExtendedBeta)
	}

	return &Payload{
		Provider:       backend.ProviderAnthropic,
		Model:          req.Model,
		Mode:           req.Mode,
		Attempt:        opts.Attempt,
		Temperature:    params.Temperature,
		TokenBudget:    params.TokenBudget,
		ThinkingBudget: thinking,
		Header:         header,
		Body:           body,
	}, nil
}

func (a *Anthropic) Send(ctx context.Context, p *Payload) (*backend.RawResponse, error) {
	data, err := json.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	respBody, err := a.exec.Send(ctx, backend.ProviderAnthropic, a.baseURL+"/v1/messages", p.Header, data)
	if err != nil {
		return nil, err
	}
	raw, err := parseAnthropicResponse(respBody)
	if err != nil {
		return nil, backend.Wrap(backend.ErrUnexpectedResponseShape, backend.ProviderAnthropic, "decoding reply", err)
	}
	if raw.Model == "" {
		raw.Model = p.Model
	}
	return raw, nil
}

func parseAnthropicResponse(body []byte) (*backend.RawResponse, error) {
	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	raw := &backend.RawResponse{
		Provider: backend.ProviderAnthropic,
		Model:    result.Model,
		Status:   backend.StatusComplete,
		Usage: backend.Usage{
			InputTokens:      result.Usage.InputTokens,
			OutputTokens:     result.Usage.OutputTokens,
			CacheReadTokens:  result.Usage.CacheReadInputTokens,
			CacheWriteTokens: result.Usage.CacheCreationInputTokens,
		},
		Body: body,
	}

	switch result.StopReason {
	case "max_tokens":
		raw.Status, raw.Reason = backend.StatusIncomplete, backend.ReasonBudgetExhausted
	case "refusal":
		raw.Status, raw.Reason = backend.StatusIncomplete, backend.ReasonContentFilter
	case "pause_turn":
		raw.Status, raw.Reason = backend.StatusIncomplete, backend.ReasonOther
	}

	for _, block := range result.Content {
		switch block.Type {
		case "tool_use":
			raw.ToolCalls = append(raw.ToolCalls, backend.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		case "text":
			raw.Blocks = append(raw.Blocks, backend.ContentBlock{Type: "text", Text: block.Text})
		case "thinking":
			raw.Blocks = append(raw.Blocks, backend.ContentBlock{Type: "thinking", Text: block.Thinking})
		case "redacted_thinking":
			raw.Blocks = append(raw.Blocks, backend.ContentBlock{Type: "redacted_thinking"})
		}
	}
	return raw, nil
}

type anthropicRequest struct {
	Model       string               `json:"model"`
	MaxTokens   int                  `json:"max_tokens"`
	System      []anthropicTextBlock `json:"system,omitempty"`
	Messages    []anthropicMessage   `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
	Thinking    *anthropicThinking   `json:"thinking,omitempty"`
}

type anthropicTextBlock struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text"`
	CacheControl *anthropicCacheControl `json:"cache_control,omitempty"`
}

type anthropicCacheControl struct {
	Type string `json:"type"`
}

type anthropicMessage struct {
	Role    string               `json:"role"`
	Content []anthropicTextBlock `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Model      string           `json:"model"`
	StopReason string           `json:"stop_reason"`
	Content    []anthropicBlock `json:"content"`
	Usage      anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

type anthropicUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}
