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
	defaultOpenAIURL = "https://api.openai.com"

	effortDefault = "medium"
	effortRetry   = "low"
)

// OpenAI builds Responses API requests. Line-comment reviews are
// constrained with a strict json_schema text format.
type OpenAI struct {
	apiKey   string
	baseURL  string
	registry *registry.Registry
	exec     *Executor
}

// NewOpenAI creates the OpenAI backend.
func NewOpenAI(opts Options) *OpenAI {
	opts = opts.withDefaults()
	base := opts.BaseURL
	if base == "" {
		base = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(base, "/"),
		registry: opts.Registry,
		exec:     NewExecutor(opts.HTTPClient, opts.MaxAttempts, opts.Logger),
	}
}

func (o *OpenAI) Name() backend.Provider { return backend.ProviderOpenAI }

func (o *OpenAI) Build(req backend.ReviewRequest, opts BuildOptions) (*Payload, error) {
	if o.apiKey == "" {
		return nil, backend.Errorf(backend.ErrMissingCredential, backend.ProviderOpenAI, "no API key configured")
	}
	params := resolveParams(o.registry, req, opts)

	input := []openaiInputItem{{Role: "user", Content: req.Prompt()}}
	if opts.Corrective && req.Mode == backend.ModeDiscussion {
		input = append(input, openaiInputItem{Role: "user", Content: EmptyReplyInstruction})
	}

	body := openaiRequest{
		Model:           req.Model,
		Input:           input,
		Temperature:     ptr(params.Temperature),
		MaxOutputTokens: params.TokenBudget,
	}

	effort := ""
	if req.ThinkingEnabled {
		effort = effortDefault
		if opts.Attempt > 0 {
			effort = effortRetry
		}
		body.Reasoning = &openaiReasoning{Effort: effort}
	}

	if req.Mode == backend.ModeLineComment {
		body.Text = &openaiText{Format: openaiFormat{
			Type:   "json_schema",
			Name:   review.ToolName,
			Schema: review.Schema(),
			Strict: true,
		}}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.apiKey)

	return &Payload{
		Provider:        backend.ProviderOpenAI,
		Model:           req.Model,
		Mode:            req.Mode,
		Attempt:         opts.Attempt,
		Temperature:     params.Temperature,
		TokenBudget:     params.TokenBudget,
		ReasoningEffort: effort,
		Header:          header,
		Body:            body,
	}, nil
}

func (o *OpenAI) Send(ctx context.Context, p *Payload) (*backend.RawResponse, error) {
	data, err := json.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	respBody, err := o.exec.Send(ctx, backend.ProviderOpenAI, o.baseURL+"/v1/responses", p.Header, data)
	if err != nil {
		return nil, err
	}
	raw, err := parseOpenAIResponse(respBody, p.Mode == backend.ModeLineComment)
	if err != nil {
		return nil, backend.Wrap(backend.ErrUnexpectedResponseShape, backend.ProviderOpenAI, "decoding reply", err)
	}
	if raw.Model == "" {
		raw.Model = p.Model
	}
	return raw, nil
}

// parseOpenAIResponse normalizes a Responses API body. When the request
// carried a schema format and the message text is a JSON object, it is
// reported as the flat output field; any other text is kept as content
// blocks so prose-wrapped JSON reaches the fenced and whole-message
// strategies.
func parseOpenAIResponse(body []byte, structured bool) (*backend.RawResponse, error) {
	var result openaiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	raw := &backend.RawResponse{
		Provider: backend.ProviderOpenAI,
		Model:    result.Model,
		Status:   backend.StatusComplete,
		Usage: backend.Usage{
			InputTokens:     result.Usage.InputTokens,
			OutputTokens:    result.Usage.OutputTokens,
			ReasoningTokens: result.Usage.OutputTokensDetails.ReasoningTokens,
			CacheReadTokens: result.Usage.InputTokensDetails.CachedTokens,
		},
		Body: body,
	}

	switch result.Status {
	case "", "completed":
	case "incomplete":
		raw.Status = backend.StatusIncomplete
		raw.Reason = backend.ReasonOther
		if result.IncompleteDetails != nil {
			switch result.IncompleteDetails.Reason {
			case "max_output_tokens":
				raw.Reason = backend.ReasonBudgetExhausted
			case "content_filter":
				raw.Reason = backend.ReasonContentFilter
			}
		}
	default:
		raw.Status = backend.StatusIncomplete
		raw.Reason = backend.ReasonOther
	}

	var (
		text       strings.Builder
		sawMessage bool
	)
	for _, item := range result.Output {
		switch item.Type {
		case "function_call":
			raw.ToolCalls = append(raw.ToolCalls, backend.ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		case "message":
			sawMessage = true
			for _, c := range item.Content {
				if c.Type == "output_text" {
					text.WriteString(c.Text)
				}
			}
		}
	}

	switch {
	case result.OutputText != nil:
		raw.OutputText = result.OutputText
	case sawMessage && structured && strings.HasPrefix(strings.TrimSpace(text.String()), "{"):
		raw.OutputText = ptr(text.String())
	case sawMessage:
		raw.Blocks = []backend.ContentBlock{{Type: "text", Text: text.String()}}
	}
	return raw, nil
}

type openaiRequest struct {
	Model           string            `json:"model"`
	Input           []openaiInputItem `json:"input"`
	Temperature     *float64          `json:"temperature,omitempty"`
	MaxOutputTokens int               `json:"max_output_tokens"`
	Text            *openaiText       `json:"text,omitempty"`
	Reasoning       *openaiReasoning  `json:"reasoning,omitempty"`
}

type openaiInputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiText struct {
	Format openaiFormat `json:"format"`
}

type openaiFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type openaiReasoning struct {
	Effort string `json:"effort"`
}

type openaiResponse struct {
	ID                string                   `json:"id"`
	Model             string                   `json:"model"`
	Status            string                   `json:"status"`
	IncompleteDetails *openaiIncompleteDetails `json:"incomplete_details"`
	OutputText        *string                  `json:"output_text"`
	Output            []openaiOutputItem       `json:"output"`
	Usage             openaiUsage              `json:"usage"`
}

type openaiIncompleteDetails struct {
	Reason string `json:"reason"`
}

type openaiOutputItem struct {
	Type      string                `json:"type"`
	ID        string                `json:"id"`
	CallID    string                `json:"call_id"`
	Name      string                `json:"name"`
	Arguments string                `json:"arguments"`
	Content   []openaiOutputContent `json:"content"`
}

type openaiOutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openaiUsage struct {
	InputTokens         int                       `json:"input_tokens"`
	OutputTokens        int                       `json:"output_tokens"`
	InputTokensDetails  openaiInputTokensDetails  `json:"input_tokens_details"`
	OutputTokensDetails openaiOutputTokensDetails `json:"output_tokens_details"`
}

type openaiInputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type openaiOutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}
