package engine

import (
	"context"
	"errors"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/providers"
	"github.com/dshills/reviewgen/internal/registry"
)

// scriptedBackend replays canned replies in order and records every
// payload it was asked to build and send.
type scriptedBackend struct {
	name     backend.Provider
	replies  []*backend.RawResponse
	sendErr  error
	buildErr error
	built    []*providers.Payload
	sent     int
}

func (s *scriptedBackend) Name() backend.Provider { return s.name }

func (s *scriptedBackend) Build(req backend.ReviewRequest, opts providers.BuildOptions) (*providers.Payload, error) {
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	params := registry.Default().Resolve(req.Provider, req.Model, req.ThinkingEnabled)
	if opts.TokenBudget > 0 {
		params.TokenBudget = opts.TokenBudget
	}
	p := &providers.Payload{
		Provider:    s.name,
		Model:       req.Model,
		Mode:        req.Mode,
		Attempt:     opts.Attempt,
		Temperature: params.Temperature,
		TokenBudget: params.TokenBudget,
		Body:        opts,
	}
	s.built = append(s.built, p)
	return p, nil
}

func (s *scriptedBackend) Send(_ context.Context, _ *providers.Payload) (*backend.RawResponse, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if s.sent >= len(s.replies) {
		return nil, errors.New("scriptedBackend: no reply left")
	}
	r := s.replies[s.sent]
	s.sent++
	return r, nil
}

func str(s string) *string { return &s }

func toolReply(args string) *backend.RawResponse {
	return &backend.RawResponse{
		Status:    backend.StatusComplete,
		ToolCalls: []backend.ToolCall{{ID: "call_1", Name: "submit_review", Arguments: args}},
	}
}

func textReply(text string) *backend.RawResponse {
	return &backend.RawResponse{
		Status: backend.StatusComplete,
		Blocks: []backend.ContentBlock{{Type: "text", Text: text}},
	}
}

func exhaustedReply() *backend.RawResponse {
	return &backend.RawResponse{
		Status: backend.StatusIncomplete,
		Reason: backend.ReasonBudgetExhausted,
		Blocks: []backend.ContentBlock{{Type: "thinking", Text: "reasoning..."}},
	}
}

func emptyReply() *backend.RawResponse {
	return &backend.RawResponse{Status: backend.StatusComplete}
}
