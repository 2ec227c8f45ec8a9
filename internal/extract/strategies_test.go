package extract

import (
	"testing"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		raw      *backend.RawResponse
		want     bool
	}{
		{"tool call present", ToolCall{Tool: "t"}, &backend.RawResponse{ToolCalls: []backend.ToolCall{{Name: "x"}}}, true},
		{"tool call absent", ToolCall{Tool: "t"}, textReply("{}"), false},
		{"structured set", StructuredText{}, &backend.RawResponse{OutputText: str("")}, true},
		{"structured unset", StructuredText{}, textReply("{}"), false},
		{"fence", FencedJSON{}, textReply("a\n```json\n{}\n```"), true},
		{"fence without tag", FencedJSON{}, textReply("a\n```\n{}\n```"), false},
		{"whole object", WholeJSON{}, textReply(" {\"a\":1} "), true},
		{"whole array", WholeJSON{}, textReply("[1]"), true},
		{"prose around json", WholeJSON{}, textReply("see {\"a\":1}"), false},
		{"single brace", WholeJSON{}, textReply("{"), false},
		{"plain blocks", PlainText{}, textReply(""), true},
		{"plain nothing", PlainText{}, &backend.RawResponse{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.CanHandle(tt.raw))
		})
	}
}

func TestFencedJSON_TagCaseAndSingleLine(t *testing.T) {
	for name, text := range map[string]string{
		"upper case tag": "Result:\n```JSON\n" + okPayload + "\n```",
		"single line":    "```json " + okPayload + "```",
		"crlf":           "```json\r\n" + okPayload + "\r\n```",
	} {
		t.Run(name, func(t *testing.T) {
			raw := textReply(text)
			assert.True(t, FencedJSON{}.CanHandle(raw))
			got, err := FencedJSON{}.Extract(raw)
			assert.NoError(t, err)
			assert.Equal(t, okPayload, got)
		})
	}
}

func TestToolCall_SkipsUnrelatedCallsBeforeMatch(t *testing.T) {
	raw := &backend.RawResponse{ToolCalls: []backend.ToolCall{
		{Name: "other", Arguments: `{}`},
		{Name: "submit_review", Arguments: okPayload},
	}}
	text, err := ToolCall{Tool: "submit_review"}.Extract(raw)
	assert.NoError(t, err)
	assert.Equal(t, okPayload, text)
}

func TestToolCall_EmptyArguments(t *testing.T) {
	raw := &backend.RawResponse{ToolCalls: []backend.ToolCall{{Name: "submit_review", Arguments: " "}}}
	_, err := ToolCall{Tool: "submit_review"}.Extract(raw)
	assert.ErrorIs(t, err, backend.ErrEmptyOutput)
}

func TestFencedJSON_FirstBlockWins(t *testing.T) {
	raw := textReply("```json\n" + okPayload + "\n```\n```json\n{\"summary\":\"second\",\"comments\":[]}\n```")
	text, err := FencedJSON{}.Extract(raw)
	assert.NoError(t, err)
	assert.Equal(t, okPayload, text)
}
