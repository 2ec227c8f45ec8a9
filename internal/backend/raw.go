package backend

import "strings"

// Shape tags which response family a RawResponse belongs to.
type Shape int

const (
	// ShapeStatusOnly carries only a completion marker and no output.
	ShapeStatusOnly Shape = iota
	// ShapeToolCall carries at least one tool/function invocation.
	ShapeToolCall
	// ShapeOutputText carries a flat, schema-constrained output text field.
	ShapeOutputText
	// ShapeContentBlocks carries an array of text content blocks.
	ShapeContentBlocks
)

func (s Shape) String() string {
	switch s {
	case ShapeToolCall:
		return "tool_call"
	case ShapeOutputText:
		return "output_text"
	case ShapeContentBlocks:
		return "content_blocks"
	default:
		return "status_only"
	}
}

// Status is the provider's completion marker.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// Reason codes attached to an incomplete status.
const (
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonContentFilter   = "content_filter"
	ReasonOther           = "other"
)

// ToolCall is one structured tool/function invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ContentBlock is one block of a content array. Only text blocks are
// visible; thinking blocks are kept for accounting.
type ContentBlock struct {
	Type string
	Text string
}

// Usage reports token accounting for one provider call.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	ReasoningTokens  int
	CacheReadTokens  int
	CacheWriteTokens int
}

// RawResponse is a provider reply normalized into a tagged union. Adapters
// fill exactly the fields their wire format carries; Shape derives the tag.
type RawResponse struct {
	Provider Provider
	Model    string
	Status   Status
	Reason   string

	ToolCalls  []ToolCall
	OutputText *string
	Blocks     []ContentBlock

	Usage Usage
	Body  []byte
}

// Shape classifies the response. Tool calls win over text because a
// provider may emit a short preamble next to the invocation.
func (r *RawResponse) Shape() Shape {
	switch {
	case len(r.ToolCalls) > 0:
		return ShapeToolCall
	case r.OutputText != nil:
		return ShapeOutputText
	case len(r.Blocks) > 0:
		return ShapeContentBlocks
	default:
		return ShapeStatusOnly
	}
}

// Text returns the visible text: the flat output field if present,
// otherwise the concatenated text blocks.
func (r *RawResponse) Text() string {
	if r.OutputText != nil {
		return *r.OutputText
	}
	var b strings.Builder
	for _, blk := range r.Blocks {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

// HasVisibleOutput reports whether the response carries any tool call or
// non-blank text.
func (r *RawResponse) HasVisibleOutput() bool {
	return len(r.ToolCalls) > 0 || strings.TrimSpace(r.Text()) != ""
}

// TruncatedByBudget reports an incomplete generation caused by the token
// budget running out.
func (r *RawResponse) TruncatedByBudget() bool {
	return r.Status == StatusIncomplete && r.Reason == ReasonBudgetExhausted
}
