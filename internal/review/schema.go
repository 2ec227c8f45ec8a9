package review

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolName is the function/tool name providers are asked to invoke with the
// review document as arguments.
const ToolName = "submit_review"

// ToolDescription accompanies ToolName in tool declarations.
const ToolDescription = "Submit the code review: an overall summary and a list of line comments."

// SchemaJSON is the review schema. Optional fields are nullable rather than
// absent so the schema satisfies strict structured-output modes, which
// require every property to be listed as required.
const SchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["summary", "comments"],
  "properties": {
    "summary": {"type": "string"},
    "comments": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["path", "line", "start_line", "body", "search_replace_blocks"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "line": {"type": "integer", "minimum": 1},
          "start_line": {"type": ["integer", "null"], "minimum": 1},
          "body": {"type": "string"},
          "search_replace_blocks": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["search", "replace"],
              "properties": {
                "search": {"type": "string"},
                "replace": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// compiled validates against SchemaJSON with the optional fields dropped
// from the required list: the canonical form omits them.
var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(SchemaJSON), &doc); err != nil {
		return nil, err
	}
	item := doc["properties"].(map[string]any)["comments"].(map[string]any)["items"].(map[string]any)
	item["required"] = []any{"path", "line", "body"}
	relaxed, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("review.schema.json", string(relaxed))
})

// wireOnlyDropped are validation keywords strict structured-output modes
// reject. Validate still enforces them locally.
var wireOnlyDropped = []string{"minLength", "minimum"}

// Schema returns a fresh decoded copy of SchemaJSON for embedding in
// provider request bodies, without the keywords in wireOnlyDropped.
func Schema() map[string]any {
	var doc map[string]any
	if err := json.Unmarshal([]byte(SchemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("review schema: %v", err))
	}
	stripKeywords(doc)
	return doc
}

func stripKeywords(v any) {
	switch node := v.(type) {
	case map[string]any:
		for _, k := range wireOnlyDropped {
			delete(node, k)
		}
		for _, child := range node {
			stripKeywords(child)
		}
	case []any:
		for _, child := range node {
			stripKeywords(child)
		}
	}
}

// Validate checks a decoded JSON document against the review schema.
func Validate(doc any) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compiling review schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("review does not match schema: %w", err)
	}
	return nil
}
