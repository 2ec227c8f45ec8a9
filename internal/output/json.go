package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/reviewgen/internal/backend"
)

// JSONWriter outputs the canonical review JSON unchanged.
type JSONWriter struct{}

type discussionJSON struct {
	Provider backend.Provider `json:"provider"`
	Model    string           `json:"model"`
	Reply    string           `json:"reply"`
}

func (j *JSONWriter) Write(w io.Writer, res *Result) error {
	if res.Mode == backend.ModeDiscussion {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(discussionJSON{Provider: res.Provider, Model: res.Model, Reply: res.Text}); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	if _, err := io.WriteString(w, res.Text); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err := fmt.Fprintln(w)
	return err
}
