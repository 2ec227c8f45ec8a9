package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/review"
)

// Result is one acquired review ready for rendering.
type Result struct {
	Provider backend.Provider
	Model    string
	Mode     backend.Mode
	// Text is canonical review JSON in line-comment mode and the reply
	// text in discussion mode.
	Text string
}

// payload decodes Text in line-comment mode with comments sorted by
// path then line.
func (r *Result) payload() (review.Payload, error) {
	p, err := review.Parse(r.Text)
	if err != nil {
		return review.Payload{}, err
	}
	sort.SliceStable(p.Comments, func(i, j int) bool {
		a, b := p.Comments[i], p.Comments[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
	return p, nil
}

// Writer writes a result in a specific format.
type Writer interface {
	Write(w io.Writer, res *Result) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json", "":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResult writes the result to the specified output (file path or stdout).
func WriteResult(res *Result, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, res)
}
