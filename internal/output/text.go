package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.Bold)
	pathColor   = color.New(color.FgCyan)
	removeColor = color.New(color.FgRed)
	addColor    = color.New(color.FgGreen)
)

// TextWriter outputs a human-readable text review.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, res *Result) error {
	ew := &errWriter{w: w}

	if res.Mode == backend.ModeDiscussion {
		ew.println(res.Text)
		return ew.err
	}

	p, err := res.payload()
	if err != nil {
		return err
	}

	ew.println(headerColor.Sprintf("Code Review (%s/%s)", res.Provider, res.Model))
	ew.println(strings.Repeat("─", 60))
	for _, line := range wrapText(p.Summary, 70) {
		ew.println(line)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Comments: %d\n", len(p.Comments))

	if len(p.Comments) == 0 {
		ew.println("\nNo line comments.")
		return ew.err
	}

	for _, c := range p.Comments {
		ew.printf("\n  %s\n", pathColor.Sprint(location(c.Path, c.StartLine, c.Line)))
		for _, line := range wrapText(c.Body, 70) {
			ew.printf("    %s\n", line)
		}
		for _, b := range c.SearchReplaceBlocks {
			ew.println("  Suggested change:")
			for _, line := range strings.Split(b.Search, "\n") {
				ew.printf("    %s\n", removeColor.Sprint("- "+line))
			}
			for _, line := range strings.Split(b.Replace, "\n") {
				ew.printf("    %s\n", addColor.Sprint("+ "+line))
			}
		}
	}
	return ew.err
}

func location(path string, start *int, line int) string {
	if start != nil && *start != line {
		return fmt.Sprintf("%s:%d-%d", path, *start, line)
	}
	return fmt.Sprintf("%s:%d", path, line)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
