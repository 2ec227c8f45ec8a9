package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
)

// MarkdownWriter outputs a PR-comment-friendly markdown review.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *Result) error {
	ew := &errWriter{w: w}
	if res.Mode == backend.ModeDiscussion {
		ew.println(res.Text)
		return ew.err
	}

	p, err := res.payload()
	if err != nil {
		return err
	}

	ew.printf("## Code Review\n\n")
	ew.printf("%s\n\n", p.Summary)

	if len(p.Comments) == 0 {
		ew.println("No line comments. :white_check_mark:")
		return ew.err
	}

	current := ""
	for _, c := range p.Comments {
		if c.Path != current {
			current = c.Path
			ew.printf("### `%s`\n\n", c.Path)
		}
		ew.printf("**%s**\n\n", mdLines(c.StartLine, c.Line))
		ew.printf("%s\n\n", c.Body)

		lang := inferLang(c.Path)
		for _, b := range c.SearchReplaceBlocks {
			ew.printf("<details>\n<summary>Suggested change</summary>\n\n")
			ew.printf("```%s\n%s\n```\n\nreplace with\n\n```%s\n%s\n```\n\n</details>\n\n", lang, b.Search, lang, b.Replace)
		}
		ew.printf("---\n\n")
	}

	ew.printf("*%d comment(s) from %s/%s*\n", len(p.Comments), res.Provider, res.Model)
	return ew.err
}

var langMap = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "hcl",
}

func inferLang(path string) string {
	return langMap[strings.ToLower(filepath.Ext(path))]
}

func mdLines(start *int, line int) string {
	if start != nil && *start != line {
		return fmt.Sprintf("Lines %d-%d", *start, line)
	}
	return fmt.Sprintf("Line %d", line)
}
