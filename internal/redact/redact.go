package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// DefaultPathPatterns are prompt files never sent verbatim.
var DefaultPathPatterns = []string{"**/.env", "**/*secrets*"}

// secretPatterns are regex heuristics for common secret types. Provider
// key shapes come first so the more specific match wins.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-(?:proj-|svcacct-)?[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`(?i)(secret|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
}

// Secrets replaces detected secrets in text with Placeholder.
func Secrets(text string) string {
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllLiteralString(text, Placeholder)
	}
	return text
}

// MatchesPath reports whether path matches any glob pattern. A leading
// "**/" matches the file name in any directory.
func MatchesPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		if rest, found := strings.CutPrefix(pattern, "**/"); found {
			if ok, err := filepath.Match(rest, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// PromptFile returns the text of a prompt file safe to send: withheld
// entirely when the path matches a pattern, otherwise scrubbed.
func PromptFile(content, path string, patterns []string) string {
	if MatchesPath(path, patterns) {
		return Placeholder + " (" + filepath.Base(path) + " withheld by path policy)\n"
	}
	return Secrets(content)
}
