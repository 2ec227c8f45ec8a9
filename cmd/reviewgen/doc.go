// Reviewgen acquires code reviews from a language model.
//
// It sends a prompt to OpenAI or Anthropic and prints either a validated
// line-comment payload or a free-form discussion reply. Error kinds map onto
// deterministic exit codes: 0 success, 2 usage, 3 credential, 4 runtime.
//
// Usage:
//
//	git diff | reviewgen review --stable-file GUIDELINES.md
//	reviewgen review --prompt-file prompt.txt --provider anthropic --thinking
//	reviewgen review --prompt-file thread.txt --discussion --format markdown
//	reviewgen fingerprint --model gpt-4.1 --stable GUIDELINES.md
//	reviewgen models doctor --provider openai
package main
