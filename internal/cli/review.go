package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/config"
	"github.com/dshills/reviewgen/internal/engine"
	"github.com/dshills/reviewgen/internal/output"
	"github.com/dshills/reviewgen/internal/providers"
	"github.com/dshills/reviewgen/internal/redact"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Review flags
var (
	flagPromptFile  string
	flagStableFiles []string
	flagProvider    string
	flagModel       string
	flagThinking    bool
	flagDiscussion  bool
	flagFormat      string
	flagOut         string
	flagNoRedact    bool
)

// errNoPrompt is returned when neither a prompt file nor piped stdin is given.
var errNoPrompt = errors.New("no prompt: pass --prompt-file or pipe the prompt on stdin")

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPromptFile, "prompt-file", "", "Prompt file (default: stdin)")
	cmd.Flags().StringSliceVar(&flagStableFiles, "stable-file", nil, "Stable prompt prefix files, sent first and cached (repeatable or comma-separated)")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().BoolVar(&flagThinking, "thinking", false, "Enable extended thinking / reasoning")
	cmd.Flags().BoolVar(&flagDiscussion, "discussion", false, "Request a free-form reply instead of line comments")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (json, markdown, text)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagThinking {
		m["thinking"] = "true"
	}
	return m
}

// loadConfig returns the process config with the current flags applied.
func loadConfig() (config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return config.Config{}, err
	}
	for key, value := range buildOverrides() {
		if err := config.SetField(&cfg, key, value); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newDispatcher builds one backend per supported provider from cfg.
func newDispatcher(cfg config.Config, logger *slog.Logger) (*engine.Dispatcher, error) {
	var backends []providers.Backend
	for _, p := range []backend.Provider{backend.ProviderOpenAI, backend.ProviderAnthropic} {
		settings := cfg.ProviderSettings(p)
		b, err := providers.New(p, providers.Options{
			APIKey:          settings.APIKey,
			BaseURL:         settings.BaseURL,
			ExtendedContext: cfg.ExtendedContext,
			MaxAttempts:     cfg.Transport.MaxAttempts,
			Timeout:         time.Duration(cfg.Transport.TimeoutSeconds) * time.Second,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return engine.NewDispatcher(backends...), nil
}

// readPrompt returns the dynamic prompt from the prompt file or stdin.
func readPrompt(stdin *os.File) (string, error) {
	if flagPromptFile != "" && flagPromptFile != "-" {
		data, err := os.ReadFile(flagPromptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt file: %w", err)
		}
		return string(data), nil
	}
	if term.IsTerminal(int(stdin.Fd())) {
		return "", errNoPrompt
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// buildSegments assembles the stable prefix files followed by the dynamic
// prompt, scrubbing secrets unless redaction is disabled.
func buildSegments(prompt string, stableFiles []string, scrub bool) ([]backend.PromptSegment, error) {
	var segs []backend.PromptSegment
	for _, path := range stableFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading stable file: %w", err)
		}
		text := string(data)
		if scrub {
			text = redact.PromptFile(text, path, redact.DefaultPathPatterns)
		}
		segs = append(segs, backend.PromptSegment{Text: text, Stable: true})
	}
	if scrub {
		prompt = redact.Secrets(prompt)
	}
	if strings.TrimSpace(prompt) == "" && len(segs) == 0 {
		return nil, errNoPrompt
	}
	segs = append(segs, backend.PromptSegment{Text: prompt})
	return segs, nil
}

func runReview(ctx context.Context, cfg config.Config, segs []backend.PromptSegment) {
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	provider, _ := cfg.ProviderName()
	mode := backend.ModeLineComment
	if flagDiscussion {
		mode = backend.ModeDiscussion
	}
	req := backend.ReviewRequest{
		Segments:        segs,
		ThinkingEnabled: cfg.Thinking,
		Provider:        provider,
		Model:           cfg.ModelName(),
		Mode:            mode,
	}

	d, err := newDispatcher(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	eng := engine.New(d,
		engine.WithLogger(logger),
		engine.WithRawReplyLogging(cfg.Debug.LogRawReplies),
		engine.WithCacheMetrics(cfg.Debug.LogCacheMetrics),
	)

	text, err := eng.Acquire(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}

	res := &output.Result{Provider: provider, Model: req.Model, Mode: mode, Text: text}
	if err := output.WriteResult(res, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Acquire a review for a prompt",
	Long: "Send a review prompt to the configured provider. Stable files form a cacheable " +
		"prefix; the prompt file (or stdin) is the per-request part.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		prompt, err := readPrompt(os.Stdin)
		if err != nil {
			return err
		}
		segs, err := buildSegments(prompt, flagStableFiles, !flagNoRedact)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		runReview(ctx, cfg, segs)
		return nil
	},
}

func init() {
	addReviewFlags(reviewCmd)
}
