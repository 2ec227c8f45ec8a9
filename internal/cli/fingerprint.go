package cli

import (
	"fmt"
	"os"

	"github.com/dshills/reviewgen/internal/fingerprint"
	"github.com/dshills/reviewgen/internal/redact"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the prompt-cache fingerprint of a stable prefix",
	Long: "Hash the stable prefix files together with the model id. The value matches " +
		"the fingerprint logged with debug.logCacheMetrics.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var texts []string
		for _, path := range flagStableFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading stable file: %w", err)
			}
			text := string(data)
			if !flagNoRedact {
				text = redact.PromptFile(text, path, redact.DefaultPathPatterns)
			}
			texts = append(texts, text)
		}

		fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Hash(texts, cfg.ModelName()))
		return nil
	},
}

func init() {
	fingerprintCmd.Flags().StringSliceVar(&flagStableFiles, "stable", nil, "Stable prefix files (repeatable or comma-separated)")
	fingerprintCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider whose default model applies when --model is unset")
	fingerprintCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	fingerprintCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Hash the files without secret redaction")
}
