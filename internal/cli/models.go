package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/dshills/reviewgen/internal/config"
	"github.com/dshills/reviewgen/internal/engine"
	"github.com/dshills/reviewgen/internal/providers"
	"github.com/dshills/reviewgen/internal/registry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

// listModels prints the generic mapping, then every override grouped by provider.
func listModels(w io.Writer, reg *registry.Registry) {
	d := reg.Defaults()
	fmt.Fprintf(w, "defaults: temperature=%g tokenBudget=%d thinkingMultiplier=%d\n",
		d.Temperature, d.TokenBudget, d.ThinkingMultiplier)

	for _, p := range []backend.Provider{backend.ProviderOpenAI, backend.ProviderAnthropic} {
		fmt.Fprintf(w, "\n%s (default model %s, thinking temperature %g):\n",
			p, config.DefaultModel(p), d.ThinkingTemperature[p])
		for _, o := range reg.Overrides() {
			if o.Provider != p {
				continue
			}
			fmt.Fprintf(w, "  - %s", o.Model)
			if o.Temperature != nil {
				fmt.Fprintf(w, " temperature=%g", *o.Temperature)
			}
			if o.TokenBudget != nil {
				fmt.Fprintf(w, " tokenBudget=%d", *o.TokenBudget)
			}
			fmt.Fprintln(w)
		}
	}
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List model parameter overrides",
	Run: func(cmd *cobra.Command, args []string) {
		listModels(cmd.OutOrStdout(), registry.Default())
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials with a short discussion request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		provider, _ := cfg.ProviderName()
		model := cfg.ModelName()

		ok := color.New(color.FgGreen, color.Bold).SprintFunc()
		fail := color.New(color.FgRed, color.Bold).SprintFunc()

		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", provider, model)

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		d, err := newDispatcher(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", fail("FAIL:"), err)
			exitCode = ExitRuntimeError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		req := backend.NewReviewRequest("Respond with exactly: ok", provider, model, backend.ModeDiscussion, false)
		_, err = engine.New(d, engine.WithLogger(logger)).Acquire(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", fail("FAIL:"), err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "%s %s is configured and responding\n", ok("OK:"), provider)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
