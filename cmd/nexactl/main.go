package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nexa/internal/gateway/app"
	"nexa/internal/gateway/config"
	"nexa/internal/llm"
	"nexa/internal/observability"
	"nexa/internal/pipeline"
)

var (
	outputFormat string
	useFake      bool
	verbose      bool
	showPrompts  bool

	logger *zap.Logger
	client llm.LLMClient
	pipe   *pipeline.Pipeline
)

var rootCmd = &cobra.Command{
	Use:   "nexactl",
	Short: "Run the NEXA product pipeline from the command line",
	Long: `nexactl drives the three NEXA stages locally:

  refine    turn a raw idea into four positioned concepts (A-D)
  spec      build a validated product spec for one concept
  generate  write the full guide from a product spec
  run       all three stages in one go

Configuration is read from the environment and .env, the same way the
gateway reads it (LLM_PROVIDER selects gemini or openai). Pass --fake to use canned model responses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "json" && outputFormat != "yaml" {
			return fmt.Errorf("--output must be json or yaml, got %q", outputFormat)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err = observability.NewLogger(level, "console")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if useFake {
			cfg.LLM.Provider = config.ProviderFake
		}
		client, err = app.NewLLMClient(cmd.Context(), cfg.LLM, logger.Named("llm"), nil, nil)
		if err != nil {
			return err
		}
		pipe = pipeline.New(client, app.StageModels(cfg.LLM), pipeline.WithLogger(logger.Named("pipeline")))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			_ = client.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().BoolVar(&useFake, "fake", false, "use canned model responses instead of the configured provider")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&showPrompts, "show-prompts", false, "print every prompt and response to stderr")

	rootCmd.AddCommand(refineCmd, chooseCmd, specCmd, generateCmd, runCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
