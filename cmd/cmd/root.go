package cmd

import (
	"context"
	"fmt"
	"os"

	"newsdive/internal/archive"
	"newsdive/internal/config"
	"newsdive/internal/email"
	"newsdive/internal/enrich"
	"newsdive/internal/feeds"
	"newsdive/internal/finance"
	"newsdive/internal/ledger"
	"newsdive/internal/llm"
	"newsdive/internal/logger"
	"newsdive/internal/pipeline"
	"newsdive/internal/retry"

	"github.com/spf13/cobra"
)

// ledgerFile is the processed-URL ledger kept next to the binary's working
// directory; the archive lives under the configured data dir.
const ledgerFile = "processed_urls.json"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsdive",
	Short: "Newsdive fetches industry news feeds and mails AI-enriched investor reports.",
	Long: `Newsdive polls RSS feeds from industry news sources, enriches each new
article with an AI-generated summary, sentiment and entities, and delivers
daily summaries, weekly trend briefings and company deep-dive memos by email.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsdive.yaml)")
}

// buildPipeline loads configuration and wires the run collaborators.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetLevel(cfg.App.LogLevel, cfg.App.Debug)

	client, err := llm.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	policy := retry.DefaultPolicy().WithAttempts(cfg.Pipeline.MaxRetries)

	return pipeline.New(pipeline.Options{
		Config:   cfg,
		Ledger:   ledger.New(ledgerFile),
		Fetcher:  feeds.NewFetcher(cfg.Feeds),
		Enricher: enrich.NewPool(client, policy, cfg.Pipeline.Concurrency),
		Analyst:  client,
		Finance:  finance.NewClient(cfg.Finance),
		Archive:  archive.New(cfg.App.DataDir),
		Mailer:   email.NewSender(cfg.Email),
		Policy:   policy,
	}), nil
}

// runPipeline builds the pipeline and executes one named run under the
// failure handler.
func runPipeline(name string, fn func(*pipeline.Pipeline) func(context.Context) error) error {
	ctx := context.Background()
	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	return p.Run(ctx, name, fn(p))
}
