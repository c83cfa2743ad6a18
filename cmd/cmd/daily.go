package cmd

import (
	"context"

	"newsdive/internal/pipeline"

	"github.com/spf13/cobra"
)

// dailyCmd runs the daily fetch-enrich-report cycle.
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Fetch new articles, enrich them, and mail the daily summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline("daily", func(p *pipeline.Pipeline) func(context.Context) error {
			return p.DailyRun
		})
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}
