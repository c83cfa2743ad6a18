package cmd

import (
	"context"

	"newsdive/internal/pipeline"

	"github.com/spf13/cobra"
)

// weeklyCmd analyzes the archived week and mails the trend briefing.
var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Analyze the archived week and mail the investor briefing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline("weekly", func(p *pipeline.Pipeline) func(context.Context) error {
			return p.WeeklyRun
		})
	},
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}
