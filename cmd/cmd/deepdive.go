package cmd

import (
	"context"

	"newsdive/internal/pipeline"

	"github.com/spf13/cobra"
)

// deepDiveCmd generates per-company investment memos from the archived week.
var deepDiveCmd = &cobra.Command{
	Use:   "deepdive",
	Short: "Select the week's key companies and mail deep-dive investment memos",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline("deepdive", func(p *pipeline.Pipeline) func(context.Context) error {
			return p.DeepDiveRun
		})
	},
}

func init() {
	rootCmd.AddCommand(deepDiveCmd)
}
