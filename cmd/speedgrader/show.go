package main

import (
	"time"

	"discussion-grader/internal/model"
	"discussion-grader/internal/report"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <results.json | s3://bucket/key>",
	Short: "Print the summary of a saved results file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := report.NewWriter(cfg, nil).Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// Saved files hold records only, so the run header is not restored.
		now := time.Now()
		rep := report.Build("", model.RunRequest{}, records, 0, now, now)
		report.Print(cmd.OutOrStdout(), rep)
		return nil
	},
}
