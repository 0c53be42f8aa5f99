package main

import (
	"fmt"
	"time"

	"discussion-grader/internal/app"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/internal/report"

	"github.com/spf13/cobra"
)

type runOptions struct {
	courseID        int64
	discussionID    int64
	assignmentID    int64
	grader          string
	graderTimeout   string
	live            bool
	output          string
	onlyStudent     string
	canvasURL       string
	apiKey          string
	duplicatePolicy string
}

var runFlags runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Grade every submission in a discussion",
	Long: `Grade every submission in a discussion.

Runs are dry by default: everything is fetched and graded but nothing is
written to Canvas. Pass --live together with --assignment-id to post grades.

Examples:
  # Dry run, save results
  speedgrader run --course-id 12345 --discussion-id 67890 --grader ./grader --output results.json

  # Post grades for a single student first
  speedgrader run --course-id 12345 --discussion-id 67890 --assignment-id 555 \
    --grader ./grader --only-student jdoe --live`,
	Args: cobra.NoArgs,
	RunE: runGrading,
}

func init() {
	f := runCmd.Flags()
	f.Int64Var(&runFlags.courseID, "course-id", 0, "Canvas course ID")
	f.Int64Var(&runFlags.discussionID, "discussion-id", 0, "Canvas discussion topic ID")
	f.Int64Var(&runFlags.assignmentID, "assignment-id", 0, "assignment ID (required for posting grades)")
	f.StringVar(&runFlags.grader, "grader", "", "path to the external grading executable")
	f.StringVar(&runFlags.graderTimeout, "grader-timeout", "", "per-submission grader timeout (e.g. 30s)")
	f.BoolVar(&runFlags.live, "live", false, "actually post grades and comments (default is dry run)")
	f.StringVar(&runFlags.output, "output", "", "write results to this file (.json or .xlsx, or s3://bucket/key)")
	f.StringVar(&runFlags.onlyStudent, "only-student", "", "only process this student (by login_id)")
	f.StringVar(&runFlags.canvasURL, "canvas-url", "", "Canvas instance URL")
	f.StringVar(&runFlags.apiKey, "api-key", "", "Canvas API key")
	f.StringVar(&runFlags.duplicatePolicy, "duplicate-policy", "", "entry to grade when a student posted more than once: first, last, longest")

	_ = runCmd.MarkFlagRequired("course-id")
	_ = runCmd.MarkFlagRequired("discussion-id")
}

func runGrading(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(); err != nil {
		return err
	}

	runner, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	req := model.RunRequest{
		CourseID:     runFlags.courseID,
		DiscussionID: runFlags.discussionID,
		DryRun:       !runFlags.live,
		OnlyStudent:  runFlags.onlyStudent,
	}
	if cmd.Flags().Changed("assignment-id") {
		id := runFlags.assignmentID
		req.AssignmentID = &id
	}

	out := cmd.OutOrStdout()
	if req.DryRun {
		fmt.Fprintln(out, "=== DRY RUN MODE ===")
		fmt.Fprintln(out, "Use --live flag to actually post grades and comments")
	} else if req.AssignmentID == nil {
		log := logger.Get()
		log.Warn().Msg("Live mode without --assignment-id: grades will not be posted")
	}
	fmt.Fprintf(out, "Processing discussion %d in course %d\n", req.DiscussionID, req.CourseID)

	output := runFlags.output
	if output == "" {
		output = cfg.Output.Path
	}

	rep, err := runner.Execute(cmd.Context(), req, output)
	if rep != nil {
		report.Print(out, *rep)
	}
	if err != nil {
		return err
	}

	if output != "" {
		fmt.Fprintf(out, "Results saved to %s\n", output)
	}
	fmt.Fprintln(out, "Processing complete!")
	return nil
}

func applyRunFlags() error {
	if runFlags.canvasURL != "" {
		cfg.Canvas.BaseURL = runFlags.canvasURL
	}
	if runFlags.apiKey != "" {
		cfg.Canvas.APIKey = runFlags.apiKey
	}
	if runFlags.grader != "" {
		cfg.Grader.Executable = runFlags.grader
	}
	if runFlags.duplicatePolicy != "" {
		cfg.Run.DuplicatePolicy = runFlags.duplicatePolicy
	}
	if runFlags.graderTimeout != "" {
		d, err := time.ParseDuration(runFlags.graderTimeout)
		if err != nil {
			return fmt.Errorf("invalid --grader-timeout: %w", err)
		}
		cfg.Grader.Timeout = d
	}
	if cfg.Grader.Executable == "" {
		return fmt.Errorf("--grader is required (or set grader.executable in config)")
	}
	return nil
}
