package main

import (
	"fmt"
	"strconv"

	"discussion-grader/internal/canvas"
	"discussion-grader/pkg/errors"

	"github.com/spf13/cobra"
)

var findAssignmentCmd = &cobra.Command{
	Use:   "find-assignment <course-id> <discussion-id>",
	Short: "Look up the assignment ID behind a graded discussion",
	Args:  cobra.ExactArgs(2),
	RunE:  findAssignment,
}

func findAssignment(cmd *cobra.Command, args []string) error {
	courseID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid course id %q: %w", args[0], err)
	}
	discussionID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid discussion id %q: %w", args[1], err)
	}

	if cfg.Canvas.BaseURL == "" || cfg.Canvas.APIKey == "" {
		return errors.ErrMissingCredentials
	}

	client := canvas.NewClient(cfg)
	discussion, err := client.GetDiscussion(cmd.Context(), courseID, discussionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Discussion: %s\n", discussion.Title)

	if discussion.AssignmentID == nil {
		fmt.Fprintln(out, "This discussion is not a graded assignment.")
		return nil
	}

	fmt.Fprintf(out, "Assignment ID: %d\n\n", *discussion.AssignmentID)
	fmt.Fprintln(out, "Use this in your command:")
	fmt.Fprintf(out, "  speedgrader run --course-id %d --discussion-id %d --assignment-id %d --grader ./grader\n",
		courseID, discussionID, *discussion.AssignmentID)
	return nil
}
