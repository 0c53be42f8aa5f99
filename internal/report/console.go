package report

import (
	"fmt"
	"io"

	"discussion-grader/internal/model"
)

// Print writes the human readable run summary shown at the end of a CLI run.
func Print(out io.Writer, report model.RunReport) {
	s := report.Summary

	if report.DryRun {
		fmt.Fprintln(out, "\n(dry run: nothing was posted to Canvas)")
	}
	fmt.Fprintf(out, "\nProcessed %d total students:\n", s.Total)
	fmt.Fprintf(out, "  - %d students with submissions (%d graded, %d errors)\n", s.Graded+s.Errored, s.Graded, s.Errored)
	fmt.Fprintf(out, "  - %d students without submissions (skipped)\n", s.NoSubmission)
	if report.DroppedEntries > 0 {
		fmt.Fprintf(out, "  - %d entries from non-roster users ignored\n", report.DroppedEntries)
	}
	if !report.DryRun && report.AssignmentID != nil {
		fmt.Fprintf(out, "  - %d grades posted, %d failed to post\n", s.Posted, s.PostFailed)
	}

	var submitted, missing []model.ProcessingRecord
	for _, r := range report.Records {
		if r.Status == model.RecordStatusNoSubmission {
			missing = append(missing, r)
		} else {
			submitted = append(submitted, r)
		}
	}

	if len(submitted) > 0 {
		fmt.Fprintln(out, "\nStudents with submissions:")
		for _, r := range submitted {
			if r.Status == model.RecordStatusError {
				fmt.Fprintf(out, "ERROR - %s (%s): %s\n", r.LoginID, r.StudentName, r.Error)
				continue
			}
			status := ""
			if r.GradePosted != nil {
				if *r.GradePosted {
					status = " [grade & private comment posted]"
				} else {
					status = " [post failed: " + r.GradeError + "]"
				}
			}
			fmt.Fprintf(out, "%s (%s): Grade=%s%s\n", r.LoginID, r.StudentName, deref(r.Grade), status)
		}
	}

	if len(missing) > 0 {
		fmt.Fprintln(out, "\nStudents without submissions (skipped grading):")
		for _, r := range missing {
			fmt.Fprintf(out, "%s (%s): NO SUBMISSION\n", r.LoginID, r.StudentName)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
