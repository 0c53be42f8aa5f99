package excel

import (
	"bytes"
	"fmt"
	"strconv"

	"discussion-grader/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	RecordsSheet = "Grades"
	SummarySheet = "Summary"
)

var recordColumns = []string{
	"user_id", "login_id", "student_name", "status", "entry_id",
	"grade", "comment", "grade_posted", "grade_error", "error", "dry_run",
}

// WriteReport renders a run report as a workbook with one row per student on
// the Grades sheet and the counts on the Summary sheet.
func WriteReport(report model.RunReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(RecordsSheet, "A1", &recordColumns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range report.Records {
		row := recordRow(r)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}
	summary := [][]any{
		{"run_id", report.RunID},
		{"course_id", report.CourseID},
		{"discussion_id", report.DiscussionID},
		{"dry_run", report.DryRun},
		{"total", report.Summary.Total},
		{"graded", report.Summary.Graded},
		{"no_submission", report.Summary.NoSubmission},
		{"errored", report.Summary.Errored},
		{"posted", report.Summary.Posted},
		{"post_failed", report.Summary.PostFailed},
		{"dropped_entries", report.DroppedEntries},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func recordRow(r model.ProcessingRecord) []any {
	return []any{
		r.UserID,
		r.LoginID,
		r.StudentName,
		string(r.Status),
		optionalInt(r.EntryID),
		optionalString(r.Grade),
		optionalString(r.Comment),
		optionalBool(r.GradePosted),
		r.GradeError,
		r.Error,
		r.DryRun,
	}
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
