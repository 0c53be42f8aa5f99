package model

import (
	"strings"
	"time"
)

type RecordStatus string

const (
	RecordStatusNoSubmission RecordStatus = "NO_SUBMISSION"
	RecordStatusGraded       RecordStatus = "GRADED"
	RecordStatusError        RecordStatus = "ERROR"
)

type RosterEntry struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	LoginID      string `json:"login_id"`
	Email        string `json:"email"`
	SortableName string `json:"sortable_name"`
}

// NewRosterEntry fills the defaults Canvas leaves out for some accounts.
func NewRosterEntry(s CanvasStudent) RosterEntry {
	entry := RosterEntry{
		UserID:       s.ID,
		Name:         s.Name,
		LoginID:      s.LoginID,
		Email:        s.Email,
		SortableName: s.SortableName,
	}
	if entry.LoginID == "" {
		entry.LoginID = "unknown"
	}
	if entry.SortableName == "" {
		entry.SortableName = s.Name
	}
	return entry
}

type SubmissionBundle struct {
	Discussion BundleDiscussion `json:"discussion"`
	Student    RosterEntry      `json:"student"`
	Submission BundleSubmission `json:"submission"`
}

type BundleDiscussion struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

type BundleSubmission struct {
	EntryID   int64  `json:"entry_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	WordCount int    `json:"word_count"`
}

func NewSubmissionBundle(d Discussion, student RosterEntry, entry CanvasEntry) SubmissionBundle {
	return SubmissionBundle{
		Discussion: BundleDiscussion{
			ID:     d.ID,
			Title:  d.Title,
			Prompt: d.Message,
		},
		Student: student,
		Submission: BundleSubmission{
			EntryID:   entry.ID,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
			WordCount: WordCount(entry.Message),
		},
	}
}

// WordCount counts whitespace separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// GradingResult is the decoded output of a grader program. Raw holds every
// field the grader printed, including grade and comment.
type GradingResult struct {
	Grade   string
	Comment string
	Raw     map[string]any
}

type ProcessingRecord struct {
	UserID       int64          `json:"user_id"`
	LoginID      string         `json:"login_id"`
	StudentName  string         `json:"student_name"`
	EntryID      *int64         `json:"entry_id"`
	Status       RecordStatus   `json:"status"`
	Grade        *string        `json:"grade"`
	Comment      *string        `json:"comment"`
	GraderOutput map[string]any `json:"grader_output,omitempty"`
	DryRun       bool           `json:"dry_run"`
	GradePosted  *bool          `json:"grade_posted,omitempty"`
	GradeError   string         `json:"grade_error,omitempty"`
	Error        string         `json:"error,omitempty"`
}

type RunRequest struct {
	CourseID     int64  `json:"course_id"`
	DiscussionID int64  `json:"discussion_id"`
	AssignmentID *int64 `json:"assignment_id,omitempty"`
	DryRun       bool   `json:"dry_run"`
	OnlyStudent  string `json:"only_student,omitempty"`
}

type Summary struct {
	Total        int `json:"total"`
	Graded       int `json:"graded"`
	NoSubmission int `json:"no_submission"`
	Errored      int `json:"errored"`
	Posted       int `json:"posted"`
	PostFailed   int `json:"post_failed"`
}

type RunReport struct {
	RunID          string             `json:"run_id"`
	CourseID       int64              `json:"course_id"`
	DiscussionID   int64              `json:"discussion_id"`
	AssignmentID   *int64             `json:"assignment_id,omitempty"`
	DryRun         bool               `json:"dry_run"`
	OnlyStudent    string             `json:"only_student,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	DroppedEntries int                `json:"dropped_entries"`
	Summary        Summary            `json:"summary"`
	Records        []ProcessingRecord `json:"records"`
}
