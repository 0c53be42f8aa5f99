package model

// CanvasStudent is a course user as returned by the Canvas students API.
type CanvasStudent struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name"`
	LoginID      string `json:"login_id"`
	Email        string `json:"email"`
}

// CanvasEntry is a top-level post in a discussion topic.
type CanvasEntry struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type Discussion struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	AssignmentID *int64 `json:"assignment_id"`
}

type GradeSubmission struct {
	Submission PostedGrade  `json:"submission"`
	Comment    *TextComment `json:"comment,omitempty"`
}

type PostedGrade struct {
	PostedGrade string `json:"posted_grade"`
}

type TextComment struct {
	TextComment string `json:"text_comment"`
}

// SubmissionResponse is the subset of the Canvas submission object the
// grader looks at after a write-back.
type SubmissionResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Grade  string `json:"grade"`
	Score  any    `json:"score"`
}
