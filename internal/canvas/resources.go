package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"discussion-grader/internal/model"
)

// GetDiscussion fetches a discussion topic.
func (c *Client) GetDiscussion(ctx context.Context, courseID, discussionID int64) (*model.Discussion, error) {
	c.log.Info().Int64("course_id", courseID).Int64("discussion_id", discussionID).Msg("Fetching discussion")

	var d model.Discussion
	path := fmt.Sprintf("courses/%d/discussion_topics/%d", courseID, discussionID)
	if err := c.FetchOne(ctx, path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDiscussionEntries returns every top-level entry in pagination order.
func (c *Client) ListDiscussionEntries(ctx context.Context, courseID, discussionID int64) ([]model.CanvasEntry, error) {
	c.log.Info().Int64("discussion_id", discussionID).Msg("Fetching discussion entries")

	path := fmt.Sprintf("courses/%d/discussion_topics/%d/entries", courseID, discussionID)
	entries, err := fetchAll[model.CanvasEntry](ctx, c, path, nil)
	if err != nil {
		return nil, err
	}

	c.log.Info().Int("count", len(entries)).Msg("Retrieved discussion entries")
	return entries, nil
}

// ListStudents returns the course roster including login ids and emails.
func (c *Client) ListStudents(ctx context.Context, courseID int64) ([]model.CanvasStudent, error) {
	c.log.Info().Int64("course_id", courseID).Msg("Fetching students")

	params := url.Values{}
	params.Add("include[]", "email")
	params.Add("include[]", "login_id")

	students, err := fetchAll[model.CanvasStudent](ctx, c, fmt.Sprintf("courses/%d/students", courseID), params)
	if err != nil {
		return nil, err
	}

	c.log.Info().Int("count", len(students)).Msg("Retrieved students")
	return students, nil
}

// SubmitGrade posts a grade and, when comment is non-empty, a private
// submission comment visible only to the student and instructors.
func (c *Client) SubmitGrade(ctx context.Context, courseID, assignmentID, userID int64, grade, comment string) (*model.SubmissionResponse, error) {
	payload := model.GradeSubmission{
		Submission: model.PostedGrade{PostedGrade: grade},
	}
	if comment != "" {
		payload.Comment = &model.TextComment{TextComment: comment}
	}

	c.log.Info().Int64("user_id", userID).Int64("assignment_id", assignmentID).Str("grade", grade).Msg("Submitting grade")

	var resp model.SubmissionResponse
	path := fmt.Sprintf("courses/%d/assignments/%d/submissions/%d", courseID, assignmentID, userID)
	if err := c.WriteOne(ctx, http.MethodPut, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func fetchAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	raw, err := c.FetchPaged(ctx, path, params)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("failed to decode item %d from %s: %w", i, path, err)
		}
		items = append(items, item)
	}
	return items, nil
}
