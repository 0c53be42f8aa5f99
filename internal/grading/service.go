package grading

import (
	"context"
	"fmt"

	"discussion-grader/internal/config"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/pkg/errors"

	"github.com/rs/zerolog"
)

// Gateway is the subset of the Canvas client a grading run needs.
type Gateway interface {
	GetDiscussion(ctx context.Context, courseID, discussionID int64) (*model.Discussion, error)
	ListStudents(ctx context.Context, courseID int64) ([]model.CanvasStudent, error)
	ListDiscussionEntries(ctx context.Context, courseID, discussionID int64) ([]model.CanvasEntry, error)
	SubmitGrade(ctx context.Context, courseID, assignmentID, userID int64, grade, comment string) (*model.SubmissionResponse, error)
}

type Grader interface {
	Invoke(ctx context.Context, executable string, bundle model.SubmissionBundle) (*model.GradingResult, error)
}

type Service struct {
	gateway    Gateway
	grader     Grader
	executable string
	policy     DuplicatePolicy
	log        zerolog.Logger
}

func NewService(cfg *config.Config, gateway Gateway, grader Grader) (*Service, error) {
	policy, err := ParseDuplicatePolicy(cfg.Run.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	return &Service{
		gateway:    gateway,
		grader:     grader,
		executable: cfg.Grader.Executable,
		policy:     policy,
		log:        logger.Get().With().Str("component", "grading").Logger(),
	}, nil
}

type Result struct {
	Discussion     *model.Discussion
	Records        []model.ProcessingRecord
	DroppedEntries int
}

// Run grades one discussion. Failures while fetching the discussion, roster
// or entries abort the run; anything that goes wrong for a single student is
// captured in that student's record and the run moves on.
func (s *Service) Run(ctx context.Context, req model.RunRequest) (*Result, error) {
	if req.CourseID <= 0 || req.DiscussionID <= 0 {
		return nil, fmt.Errorf("%w: course and discussion ids are required", errors.ErrInvalidRunRequest)
	}

	log := s.log.With().
		Int64("course_id", req.CourseID).
		Int64("discussion_id", req.DiscussionID).
		Bool("dry_run", req.DryRun).
		Logger()

	discussion, err := s.gateway.GetDiscussion(ctx, req.CourseID, req.DiscussionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discussion: %w", err)
	}

	students, err := s.gateway.ListStudents(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	roster := NewRoster(students)
	log.Info().Int("students", roster.Len()).Msg("Loaded course roster")

	result := &Result{
		Discussion: discussion,
		Records:    []model.ProcessingRecord{},
	}

	if req.OnlyStudent != "" {
		only, ok := roster.Only(req.OnlyStudent)
		if !ok {
			log.Error().Str("login_id", req.OnlyStudent).Msg("Student not found in course roster")
			return result, nil
		}
		target := only.Students[0]
		log.Info().Str("login_id", target.LoginID).Str("name", target.Name).Msg("Single student mode")
		roster = only
	}

	entries, err := s.gateway.ListDiscussionEntries(ctx, req.CourseID, req.DiscussionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discussion entries: %w", err)
	}

	partition := Reconcile(roster, entries, s.policy)
	result.DroppedEntries = partition.Dropped

	log.Info().
		Int("with_submission", len(partition.With)).
		Int("without_submission", len(partition.Without)).
		Int("dropped_entries", partition.Dropped).
		Str("duplicate_policy", string(s.policy)).
		Msg("Reconciled roster with entries")

	for _, student := range partition.Without {
		log.Info().Str("login_id", student.LoginID).Str("name", student.Name).Msg("No submission")
		result.Records = append(result.Records, model.ProcessingRecord{
			UserID:      student.UserID,
			LoginID:     student.LoginID,
			StudentName: student.Name,
			Status:      model.RecordStatusNoSubmission,
			DryRun:      req.DryRun,
		})
	}

	for _, sub := range partition.With {
		result.Records = append(result.Records, s.gradeSubmission(ctx, req, discussion, sub))
	}

	return result, nil
}

func (s *Service) gradeSubmission(ctx context.Context, req model.RunRequest, discussion *model.Discussion, sub Submission) model.ProcessingRecord {
	entryID := sub.Entry.ID
	record := model.ProcessingRecord{
		UserID:      sub.Student.UserID,
		LoginID:     sub.Student.LoginID,
		StudentName: sub.Student.Name,
		EntryID:     &entryID,
		DryRun:      req.DryRun,
	}

	log := s.log.With().
		Int64("user_id", sub.Student.UserID).
		Str("login_id", sub.Student.LoginID).
		Int64("entry_id", entryID).
		Logger()

	bundle := model.NewSubmissionBundle(*discussion, sub.Student, sub.Entry)
	bundle.Discussion.ID = req.DiscussionID

	log.Info().Int("word_count", bundle.Submission.WordCount).Msg("Grading submission")

	graded, err := s.grader.Invoke(ctx, s.executable, bundle)
	if err != nil {
		log.Error().Err(err).Msg("Failed to grade submission")
		record.Status = model.RecordStatusError
		record.Error = err.Error()
		return record
	}

	record.Status = model.RecordStatusGraded
	record.Grade = &graded.Grade
	record.Comment = &graded.Comment
	record.GraderOutput = graded.Raw

	if req.DryRun || req.AssignmentID == nil {
		return record
	}

	posted := true
	if _, err := s.gateway.SubmitGrade(ctx, req.CourseID, *req.AssignmentID, sub.Student.UserID, graded.Grade, graded.Comment); err != nil {
		log.Error().Err(err).Msg("Failed to post grade")
		posted = false
		record.GradeError = err.Error()
	}
	record.GradePosted = &posted

	return record
}
