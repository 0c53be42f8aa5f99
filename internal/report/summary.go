package report

import (
	"time"

	"discussion-grader/internal/model"
)

// Summarize counts records by outcome. Posted and PostFailed only count
// records where a write-back was attempted.
func Summarize(records []model.ProcessingRecord) model.Summary {
	s := model.Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case model.RecordStatusGraded:
			s.Graded++
		case model.RecordStatusNoSubmission:
			s.NoSubmission++
		case model.RecordStatusError:
			s.Errored++
		}
		if r.GradePosted != nil {
			if *r.GradePosted {
				s.Posted++
			} else {
				s.PostFailed++
			}
		}
	}
	return s
}

func Build(runID string, req model.RunRequest, records []model.ProcessingRecord, dropped int, started, finished time.Time) model.RunReport {
	if records == nil {
		records = []model.ProcessingRecord{}
	}
	return model.RunReport{
		RunID:          runID,
		CourseID:       req.CourseID,
		DiscussionID:   req.DiscussionID,
		AssignmentID:   req.AssignmentID,
		DryRun:         req.DryRun,
		OnlyStudent:    req.OnlyStudent,
		StartedAt:      started.UTC(),
		FinishedAt:     finished.UTC(),
		DroppedEntries: dropped,
		Summary:        Summarize(records),
		Records:        records,
	}
}
