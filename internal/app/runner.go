package app

import (
	"context"
	"time"

	"discussion-grader/internal/canvas"
	"discussion-grader/internal/config"
	"discussion-grader/internal/grader"
	"discussion-grader/internal/grading"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/internal/queue"
	"discussion-grader/internal/report"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Runner struct {
	service   *grading.Service
	writer    *report.Writer
	publisher *queue.Publisher
	log       zerolog.Logger
}

// New performs every setup check (credentials, grader executable, policy)
// before anything touches the network, then wires the run pipeline.
func New(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := grader.ValidateExecutable(cfg.Grader.Executable); err != nil {
		return nil, err
	}

	client := canvas.NewClient(cfg)
	invoker := grader.NewInvoker(cfg.Grader.Timeout)

	service, err := grading.NewService(cfg, client, invoker)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		service: service,
		log:     logger.Get().With().Str("component", "runner").Logger(),
	}

	// A nil *queue.Publisher must not reach the Writer as a non-nil interface.
	var publisher report.Publisher
	if cfg.Redis.Enabled {
		p, err := queue.Connect(cfg)
		if err != nil {
			return nil, err
		}
		r.publisher = p
		publisher = p
	}
	r.writer = report.NewWriter(cfg, publisher)

	return r, nil
}

// Execute runs one grading pass and delivers its report to output (which
// may be empty).
func (r *Runner) Execute(ctx context.Context, req model.RunRequest, output string) (*model.RunReport, error) {
	runID := uuid.NewString()
	started := time.Now()

	log := r.log.With().Str("run_id", runID).Logger()
	log.Info().
		Int64("course_id", req.CourseID).
		Int64("discussion_id", req.DiscussionID).
		Bool("dry_run", req.DryRun).
		Str("only_student", req.OnlyStudent).
		Msg("Starting grading run")

	result, err := r.service.Run(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Grading run failed")
		return nil, err
	}

	rep := report.Build(runID, req, result.Records, result.DroppedEntries, started, time.Now())

	log.Info().
		Int("total", rep.Summary.Total).
		Int("graded", rep.Summary.Graded).
		Int("no_submission", rep.Summary.NoSubmission).
		Int("errored", rep.Summary.Errored).
		Dur("duration", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("Grading run completed")

	if err := r.writer.Deliver(ctx, rep, output); err != nil {
		return &rep, err
	}
	return &rep, nil
}

func (r *Runner) Close() error {
	if r.publisher != nil {
		return r.publisher.Close()
	}
	return nil
}
