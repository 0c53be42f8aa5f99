package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"

	"discussion-grader/internal/config"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunExecutor is satisfied by app.Runner.
type RunExecutor interface {
	Execute(ctx context.Context, req model.RunRequest, output string) (*model.RunReport, error)
}

type Handler struct {
	runner RunExecutor
	cfg    *config.Config
	// running serializes grading runs; a second request while one is in
	// flight is rejected rather than queued.
	running sync.Mutex
	log     zerolog.Logger
}

func NewHandler(runner RunExecutor, cfg *config.Config) *Handler {
	return &Handler{
		runner: runner,
		cfg:    cfg,
		log:    logger.Get(),
	}
}

type TriggerRunRequest struct {
	CourseID     int64  `json:"course_id" binding:"required"`
	DiscussionID int64  `json:"discussion_id" binding:"required"`
	AssignmentID *int64 `json:"assignment_id"`
	Live         bool   `json:"live"`
	OnlyStudent  string `json:"only_student"`
}

func (h *Handler) TriggerRun(c *gin.Context) {
	var req TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "A grading run is already in progress"})
		return
	}
	defer h.running.Unlock()

	runReq := model.RunRequest{
		CourseID:     req.CourseID,
		DiscussionID: req.DiscussionID,
		AssignmentID: req.AssignmentID,
		DryRun:       !req.Live,
		OnlyStudent:  req.OnlyStudent,
	}

	// A started run always finishes, even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	rep, err := h.runner.Execute(ctx, runReq, h.cfg.Output.Path)
	if err != nil {
		h.log.Error().Err(err).Int64("course_id", req.CourseID).Int64("discussion_id", req.DiscussionID).Msg("Grading run failed")
		status := http.StatusInternalServerError
		switch {
		case errors.IsTransport(err):
			status = http.StatusBadGateway
		case stderrors.Is(err, errors.ErrInvalidRunRequest):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rep)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
