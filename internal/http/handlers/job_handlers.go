package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/internal/services/storage"
	"go.uber.org/zap"
)

type JobPublisher interface {
	PublishJob(ctx context.Context, job *models.RecognitionJob) error
}

type JobReader interface {
	GetJob(ctx context.Context, id string) (*models.RecognitionJob, error)
}

type JobHandler struct {
	publisher JobPublisher
	jobs      JobReader
	logger    *zap.Logger
}

// NewJobHandler builds the async recognition handler. A nil publisher or
// job reader disables the corresponding endpoint with 503.
func NewJobHandler(publisher JobPublisher, jobs JobReader, logger *zap.Logger) *JobHandler {
	return &JobHandler{publisher: publisher, jobs: jobs, logger: logger}
}

// Submit queues recognition of the image at image_url or image_path.
func (h *JobHandler) Submit(c *gin.Context) {
	if h.publisher == nil || h.jobs == nil {
		respondError(c, http.StatusServiceUnavailable, "Async recognition is not enabled")
		return
	}

	var req models.AsyncRecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "image_url must be a URL")
		return
	}
	if (req.ImageURL == "") == (req.ImagePath == "") {
		respondError(c, http.StatusBadRequest, "Exactly one of image_url or image_path is required")
		return
	}

	now := time.Now()
	job := &models.RecognitionJob{
		ID:        uuid.New().String(),
		ImageURL:  req.ImageURL,
		ImagePath: req.ImagePath,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.publisher.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to queue job", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "Failed to queue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{Success: true, Data: job})
}

// Status reports the stored state of a job.
func (h *JobHandler) Status(c *gin.Context) {
	if h.jobs == nil {
		respondError(c, http.StatusServiceUnavailable, "Async recognition is not enabled")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			respondError(c, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: job})
}
