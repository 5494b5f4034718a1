package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/pkg/utils"
	"go.uber.org/zap"
)

type Recognizer interface {
	RecognizeReader(ctx context.Context, r io.Reader) (*models.Prediction, error)
}

// JobStore keeps the latest state of each job.
type JobStore interface {
	SaveJob(ctx context.Context, job *models.RecognitionJob) error
}

// ObjectSource fetches images named by their path in the storage bucket.
type ObjectSource interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

type HistoryRecorder interface {
	Create(ctx context.Context, e *models.HistoryEntry) error
}

// JobProcessor runs one recognition job: download, recognize, store the
// outcome. It does not touch the broker.
type JobProcessor struct {
	recognizer  Recognizer
	jobs        JobStore
	objects     ObjectSource
	history     HistoryRecorder
	maxFileSize int64
	logger      *zap.Logger
}

// NewJobProcessor builds a processor; objects and history may be nil.
func NewJobProcessor(recognizer Recognizer, jobs JobStore, objects ObjectSource, history HistoryRecorder, maxFileSize int64, logger *zap.Logger) *JobProcessor {
	return &JobProcessor{
		recognizer:  recognizer,
		jobs:        jobs,
		objects:     objects,
		history:     history,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// saveTimeout bounds the final state write, which outlives a cancelled job
// context.
const saveTimeout = 5 * time.Second

// Process moves job through processing to completed or failed, saving
// each state. Failures are recorded on the job rather than returned. When
// ctx is cancelled mid-job the job is stored as pending again and ctx's
// error is returned so the caller can hand the message back to the broker.
func (p *JobProcessor) Process(ctx context.Context, job *models.RecognitionJob) error {
	job.Status = models.StatusProcessing
	job.Error = ""
	if err := p.saveJob(ctx, job); err != nil {
		p.logger.Warn("Failed to save job state", zap.String("job_id", job.ID), zap.Error(err))
	}

	prediction, err := p.recognize(ctx, job)
	interrupted := ctx.Err()
	switch {
	case err != nil && interrupted != nil:
		job.Status = models.StatusPending
		p.logger.Warn("Job interrupted, will be retried",
			zap.String("job_id", job.ID),
			zap.Error(err))
	case err != nil:
		job.Status = models.StatusFailed
		job.Error = err.Error()
		p.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	default:
		interrupted = nil
		resp := prediction.Response()
		job.Status = models.StatusCompleted
		job.Result = &resp
		p.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.String("prediction", resp.Prediction),
			zap.Float64("confidence", resp.Confidence))
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := p.saveJob(saveCtx, job); err != nil {
		p.logger.Error("Failed to save job result", zap.String("job_id", job.ID), zap.Error(err))
	}

	if prediction != nil && p.history != nil {
		entry := &models.HistoryEntry{
			Label:        prediction.Label,
			Confidence:   prediction.Confidence,
			HandDetected: prediction.HandDetected,
			Source:       models.SourceQueue,
		}
		if err := p.history.Create(saveCtx, entry); err != nil {
			p.logger.Warn("Failed to record history", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return interrupted
}

func (p *JobProcessor) recognize(ctx context.Context, job *models.RecognitionJob) (*models.Prediction, error) {
	imageData, err := p.fetch(ctx, job)
	if err != nil {
		return nil, err
	}

	prediction, err := p.recognizer.RecognizeReader(ctx, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to recognize image: %w", err)
	}
	return prediction, nil
}

func (p *JobProcessor) fetch(ctx context.Context, job *models.RecognitionJob) ([]byte, error) {
	if job.ImagePath == "" {
		data, _, err := utils.DownloadImage(ctx, job.ImageURL, p.maxFileSize)
		return data, err
	}

	if p.objects == nil {
		return nil, errors.New("image_path jobs need bucket storage")
	}
	data, err := p.objects.Download(ctx, job.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", job.ImagePath, err)
	}
	if int64(len(data)) > p.maxFileSize {
		return nil, fmt.Errorf("image too large: %d bytes", len(data))
	}
	return data, nil
}

func (p *JobProcessor) saveJob(ctx context.Context, job *models.RecognitionJob) error {
	job.UpdatedAt = time.Now()
	return p.jobs.SaveJob(ctx, job)
}
