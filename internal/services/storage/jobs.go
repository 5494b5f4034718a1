package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrJobNotFound = errors.New("job not found")

func jobKey(id string) string { return "job:" + id }

// SaveJob stores the job state, replacing any previous state.
func (s *StorageService) SaveJob(ctx context.Context, job *models.RecognitionJob) error {
	if s.redisClient == nil {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.redisClient.Set(ctx, jobKey(job.ID), data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.RecognitionJob, error) {
	if s.redisClient == nil {
		return nil, ErrCacheDisabled
	}

	data, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	var job models.RecognitionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
