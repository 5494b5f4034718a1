package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/redis/go-redis/v9"
)

const predictionCachePrefix = "pred_cache:"

// PredictionCacheKey identifies a prediction by the uploaded bytes and the
// crop padding it was computed with.
func PredictionCacheKey(imageData []byte, padding int) string {
	hash := sha256.New()
	hash.Write(imageData)
	hash.Write([]byte("padding_" + strconv.Itoa(padding)))
	return fmt.Sprintf("%s%x", predictionCachePrefix, hash.Sum(nil))
}

// GetPrediction returns the cached prediction for key, or nil on a miss.
func (s *StorageService) GetPrediction(ctx context.Context, key string) (*models.PredictionResponse, error) {
	if s.redisClient == nil {
		return nil, ErrCacheDisabled
	}

	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var resp models.PredictionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("cache decode error: %w", err)
	}
	return &resp, nil
}

func (s *StorageService) SetPrediction(ctx context.Context, key string, resp models.PredictionResponse) error {
	if s.redisClient == nil {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, key, data, s.cacheDuration).Err()
}

// ClearPredictions drops every cached prediction, for use after the model
// or its labels change.
func (s *StorageService) ClearPredictions(ctx context.Context) (int, error) {
	if s.redisClient == nil {
		return 0, ErrCacheDisabled
	}

	var removed int
	iter := s.redisClient.Scan(ctx, 0, predictionCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if s.redisClient == nil {
		return nil, ErrCacheDisabled
	}

	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	var predictions int64
	iter := s.redisClient.Scan(ctx, 0, predictionCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		predictions++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"db_keys":            dbSize,
		"cached_predictions": predictions,
		"cache_duration":     s.cacheDuration.String(),
	}, nil
}
