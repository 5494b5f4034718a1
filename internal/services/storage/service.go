package storage

import (
	"errors"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

var (
	ErrStorageDisabled = errors.New("supabase storage is not configured")
	ErrCacheDisabled   = errors.New("redis is not configured")
)

// StorageService fronts Supabase object storage and the Redis cache. Either
// backend may be absent; calls that need a missing backend return
// ErrStorageDisabled or ErrCacheDisabled.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
	jobTTL        time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	s := &StorageService{
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: cfg.Storage.CacheDuration,
		jobTTL:        cfg.Storage.JobTTL,
	}

	if cfg.Supabase.Enabled() {
		s.sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	if cfg.Redis.Addr != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	return s, nil
}

func (s *StorageService) StorageEnabled() bool { return s.sbClient != nil }

func (s *StorageService) CacheEnabled() bool { return s.redisClient != nil }

func (s *StorageService) Close() error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Close()
}
