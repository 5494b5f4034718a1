package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
	"github.com/phambaophuc/sign-recognition/internal/services/storage"
	"go.uber.org/zap"
)

const imageParamKey = "image"

type Recognizer interface {
	RecognizeReader(ctx context.Context, r io.Reader) (*models.Prediction, error)
}

type PredictionCache interface {
	GetPrediction(ctx context.Context, key string) (*models.PredictionResponse, error)
	SetPrediction(ctx context.Context, key string, resp models.PredictionResponse) error
}

// CacheClearer is implemented by caches that can be emptied on demand.
type CacheClearer interface {
	ClearPredictions(ctx context.Context) (int, error)
}

type PredictionHistory interface {
	Create(ctx context.Context, e *models.HistoryEntry) error
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

type RecognitionHandler struct {
	recognizer  Recognizer
	cache       PredictionCache
	history     PredictionHistory
	padding     int
	maxFileSize int64
	logger      *zap.Logger
}

// NewRecognitionHandler builds the predict handler. cache and history are
// optional and may be nil.
func NewRecognitionHandler(
	recognizer Recognizer,
	cache PredictionCache,
	history PredictionHistory,
	padding int,
	maxFileSize int64,
	logger *zap.Logger,
) *RecognitionHandler {
	return &RecognitionHandler{
		recognizer:  recognizer,
		cache:       cache,
		history:     history,
		padding:     padding,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Predict classifies the sign in the uploaded "image" part.
func (h *RecognitionHandler) Predict(c *gin.Context) {
	data, problem := h.readUpload(c)
	if problem != "" {
		respondError(c, http.StatusBadRequest, problem)
		return
	}

	ctx := c.Request.Context()

	cacheKey := storage.PredictionCacheKey(data, h.padding)
	if resp, ok := h.fromCache(ctx, cacheKey); ok {
		h.record(ctx, *resp)
		c.JSON(http.StatusOK, resp)
		return
	}

	prediction, err := h.recognizer.RecognizeReader(ctx, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, processor.ErrInvalidImage) {
			respondError(c, http.StatusBadRequest, "Invalid image")
			return
		}
		h.logger.Error("Prediction failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Prediction failed")
		return
	}

	resp := prediction.Response()
	// A fallback after a detector error would pin the full-image answer
	// for this upload once the detector recovers.
	if !prediction.DetectionFailed {
		h.toCache(ctx, cacheKey, resp)
	}
	h.record(ctx, resp)

	c.JSON(http.StatusOK, resp)
}

// History lists recent predictions, newest first.
func (h *RecognitionHandler) History(c *gin.Context) {
	if h.history == nil {
		respondError(c, http.StatusServiceUnavailable, "History is not enabled")
		return
	}

	entries, err := h.history.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: entries})
}

// ClearCache drops every cached prediction.
func (h *RecognitionHandler) ClearCache(c *gin.Context) {
	clearer, ok := h.cache.(CacheClearer)
	if !ok {
		respondError(c, http.StatusServiceUnavailable, "Cache is not enabled")
		return
	}

	removed, err := clearer.ClearPredictions(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to clear prediction cache", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	h.logger.Info("Prediction cache cleared", zap.Int("removed", removed))
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: gin.H{"removed": removed}})
}

// readUpload returns the uploaded image bytes, or the client-facing reason
// the upload was rejected.
func (h *RecognitionHandler) readUpload(c *gin.Context) ([]byte, string) {
	file, _, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "Image too large"
		}
		return nil, "No image"
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	switch {
	case err != nil:
		return nil, "Invalid image"
	case len(data) == 0:
		return nil, "No image"
	case int64(len(data)) > h.maxFileSize:
		return nil, "Image too large"
	}
	return data, ""
}

func (h *RecognitionHandler) fromCache(ctx context.Context, key string) (*models.PredictionResponse, bool) {
	if h.cache == nil {
		return nil, false
	}

	resp, err := h.cache.GetPrediction(ctx, key)
	if err != nil {
		h.logger.Warn("Failed to read prediction cache", zap.Error(err))
		return nil, false
	}
	if resp == nil {
		return nil, false
	}

	h.logger.Debug("Cache hit", zap.String("cache_key", key))
	return resp, true
}

func (h *RecognitionHandler) toCache(ctx context.Context, key string, resp models.PredictionResponse) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetPrediction(ctx, key, resp); err != nil {
		h.logger.Warn("Failed to cache prediction", zap.String("cache_key", key), zap.Error(err))
	}
}

func (h *RecognitionHandler) record(ctx context.Context, resp models.PredictionResponse) {
	if h.history == nil {
		return
	}
	entry := &models.HistoryEntry{
		Label:        resp.Prediction,
		Confidence:   resp.Confidence,
		HandDetected: resp.HandDetected,
		Source:       models.SourceUpload,
	}
	if err := h.history.Create(ctx, entry); err != nil {
		h.logger.Warn("Failed to record prediction", zap.Error(err))
	}
}
