// Package recognizer runs the sign recognition pipeline: hand detection,
// hand cropping, preprocessing and classification.
package recognizer

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/phambaophuc/sign-recognition/internal/services/cropper"
	"github.com/phambaophuc/sign-recognition/internal/services/detector"
	"github.com/phambaophuc/sign-recognition/internal/services/diagnostics"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
	"go.uber.org/zap"
)

const diagnosticsTimeout = 30 * time.Second

// Classifier is the part of classifier.Service the pipeline needs.
type Classifier interface {
	Classify(ctx context.Context, input []float32) (classifier.Prediction, error)
}

// Recognizer is built once at startup and shared by all requests. Its
// collaborators are fixed by New.
type Recognizer struct {
	detector   detector.Detector
	cropper    *cropper.Cropper
	processor  *processor.ImageProcessor
	classifier Classifier
	sink       diagnostics.Sink
	logger     *zap.Logger
	pending    sync.WaitGroup

	detectTimeout time.Duration
}

// Option customizes a Recognizer.
type Option func(*Recognizer)

// WithDiagnostics records every processed image to sink in the background.
func WithDiagnostics(sink diagnostics.Sink) Option {
	return func(r *Recognizer) {
		r.sink = sink
	}
}

// WithDetectTimeout bounds each detection call. A detection that runs out
// of time falls back to the full image like any other detector failure.
func WithDetectTimeout(d time.Duration) Option {
	return func(r *Recognizer) {
		r.detectTimeout = d
	}
}

func New(
	det detector.Detector,
	crop *cropper.Cropper,
	proc *processor.ImageProcessor,
	cls Classifier,
	logger *zap.Logger,
	opts ...Option,
) *Recognizer {
	if det == nil {
		det = detector.NopDetector{}
	}
	r := &Recognizer{
		detector:   det,
		cropper:    crop,
		processor:  proc,
		classifier: cls,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecognizeReader decodes r and recognizes the image. Undecodable input
// returns an error wrapping processor.ErrInvalidImage. Seekable input has
// its header checked before the full decode.
func (r *Recognizer) RecognizeReader(ctx context.Context, rd io.Reader) (*models.Prediction, error) {
	if rs, ok := rd.(io.ReadSeeker); ok {
		if err := r.processor.ValidateImage(rs, 0); err != nil {
			return nil, err
		}
	}

	img, _, err := r.processor.DecodeImage(rd)
	if err != nil {
		return nil, err
	}
	return r.Recognize(ctx, img)
}

// Recognize classifies the hand sign in img. A failed or empty detection
// falls back to classifying the whole image.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (*models.Prediction, error) {
	hands, err := r.detect(ctx, img)
	detectionFailed := err != nil
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("Hand detection failed, using full image", zap.Error(err))
		hands = nil
	}

	crop := r.cropper.CropHand(img, detector.FirstHand(hands))
	if crop.Cropped {
		r.logger.Debug("Hand detected and cropped",
			zap.Stringer("region", crop.Region))
	} else {
		r.logger.Debug("No hand detected, using full image")
	}

	result, err := r.classifier.Classify(ctx, r.processor.ToTensor(crop.Image))
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	prediction := &models.Prediction{
		Label:           result.Label,
		Confidence:      result.Confidence,
		HandDetected:    crop.Cropped,
		Region:          cropper.ToRegion(crop.Region, img.Bounds()),
		DetectionFailed: detectionFailed,
	}

	r.logger.Info("Sign recognized",
		zap.String("prediction", prediction.Label),
		zap.Float64("confidence", prediction.Confidence),
		zap.Bool("hand_detected", prediction.HandDetected))

	r.record(img, crop, prediction)

	return prediction, nil
}

func (r *Recognizer) detect(ctx context.Context, img image.Image) ([]detector.Hand, error) {
	if r.detectTimeout <= 0 {
		return r.detector.Detect(ctx, img)
	}
	ctx, cancel := context.WithTimeout(ctx, r.detectTimeout)
	defer cancel()
	return r.detector.Detect(ctx, img)
}

// Close waits for pending diagnostics and releases the detector.
func (r *Recognizer) Close() error {
	r.pending.Wait()
	return r.detector.Close()
}

func (r *Recognizer) record(img image.Image, crop cropper.Result, p *models.Prediction) {
	if r.sink == nil {
		return
	}

	capture := diagnostics.Capture{
		ID:           uuid.New().String(),
		Original:     img,
		Processed:    crop.Image,
		Region:       crop.Region,
		Label:        p.Label,
		Confidence:   p.Confidence,
		HandDetected: p.HandDetected,
		CapturedAt:   time.Now(),
	}

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), diagnosticsTimeout)
		defer cancel()
		if err := r.sink.Record(ctx, capture); err != nil {
			r.logger.Warn("Failed to record diagnostics",
				zap.String("capture_id", capture.ID),
				zap.Error(err))
		}
	}()
}
