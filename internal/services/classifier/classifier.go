// Package classifier maps preprocessed hand images to sign labels.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Model runs one forward pass. Implementations need not be safe for
// concurrent use; Service gives each call exclusive access to one Model.
type Model interface {
	Infer(input []float32) ([]float32, error)
	Close() error
}

// Prediction is the classifier's answer for one image.
type Prediction struct {
	Label      string
	Index      int
	Confidence float64 // percent, 0-100
}

// Options control post-processing of model output.
type Options struct {
	// ApplySoftmax converts raw outputs to probabilities before taking the
	// maximum. The reference models already end in softmax and are still
	// passed through it once more, so it defaults to true.
	ApplySoftmax bool
}

// Service classifies tensors with a fixed pool of models. It is immutable
// after New and safe for concurrent use.
type Service struct {
	labels  Labels
	models  chan Model
	all     []Model
	options Options
	logger  *zap.Logger
}

// New takes ownership of models. At least one model is required.
func New(labels Labels, models []Model, options Options, logger *zap.Logger) (*Service, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	if len(models) == 0 {
		return nil, errors.New("classifier needs at least one model")
	}

	pool := make(chan Model, len(models))
	for _, m := range models {
		pool <- m
	}

	logger.Info("Classifier ready",
		zap.Int("classes", len(labels)),
		zap.Int("models", len(models)))

	return &Service{
		labels:  labels,
		models:  pool,
		all:     models,
		options: options,
		logger:  logger,
	}, nil
}

// Labels returns the class names in model output order.
func (s *Service) Labels() Labels {
	return s.labels
}

// Classify runs the input through a free model and returns the best class.
// It waits for a model to become free or ctx to end.
func (s *Service) Classify(ctx context.Context, input []float32) (Prediction, error) {
	var m Model
	select {
	case m = <-s.models:
	case <-ctx.Done():
		return Prediction{}, ctx.Err()
	}
	output, err := m.Infer(input)
	s.models <- m
	if err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	if len(output) != len(s.labels) {
		return Prediction{}, fmt.Errorf("model returned %d scores for %d labels", len(output), len(s.labels))
	}

	scores := output
	if s.options.ApplySoftmax {
		scores = Softmax(output)
	}

	idx := Argmax(scores)
	return Prediction{
		Label:      s.labels[idx],
		Index:      idx,
		Confidence: 100 * float64(scores[idx]),
	}, nil
}

// Close releases every model.
func (s *Service) Close() error {
	var errs []error
	for _, m := range s.all {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Softmax returns exp(x_i - max) normalized to sum to 1.
func Softmax(x []float32) []float32 {
	out := make([]float32, len(x))
	if len(x) == 0 {
		return out
	}

	maxVal := x[0]
	for _, v := range x[1:] {
		maxVal = max(maxVal, v)
	}

	var sum float64
	for i, v := range x {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// Argmax returns the index of the largest value; the first wins ties.
func Argmax(x []float32) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}
