package dataset

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
	"go.uber.org/zap"
)

type Classifier interface {
	Classify(ctx context.Context, input []float32) (classifier.Prediction, error)
}

// ClassScore counts results for one true class.
type ClassScore struct {
	Class   string `json:"class"`
	Total   int    `json:"total"`
	Correct int    `json:"correct"`
}

func (s ClassScore) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Evaluation is the outcome of classifying a labelled directory.
type Evaluation struct {
	Total   int          `json:"total"`
	Correct int          `json:"correct"`
	Skipped int          `json:"skipped"`
	Classes []ClassScore `json:"classes"`
}

func (e *Evaluation) Accuracy() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Total)
}

// Evaluate classifies every image under dir, which has the layout Scan
// expects, and scores the predictions against the directory names. Images
// are classified as they are; prepared splits are already cropped.
func Evaluate(ctx context.Context, dir string, proc *processor.ImageProcessor, cls Classifier, logger *zap.Logger) (*Evaluation, error) {
	classes, samples, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]*ClassScore, len(classes))
	for _, c := range classes {
		scores[c] = &ClassScore{Class: c}
	}

	eval := &Evaluation{}
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pred, err := classifyFile(ctx, s.Path, proc, cls)
		if err != nil {
			logger.Warn("Skipping image", zap.String("path", s.Path), zap.Error(err))
			eval.Skipped++
			continue
		}

		score := scores[s.Class]
		score.Total++
		eval.Total++
		if pred.Label == s.Class {
			score.Correct++
			eval.Correct++
		}
	}

	for _, c := range classes {
		eval.Classes = append(eval.Classes, *scores[c])
	}
	sort.Slice(eval.Classes, func(i, j int) bool { return eval.Classes[i].Class < eval.Classes[j].Class })

	return eval, nil
}

func classifyFile(ctx context.Context, path string, proc *processor.ImageProcessor, cls Classifier) (classifier.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return classifier.Prediction{}, err
	}
	defer f.Close()

	img, _, err := proc.DecodeImage(f)
	if err != nil {
		return classifier.Prediction{}, err
	}

	pred, err := cls.Classify(ctx, proc.ToTensor(img))
	if err != nil {
		return classifier.Prediction{}, fmt.Errorf("classify: %w", err)
	}
	return pred, nil
}
