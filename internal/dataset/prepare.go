package dataset

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/phambaophuc/sign-recognition/internal/services/cropper"
	"github.com/phambaophuc/sign-recognition/internal/services/detector"
	"go.uber.org/zap"
)

// LabelsFile is written next to the prepared splits.
const LabelsFile = "class_names.txt"

// Preparer turns a raw dataset into fixed-size training images. When a
// Detector is set each image is cropped to the detected hand first, the
// same way the service crops uploads.
type Preparer struct {
	Size      int
	TestRatio float64
	Seed      int64
	Detector  detector.Detector
	Cropper   *cropper.Cropper
	Logger    *zap.Logger
}

// Report summarizes a Prepare run.
type Report struct {
	Classes []string `json:"classes"`
	Train   int      `json:"train"`
	Test    int      `json:"test"`
	Cropped int      `json:"cropped"`
	Skipped int      `json:"skipped"`
}

// Prepare reads src and writes out/train/<class>/*.png,
// out/test/<class>/*.png and out/class_names.txt. Unreadable images are
// skipped and counted.
func (p *Preparer) Prepare(ctx context.Context, src, out string) (*Report, error) {
	classes, samples, err := Scan(src)
	if err != nil {
		return nil, err
	}

	train, test := Split(samples, p.TestRatio, p.Seed)
	report := &Report{Classes: classes}
	taken := make(map[string]bool)

	for _, split := range []struct {
		name    string
		samples []Sample
		count   *int
	}{
		{"train", train, &report.Train},
		{"test", test, &report.Test},
	} {
		for _, s := range split.samples {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			dir := filepath.Join(out, split.name, s.Class)
			cropped, err := p.prepareOne(ctx, s, dir, outputName(s, dir, taken))
			if err != nil {
				p.Logger.Warn("Skipping image", zap.String("path", s.Path), zap.Error(err))
				report.Skipped++
				continue
			}
			if cropped {
				report.Cropped++
			}
			*split.count++
		}
	}

	f, err := os.Create(filepath.Join(out, LabelsFile))
	if err != nil {
		return report, err
	}
	defer f.Close()
	if err := classifier.Labels(classes).Write(f); err != nil {
		return report, err
	}

	p.Logger.Info("Dataset prepared",
		zap.Int("classes", len(classes)),
		zap.Int("train", report.Train),
		zap.Int("test", report.Test),
		zap.Int("cropped", report.Cropped),
		zap.Int("skipped", report.Skipped))

	return report, f.Close()
}

func (p *Preparer) prepareOne(ctx context.Context, s Sample, dir, name string) (bool, error) {
	img, err := imaging.Open(s.Path, imaging.AutoOrientation(true))
	if err != nil {
		return false, err
	}

	img, cropped := p.crop(ctx, img)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}

	resized := imaging.Resize(img, p.Size, p.Size, imaging.Linear)
	if err := imaging.Save(resized, filepath.Join(dir, name)); err != nil {
		return false, fmt.Errorf("save: %w", err)
	}
	return cropped, nil
}

// outputName picks a .png name in dir that no earlier sample took. Sources
// that share a base name, like a.jpg and a.png, keep their extension as a
// suffix.
func outputName(s Sample, dir string, taken map[string]bool) string {
	ext := filepath.Ext(s.Path)
	base := strings.TrimSuffix(filepath.Base(s.Path), ext)

	name := base + ".png"
	if taken[filepath.Join(dir, name)] {
		name = base + "_" + strings.ToLower(strings.TrimPrefix(ext, ".")) + ".png"
	}
	for i := 2; taken[filepath.Join(dir, name)]; i++ {
		name = fmt.Sprintf("%s_%d.png", base, i)
	}

	taken[filepath.Join(dir, name)] = true
	return name
}

func (p *Preparer) crop(ctx context.Context, img image.Image) (image.Image, bool) {
	if p.Detector == nil || p.Cropper == nil {
		return img, false
	}

	hands, err := p.Detector.Detect(ctx, img)
	if err != nil {
		p.Logger.Debug("Hand detection failed, keeping full image", zap.Error(err))
		return img, false
	}

	res := p.Cropper.CropHand(img, detector.FirstHand(hands))
	return res.Image, res.Cropped
}
