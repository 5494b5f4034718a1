// Package diagnostics keeps copies of what the classifier was shown so that
// bad predictions can be inspected later.
package diagnostics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/models"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
)

// Capture is one processed request.
type Capture struct {
	ID           string
	Original     image.Image
	Processed    image.Image
	Region       image.Rectangle
	Label        string
	Confidence   float64
	HandDetected bool
	CapturedAt   time.Time
}

// Sink stores captures.
type Sink interface {
	Record(ctx context.Context, c Capture) error
}

// Uploader stores encoded files and returns where they ended up.
type Uploader interface {
	UploadMultiple(ctx context.Context, files []models.UploadFile) ([]string, error)
}

// Files renders a capture into its stored files: the crop fed to the
// classifier and the original annotated with the crop box and label.
func Files(c Capture, format string, quality int) (map[string]*bytes.Buffer, error) {
	ext := format
	if ext == "jpg" || ext == "" {
		ext = "jpeg"
	}

	annotated := processor.Annotate(c.Original, c.Region, fmt.Sprintf("%s %.1f%%", c.Label, c.Confidence))

	files := make(map[string]*bytes.Buffer, 2)
	for name, img := range map[string]image.Image{
		"crop":      c.Processed,
		"annotated": annotated,
	} {
		buf := &bytes.Buffer{}
		if err := processor.EncodeImage(buf, img, ext, quality); err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		files[fmt.Sprintf("%s_%s.%s", c.ID, name, ext)] = buf
	}
	return files, nil
}

// DirSink writes captures to a local directory, one subdirectory per day.
type DirSink struct {
	dir     string
	format  string
	quality int
}

func NewDirSink(dir, format string, quality int) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}
	return &DirSink{dir: dir, format: format, quality: quality}, nil
}

func (s *DirSink) Record(ctx context.Context, c Capture) error {
	files, err := Files(c, s.format, s.quality)
	if err != nil {
		return err
	}

	day := filepath.Join(s.dir, c.CapturedAt.Format("2006-01-02"))
	if err := os.MkdirAll(day, 0o755); err != nil {
		return err
	}

	for name, buf := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(day, name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// StorageSink uploads captures through an Uploader such as the Supabase
// storage service.
type StorageSink struct {
	uploader Uploader
	format   string
	quality  int
}

func NewStorageSink(uploader Uploader, format string, quality int) *StorageSink {
	return &StorageSink{uploader: uploader, format: format, quality: quality}
}

func (s *StorageSink) Record(ctx context.Context, c Capture) error {
	files, err := Files(c, s.format, s.quality)
	if err != nil {
		return err
	}

	uploads := make([]models.UploadFile, 0, len(files))
	for name, buf := range files {
		uploads = append(uploads, models.UploadFile{
			Filename:    "diagnostics/" + name,
			ContentType: processor.ContentType(s.format),
			Data:        buf.Bytes(),
		})
	}

	if _, err := s.uploader.UploadMultiple(ctx, uploads); err != nil {
		return fmt.Errorf("upload capture %s: %w", c.ID, err)
	}
	return nil
}
