package processor

import (
	"fmt"
	"image"
	"io"
)

// MaxPixels bounds the decoded size of an upload. Anything larger is
// rejected from its header alone.
const MaxPixels = 40_000_000

// ValidateImage checks the upload size and reads the image header, leaving
// the reader positioned at the start. Header problems and oversized
// dimensions wrap ErrInvalidImage.
func (p *ImageProcessor) ValidateImage(file io.ReadSeeker, maxSize int64) error {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to read file size: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	if size == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize)
	}

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty %s image", ErrInvalidImage, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d %s exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, format, MaxPixels)
	}

	_, err = file.Seek(0, io.SeekStart)
	return err
}
