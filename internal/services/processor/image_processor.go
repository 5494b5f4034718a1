package processor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	DefaultInputSize = 128
	MaxFileSize      = 10 << 20 // 10MB
)

// ErrInvalidImage is returned when the input bytes are not a decodable image.
var ErrInvalidImage = errors.New("invalid image")

// ChannelOrder is the channel layout the classifier was trained with.
type ChannelOrder string

const (
	ChannelsRGB ChannelOrder = "rgb"
	ChannelsBGR ChannelOrder = "bgr"
)

// ParseChannelOrder accepts "rgb" or "bgr" in any case.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch ChannelOrder(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelsRGB:
		return ChannelsRGB, nil
	case ChannelsBGR:
		return ChannelsBGR, nil
	default:
		return "", fmt.Errorf("unknown channel order %q", s)
	}
}

// ImageProcessor turns decoded images into classifier input.
type ImageProcessor struct {
	inputSize int
	order     ChannelOrder
}

func NewImageProcessor(inputSize int, order ChannelOrder) *ImageProcessor {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	if order == "" {
		order = ChannelsBGR
	}
	return &ImageProcessor{inputSize: inputSize, order: order}
}

// InputSize is the edge length of the square classifier input.
func (p *ImageProcessor) InputSize() int {
	return p.inputSize
}

// TensorLen is the number of float32 values produced by ToTensor.
func (p *ImageProcessor) TensorLen() int {
	return p.inputSize * p.inputSize * 3
}

// DecodeImage decodes any registered format (jpeg, png, gif, bmp, webp).
func (p *ImageProcessor) DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	return img, format, nil
}

// ToTensor resizes img to the input size and flattens it to HWC float32
// values in [0,1] using the configured channel order. The leading batch
// dimension of 1 is implicit.
func (p *ImageProcessor) ToTensor(img image.Image) []float32 {
	resized := p.resizeImage(img)

	out := make([]float32, 0, p.TensorLen())
	for y := 0; y < p.inputSize; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+p.inputSize*4]
		for x := 0; x < p.inputSize; x++ {
			r := float32(row[x*4]) / 255
			g := float32(row[x*4+1]) / 255
			b := float32(row[x*4+2]) / 255
			if p.order == ChannelsBGR {
				out = append(out, b, g, r)
			} else {
				out = append(out, r, g, b)
			}
		}
	}
	return out
}
