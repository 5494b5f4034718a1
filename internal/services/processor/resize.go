package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// resizeImage stretches img to the square input size. Aspect ratio is not
// preserved, matching how the training set was prepared.
func (p *ImageProcessor) resizeImage(img image.Image) *image.NRGBA {
	return imaging.Resize(img, p.inputSize, p.inputSize, imaging.Linear)
}
