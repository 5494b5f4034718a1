// Package cropper cuts the hand region out of an image using the landmarks
// reported by a hand detector.
package cropper

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/sign-recognition/internal/models"
)

// DefaultPadding is the pixel margin added around the landmark bounding box.
const DefaultPadding = 40

// Cropper crops hands with a fixed padding. The zero value uses no padding;
// use New for the default.
type Cropper struct {
	padding int
}

// Result describes a crop. When Cropped is false, Image is the input image
// and Region is the zero value.
type Result struct {
	Image   image.Image
	Region  image.Rectangle
	Cropped bool
}

func New(padding int) *Cropper {
	return &Cropper{padding: max(0, padding)}
}

// Padding returns the margin applied by CropHand.
func (c *Cropper) Padding() int {
	return c.padding
}

// CropHand crops img around landmarks using the configured padding.
func (c *Cropper) CropHand(img image.Image, landmarks []models.Landmark) Result {
	rect, ok := Region(img.Bounds(), landmarks, c.padding)
	if !ok {
		return Result{Image: img}
	}
	return Result{
		Image:   imaging.Crop(img, rect),
		Region:  rect,
		Cropped: true,
	}
}

// Crop returns the sub-image tightly bounding landmarks, expanded by padding
// pixels on each side and clamped to the image. It returns img unchanged when
// landmarks is empty or the clamped region has no area. The returned image is
// a copy; img is never modified.
func Crop(img image.Image, landmarks []models.Landmark, padding int) image.Image {
	rect, ok := Region(img.Bounds(), landmarks, padding)
	if !ok {
		return img
	}
	return imaging.Crop(img, rect)
}

// Region computes the padded and clamped landmark box in the coordinate
// space of bounds. ok is false when there are no landmarks or the box is
// empty after clamping.
func Region(bounds image.Rectangle, landmarks []models.Landmark, padding int) (image.Rectangle, bool) {
	if len(landmarks) == 0 {
		return image.Rectangle{}, false
	}
	padding = max(0, padding)
	w, h := bounds.Dx(), bounds.Dy()

	xMin, yMin := math.MaxInt, math.MaxInt
	xMax, yMax := math.MinInt, math.MinInt
	for _, lm := range landmarks {
		px := int(math.Round(lm.X * float64(w)))
		py := int(math.Round(lm.Y * float64(h)))
		xMin = min(xMin, px)
		yMin = min(yMin, py)
		xMax = max(xMax, px)
		yMax = max(yMax, py)
	}

	xMin = max(0, xMin-padding)
	yMin = max(0, yMin-padding)
	xMax = min(w, xMax+padding)
	yMax = min(h, yMax+padding)

	if xMax <= xMin || yMax <= yMin {
		return image.Rectangle{}, false
	}

	return image.Rect(xMin, yMin, xMax, yMax).Add(bounds.Min), true
}

// ToRegion converts a rectangle into its API representation relative to the
// image origin.
func ToRegion(rect, bounds image.Rectangle) *models.Region {
	if rect.Empty() {
		return nil
	}
	r := rect.Sub(bounds.Min)
	return &models.Region{XMin: r.Min.X, YMin: r.Min.Y, XMax: r.Max.X, YMax: r.Max.Y}
}
