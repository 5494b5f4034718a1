package processor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	labelPadding = 4
	boxThickness = 2
)

var (
	boxColor   = color.RGBA{0, 220, 0, 255}
	labelColor = color.RGBA{255, 255, 255, 255}
	labelBack  = color.RGBA{0, 0, 0, 180}
)

// Annotate returns a copy of img with region outlined and text drawn in the
// top-left corner. An empty region draws only the text.
func Annotate(img image.Image, region image.Rectangle, text string) *image.RGBA {
	bounds := img.Bounds()
	annotated := image.NewRGBA(bounds)
	draw.Draw(annotated, bounds, img, bounds.Min, draw.Src)

	if !region.Empty() {
		drawBox(annotated, region.Intersect(bounds))
	}
	if text != "" {
		drawLabel(annotated, text)
	}

	return annotated
}

func drawBox(img *image.RGBA, r image.Rectangle) {
	src := image.NewUniform(boxColor)
	t := min(boxThickness, r.Dx(), r.Dy())

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

func drawLabel(img *image.RGBA, text string) {
	bounds := img.Bounds()
	face := basicfont.Face7x13

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	back := image.Rect(0, 0, width+2*labelPadding, height+2*labelPadding).Add(bounds.Min).Intersect(bounds)
	draw.Draw(img, back, image.NewUniform(labelBack), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(bounds.Min.X + labelPadding),
		Y: fixed.I(bounds.Min.Y+labelPadding) + face.Metrics().Ascent,
	}
	d.DrawString(text)
}
