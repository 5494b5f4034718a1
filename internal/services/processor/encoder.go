package processor

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
)

const DefaultQuality = 85

// EncodeImage writes img in the given format. Unknown formats fall back to
// JPEG.
func EncodeImage(w io.Writer, img image.Image, format string, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(w, img)
	case "webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
}

// ContentType maps an output format to its MIME type.
func ContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
