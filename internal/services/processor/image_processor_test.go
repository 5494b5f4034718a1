package processor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestToTensor(t *testing.T) {
	img := solid(300, 200, color.RGBA{255, 0, 51, 255})

	t.Run("bgr order", func(t *testing.T) {
		p := NewImageProcessor(8, ChannelsBGR)
		tensor := p.ToTensor(img)
		if len(tensor) != p.TensorLen() || len(tensor) != 8*8*3 {
			t.Fatalf("expected %d values, got %d", 8*8*3, len(tensor))
		}
		if tensor[0] != 0.2 || tensor[1] != 0 || tensor[2] != 1 {
			t.Errorf("expected first pixel [0.2 0 1], got %v", tensor[:3])
		}
	})

	t.Run("rgb order", func(t *testing.T) {
		p := NewImageProcessor(4, ChannelsRGB)
		tensor := p.ToTensor(img)
		if tensor[0] != 1 || tensor[1] != 0 || tensor[2] != 0.2 {
			t.Errorf("expected first pixel [1 0 0.2], got %v", tensor[:3])
		}
	})

	t.Run("values within unit range", func(t *testing.T) {
		gradient := image.NewRGBA(image.Rect(0, 0, 50, 50))
		for y := 0; y < 50; y++ {
			for x := 0; x < 50; x++ {
				gradient.Set(x, y, color.RGBA{uint8(x * 5), uint8(y * 5), 128, 255})
			}
		}
		for _, v := range NewImageProcessor(0, "").ToTensor(gradient) {
			if v < 0 || v > 1 {
				t.Fatalf("value %v outside [0,1]", v)
			}
		}
	})
}

func TestNewImageProcessor_Defaults(t *testing.T) {
	p := NewImageProcessor(0, "")
	if p.InputSize() != DefaultInputSize {
		t.Errorf("expected input size %d, got %d", DefaultInputSize, p.InputSize())
	}
	if p.order != ChannelsBGR {
		t.Errorf("expected bgr order, got %q", p.order)
	}
}

func TestParseChannelOrder(t *testing.T) {
	if got, err := ParseChannelOrder(" RGB "); err != nil || got != ChannelsRGB {
		t.Errorf("expected rgb, got %q, %v", got, err)
	}
	if got, err := ParseChannelOrder("bgr"); err != nil || got != ChannelsBGR {
		t.Errorf("expected bgr, got %q, %v", got, err)
	}
	if _, err := ParseChannelOrder("hsv"); err == nil {
		t.Error("expected an error for hsv")
	}
}

func TestDecodeImage(t *testing.T) {
	p := NewImageProcessor(0, "")

	t.Run("png", func(t *testing.T) {
		img, format, err := p.DecodeImage(bytes.NewReader(encodePNG(t, solid(10, 6, color.White))))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if format != "png" || img.Bounds().Dx() != 10 || img.Bounds().Dy() != 6 {
			t.Errorf("unexpected decode result: %s %v", format, img.Bounds())
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := p.DecodeImage(strings.NewReader("definitely not an image"))
		if !errors.Is(err, ErrInvalidImage) {
			t.Errorf("expected ErrInvalidImage, got %v", err)
		}
	})
}

func TestValidateImage(t *testing.T) {
	p := NewImageProcessor(0, "")
	data := encodePNG(t, solid(16, 16, color.Black))

	t.Run("valid image rewinds", func(t *testing.T) {
		r := bytes.NewReader(data)
		if err := p.ValidateImage(r, MaxFileSize); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := p.DecodeImage(r); err != nil {
			t.Errorf("expected reader to be rewound: %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		if err := p.ValidateImage(bytes.NewReader(data), 10); err == nil {
			t.Error("expected a size error")
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := p.ValidateImage(bytes.NewReader(nil), MaxFileSize)
		if !errors.Is(err, ErrInvalidImage) {
			t.Errorf("expected ErrInvalidImage, got %v", err)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		err := p.ValidateImage(strings.NewReader("plain text body"), MaxFileSize)
		if !errors.Is(err, ErrInvalidImage) {
			t.Errorf("expected ErrInvalidImage, got %v", err)
		}
	})

	t.Run("too many pixels", func(t *testing.T) {
		err := p.ValidateImage(bytes.NewReader(withPNGSize(t, data, 50000, 50000)), MaxFileSize)
		if !errors.Is(err, ErrInvalidImage) {
			t.Errorf("expected ErrInvalidImage, got %v", err)
		}
	})
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG and fixes up
// its checksum. Only the header is valid afterwards.
func withPNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	// 8 byte signature, 4 byte length, then "IHDR".
	if string(out[12:16]) != "IHDR" {
		t.Fatalf("unexpected PNG layout")
	}
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestEncodeImage(t *testing.T) {
	p := NewImageProcessor(0, "")
	img := solid(20, 10, color.RGBA{10, 200, 30, 255})

	for _, format := range []string{"jpeg", "png", "webp", "unknown"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeImage(&buf, img, format, 90); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			decoded, _, err := p.DecodeImage(&buf)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if decoded.Bounds().Dx() != 20 || decoded.Bounds().Dy() != 10 {
				t.Errorf("unexpected bounds %v", decoded.Bounds())
			}
		})
	}

	if ContentType("webp") != "image/webp" || ContentType("bogus") != "image/jpeg" {
		t.Error("unexpected content types")
	}
}

func TestAnnotate(t *testing.T) {
	img := solid(100, 100, color.RGBA{0, 0, 255, 255})
	region := image.Rect(20, 30, 60, 90)

	out := Annotate(img, region, "A 97.1%")

	if got := out.RGBAAt(20, 50); got != boxColor {
		t.Errorf("expected box colour on the left edge, got %v", got)
	}
	if got := out.RGBAAt(40, 60); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("expected the interior untouched, got %v", got)
	}
	if got := img.RGBAAt(20, 50); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("annotate modified its input: %v", got)
	}
	if got := out.RGBAAt(1, 1); got == (color.RGBA{0, 0, 255, 255}) {
		t.Error("expected the label background in the corner")
	}
}
