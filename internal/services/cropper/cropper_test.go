package cropper

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/phambaophuc/sign-recognition/internal/models"
)

func newTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 64, 255})
		}
	}
	return img
}

func TestCrop_NoLandmarksReturnsInput(t *testing.T) {
	img := newTestImage(200, 120)

	for _, landmarks := range [][]models.Landmark{nil, {}} {
		got := Crop(img, landmarks, DefaultPadding)
		if got != image.Image(img) {
			t.Errorf("expected the input image to be returned unchanged")
		}
	}
}

func TestRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 200)

	testCases := []struct {
		name      string
		landmarks []models.Landmark
		padding   int
		want      image.Rectangle
		wantOK    bool
	}{
		{
			name: "interior box needs no clamping",
			landmarks: []models.Landmark{
				{X: 0.4, Y: 0.35},
				{X: 0.6, Y: 0.65},
				{X: 0.5, Y: 0.5},
			},
			padding: 40,
			want:    image.Rect(40, 30, 160, 170),
			wantOK:  true,
		},
		{
			name: "box near top-left corner is clamped",
			landmarks: []models.Landmark{
				{X: 0, Y: 0},
				{X: 0.15, Y: 0.2},
			},
			padding: 40,
			want:    image.Rect(0, 0, 70, 80),
			wantOK:  true,
		},
		{
			name: "box near bottom-right corner is clamped",
			landmarks: []models.Landmark{
				{X: 0.9, Y: 0.95},
				{X: 1, Y: 1},
			},
			padding: 40,
			want:    image.Rect(140, 150, 200, 200),
			wantOK:  true,
		},
		{
			name:      "all landmarks at origin",
			landmarks: []models.Landmark{{X: 0, Y: 0}, {X: 0, Y: 0}},
			padding:   5,
			want:      image.Rect(0, 0, 5, 5),
			wantOK:    true,
		},
		{
			name:      "single landmark gains area from padding",
			landmarks: []models.Landmark{{X: 0.5, Y: 0.5}},
			padding:   10,
			want:      image.Rect(90, 90, 110, 110),
			wantOK:    true,
		},
		{
			name:      "single landmark without padding has no area",
			landmarks: []models.Landmark{{X: 0.5, Y: 0.5}},
			padding:   0,
			wantOK:    false,
		},
		{
			name:      "landmarks outside the image",
			landmarks: []models.Landmark{{X: 1.5, Y: 1.5}, {X: 1.8, Y: 1.9}},
			padding:   40,
			wantOK:    false,
		},
		{
			name:      "negative padding behaves as zero",
			landmarks: []models.Landmark{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.5}},
			padding:   -10,
			want:      image.Rect(50, 50, 150, 100),
			wantOK:    true,
		},
		{
			name:      "coordinates are rounded to the nearest pixel",
			landmarks: []models.Landmark{{X: 0.4024, Y: 0.3976}, {X: 0.5976, Y: 0.6024}},
			padding:   0,
			want:      image.Rect(80, 80, 120, 120),
			wantOK:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Region(bounds, tc.landmarks, tc.padding)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if got != tc.want {
				t.Errorf("expected region %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCrop_Dimensions(t *testing.T) {
	img := newTestImage(200, 200)

	t.Run("interior hand", func(t *testing.T) {
		landmarks := []models.Landmark{{X: 0.4, Y: 0.35}, {X: 0.6, Y: 0.65}}
		got := Crop(img, landmarks, 40).Bounds()
		if got.Dx() != 120 || got.Dy() != 140 {
			t.Errorf("expected 120x140 crop, got %dx%d", got.Dx(), got.Dy())
		}
	})

	t.Run("hand at the border", func(t *testing.T) {
		landmarks := []models.Landmark{{X: 0, Y: 0}, {X: 0.15, Y: 0.2}}
		got := Crop(img, landmarks, 40).Bounds()
		if got.Dx() != 70 || got.Dy() != 80 {
			t.Errorf("expected 70x80 crop, got %dx%d", got.Dx(), got.Dy())
		}
	})

	t.Run("degenerate box falls back to input", func(t *testing.T) {
		landmarks := []models.Landmark{{X: 0.3, Y: 0.3}, {X: 0.3, Y: 0.3}}
		if got := Crop(img, landmarks, 0); got != image.Image(img) {
			t.Errorf("expected the input image for a zero-area crop")
		}
	})

	t.Run("never larger than input and never empty", func(t *testing.T) {
		sets := [][]models.Landmark{
			{{X: 0, Y: 0}},
			{{X: 1, Y: 1}},
			{{X: 0, Y: 1}, {X: 1, Y: 0}},
			{{X: 0.01, Y: 0.99}, {X: 0.02, Y: 0.98}},
			{{X: -0.5, Y: -0.5}, {X: 0.1, Y: 0.1}},
		}
		for _, landmarks := range sets {
			for _, padding := range []int{1, 10, 40, 500} {
				b := Crop(img, landmarks, padding).Bounds()
				if b.Dx() <= 0 || b.Dy() <= 0 {
					t.Errorf("landmarks %v padding %d: empty crop %v", landmarks, padding, b)
				}
				if b.Dx() > 200 || b.Dy() > 200 {
					t.Errorf("landmarks %v padding %d: crop %v larger than input", landmarks, padding, b)
				}
			}
		}
	})
}

func TestRegion_PaddingMonotonic(t *testing.T) {
	bounds := image.Rect(0, 0, 320, 240)
	landmarks := []models.Landmark{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.6}, {X: 0.2, Y: 0.4}}

	prev, ok := Region(bounds, landmarks, 0)
	if !ok {
		t.Fatal("expected a region without padding")
	}
	for padding := 1; padding <= 300; padding += 7 {
		cur, ok := Region(bounds, landmarks, padding)
		if !ok {
			t.Fatalf("padding %d: expected a region", padding)
		}
		if !prev.In(cur) {
			t.Fatalf("padding %d: region %v does not contain %v", padding, cur, prev)
		}
		if !cur.In(bounds) {
			t.Fatalf("padding %d: region %v escapes bounds %v", padding, cur, bounds)
		}
		prev = cur
	}
}

func TestCrop_CopiesPixels(t *testing.T) {
	img := newTestImage(200, 200)
	marker := color.RGBA{255, 0, 0, 255}
	img.Set(80, 70, marker)

	landmarks := []models.Landmark{{X: 0.4, Y: 0.35}, {X: 0.6, Y: 0.65}}
	out := Crop(img, landmarks, 40)

	r, g, b, a := out.At(40, 40).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("expected marker pixel at (40,40), got %v %v %v %v", r>>8, g>>8, b>>8, a>>8)
	}

	out.(interface{ Set(int, int, color.Color) }).Set(0, 0, color.RGBA{1, 2, 3, 255})
	if got := img.RGBAAt(40, 30); got == (color.RGBA{1, 2, 3, 255}) {
		t.Error("writing to the crop modified the input image")
	}
}

func TestRegion_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 210, 220))
	landmarks := []models.Landmark{{X: 0.4, Y: 0.35}, {X: 0.6, Y: 0.65}}

	rect, ok := Region(img.Bounds(), landmarks, 40)
	if !ok {
		t.Fatal("expected a region")
	}
	if want := image.Rect(50, 50, 170, 190); rect != want {
		t.Errorf("expected %v, got %v", want, rect)
	}

	got := ToRegion(rect, img.Bounds())
	want := &models.Region{XMin: 40, YMin: 30, XMax: 160, YMax: 170}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}

	if b := Crop(img, landmarks, 40).Bounds(); b.Dx() != 120 || b.Dy() != 140 {
		t.Errorf("expected 120x140 crop, got %v", b)
	}
}

func TestCropper_CropHand(t *testing.T) {
	img := newTestImage(200, 200)

	t.Run("default padding", func(t *testing.T) {
		c := New(DefaultPadding)
		res := c.CropHand(img, []models.Landmark{{X: 0.4, Y: 0.35}, {X: 0.6, Y: 0.65}})
		if !res.Cropped {
			t.Fatal("expected the hand to be cropped")
		}
		if res.Region != image.Rect(40, 30, 160, 170) {
			t.Errorf("unexpected region %v", res.Region)
		}
	})

	t.Run("fallback keeps input", func(t *testing.T) {
		c := New(-3)
		if c.Padding() != 0 {
			t.Errorf("expected padding 0, got %d", c.Padding())
		}
		res := c.CropHand(img, nil)
		if res.Cropped || res.Image != image.Image(img) {
			t.Error("expected fallback to the input image")
		}
	})
}

func TestCropper_Concurrent(t *testing.T) {
	img := newTestImage(200, 200)
	before := append([]uint8(nil), img.Pix...)
	c := New(DefaultPadding)
	landmarks := []models.Landmark{{X: 0.4, Y: 0.35}, {X: 0.6, Y: 0.65}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.CropHand(img, landmarks)
			if !res.Cropped || res.Image.Bounds().Dx() != 120 || res.Image.Bounds().Dy() != 140 {
				t.Errorf("unexpected crop %v", res.Region)
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(before, img.Pix); diff != "" {
		t.Error("concurrent crops modified the input image")
	}
}
