package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap"
)

// TestHelperProcess is not a real test. It stands in for the landmark sidecar
// when GO_WANT_HELPER_PROCESS is set.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	mode := os.Getenv("HELPER_MODE")
	if mode == "wrapper" {
		// Act like a launcher script: the real sidecar is a child that
		// shares our stdio.
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		child.Env = append(os.Environ(), "HELPER_MODE=hang")
		child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
		child.Run()
		return
	}

	in := bufio.NewReader(os.Stdin)
	out := json.NewEncoder(os.Stdout)
	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(in, header); err != nil {
			return
		}
		frame := make([]byte, binary.BigEndian.Uint32(header))
		if _, err := io.ReadFull(in, frame); err != nil {
			return
		}

		switch mode {
		case "hang":
			time.Sleep(time.Minute)
		case "reject":
			out.Encode(map[string]string{"error": "no image decoder"})
			continue
		}

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame))
		if err != nil {
			out.Encode(map[string]string{"error": "bad frame"})
			continue
		}

		// Report one hand per 100 pixels of width so MaxHands truncation is visible.
		var hands []Hand
		for i := 0; i < cfg.Width/100; i++ {
			hands = append(hands, OpenPalmHand())
		}
		out.Encode(map[string]any{"hands": hands})
	}
}

func helperConfig(t *testing.T, mode string) Config {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_MODE", mode)
	return Config{
		Command:       []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		MaxHands:      1,
		MinConfidence: 0.5,
	}
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 150, 120, 255})
		}
	}
	return img
}

func TestMediaPipeDetector_Detect(t *testing.T) {
	d, err := NewMediaPipeDetector(helperConfig(t, ""), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	t.Run("returns at most MaxHands", func(t *testing.T) {
		hands, err := d.Detect(context.Background(), solidImage(320, 240))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if len(hands[0].Landmarks) != NumLandmarks {
			t.Errorf("expected %d landmarks, got %d", NumLandmarks, len(hands[0].Landmarks))
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := d.Detect(context.Background(), solidImage(64, 64))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("reuses the running sidecar", func(t *testing.T) {
		d.mu.Lock()
		pid := d.cmd.Process.Pid
		d.mu.Unlock()

		if _, err := d.Detect(context.Background(), solidImage(120, 120)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.cmd.Process.Pid != pid {
			t.Errorf("expected sidecar pid %d to be reused, got %d", pid, d.cmd.Process.Pid)
		}
	})
}

func TestMediaPipeDetector_ContextCancel(t *testing.T) {
	d, err := NewMediaPipeDetector(helperConfig(t, "hang"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = d.Detect(ctx, solidImage(200, 200))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		t.Error("expected the sidecar to be stopped after cancellation")
	}
}

func TestMediaPipeDetector_ContextCancelKillsChildren(t *testing.T) {
	d, err := NewMediaPipeDetector(helperConfig(t, "wrapper"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = d.Detect(ctx, solidImage(200, 200))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Detect took %v to honor its deadline", elapsed)
	}
}

func TestMediaPipeDetector_ExpiredContext(t *testing.T) {
	d, err := NewMediaPipeDetector(helperConfig(t, ""), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, solidImage(64, 64)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		t.Error("expected no sidecar to be started for an expired context")
	}
}

func TestMediaPipeDetector_FrameError(t *testing.T) {
	d, err := NewMediaPipeDetector(helperConfig(t, "reject"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	var pid int
	for i := 0; i < 2; i++ {
		_, err := d.Detect(context.Background(), solidImage(64, 64))
		var rejected *FrameError
		if !errors.As(err, &rejected) || rejected.Message != "no image decoder" {
			t.Fatalf("call %d: expected a frame error, got %v", i, err)
		}

		d.mu.Lock()
		if !d.started {
			d.mu.Unlock()
			t.Fatalf("call %d: sidecar was stopped after a frame error", i)
		}
		if i == 0 {
			pid = d.cmd.Process.Pid
		} else if d.cmd.Process.Pid != pid {
			t.Errorf("expected sidecar pid %d to be reused, got %d", pid, d.cmd.Process.Pid)
		}
		d.mu.Unlock()
	}
}

func TestNewMediaPipeDetector_EmptyCommand(t *testing.T) {
	if _, err := NewMediaPipeDetector(Config{}, zap.NewNop()); err == nil {
		t.Error("expected an error for an empty command")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(context.Background(), nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{OpenPalmHand(), FistHand()})

		hands, err := mock.Detect(context.Background(), nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(context.Background(), nil)
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
		var _ Detector = NopDetector{}
	})
}

func TestFixtureHands(t *testing.T) {
	for name, hand := range map[string]Hand{"open palm": OpenPalmHand(), "fist": FistHand()} {
		t.Run(name, func(t *testing.T) {
			if len(hand.Landmarks) != NumLandmarks {
				t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(hand.Landmarks))
			}
			for i, lm := range hand.Landmarks {
				if lm.X < 0 || lm.X > 1 || lm.Y < 0 || lm.Y > 1 {
					t.Errorf("landmark %d out of range: %+v", i, lm)
				}
			}
		})
	}

	if FirstHand(nil) != nil {
		t.Error("expected nil landmarks for no hands")
	}
	if got := FirstHand([]Hand{FistHand(), OpenPalmHand()}); got[0] != FistHand().Landmarks[0] {
		t.Error("expected the first hand's landmarks")
	}
}
