package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type fakeModel struct {
	output []float32
	err    error
	busy   atomic.Int32
	closed bool
	delay  time.Duration
}

func (m *fakeModel) Infer(input []float32) ([]float32, error) {
	if m.busy.Add(1) > 1 {
		panic("model used concurrently")
	}
	defer m.busy.Add(-1)
	time.Sleep(m.delay)
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

func TestParseLabels(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Labels
		wantErr error
	}{
		{name: "lines", input: "A\nB\n\n  C  \n", want: Labels{"A", "B", "C"}},
		{name: "windows line endings", input: "A\r\nB\r\n", want: Labels{"A", "B"}},
		{name: "json", input: ` ["1", "2", "A"] `, want: Labels{"1", "2", "A"}},
		{name: "empty", input: "\n\n", wantErr: ErrNoLabels},
		{name: "empty json", input: "[]", wantErr: ErrNoLabels},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLabels([]byte(tc.input))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := ParseLabels([]byte(`["A",`)); err == nil {
		t.Error("expected an error for malformed json")
	}
}

func TestLoadLabels_WriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class_names.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := (Labels{"A", "B", "Z"}).Write(f); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	got, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Index("Z") != 2 || got.Index("Q") != -1 {
		t.Errorf("unexpected labels %v", got)
	}

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSoftmax(t *testing.T) {
	out := Softmax([]float32{1, 2, 3})

	var sum float64
	for _, v := range out {
		sum += float64(v)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected probabilities to sum to 1, got %f", sum)
	}
	if !(out[2] > out[1] && out[1] > out[0]) {
		t.Errorf("expected softmax to preserve order, got %v", out)
	}

	large := Softmax([]float32{1000, 1000})
	if math.IsNaN(float64(large[0])) || math.Abs(float64(large[0])-0.5) > 1e-6 {
		t.Errorf("expected stable softmax, got %v", large)
	}

	if len(Softmax(nil)) != 0 {
		t.Error("expected empty output for empty input")
	}
}

func TestArgmax(t *testing.T) {
	if got := Argmax([]float32{0.1, 0.7, 0.7, 0.2}); got != 1 {
		t.Errorf("expected first maximum at 1, got %d", got)
	}
}

func TestService_Classify(t *testing.T) {
	labels := Labels{"A", "B", "C"}

	t.Run("softmax confidence", func(t *testing.T) {
		model := &fakeModel{output: []float32{0.1, 0.8, 0.1}}
		svc, err := New(labels, []Model{model}, Options{ApplySoftmax: true}, zap.NewNop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := svc.Classify(context.Background(), make([]float32, 3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := 100 * float64(Softmax(model.output)[1])
		if got.Label != "B" || got.Index != 1 || math.Abs(got.Confidence-want) > 1e-4 {
			t.Errorf("unexpected prediction %+v, want confidence %f", got, want)
		}
	})

	t.Run("raw probabilities", func(t *testing.T) {
		model := &fakeModel{output: []float32{0.05, 0.15, 0.8}}
		svc, _ := New(labels, []Model{model}, Options{}, zap.NewNop())

		got, err := svc.Classify(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Label != "C" || math.Abs(got.Confidence-80) > 1e-4 {
			t.Errorf("unexpected prediction %+v", got)
		}
	})

	t.Run("output size mismatch", func(t *testing.T) {
		svc, _ := New(labels, []Model{&fakeModel{output: []float32{1, 2}}}, Options{}, zap.NewNop())
		if _, err := svc.Classify(context.Background(), nil); err == nil {
			t.Error("expected an error for mismatched output size")
		}
	})

	t.Run("model error returns the model", func(t *testing.T) {
		svc, _ := New(labels, []Model{&fakeModel{err: errors.New("boom")}}, Options{}, zap.NewNop())
		for i := 0; i < 3; i++ {
			if _, err := svc.Classify(context.Background(), nil); err == nil {
				t.Fatal("expected an error")
			}
		}
	})

	t.Run("waits for a free model until the context ends", func(t *testing.T) {
		model := &fakeModel{output: []float32{1, 0, 0}, delay: 200 * time.Millisecond}
		svc, _ := New(labels, []Model{model}, Options{}, zap.NewNop())

		go svc.Classify(context.Background(), nil)
		time.Sleep(20 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := svc.Classify(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestService_ConcurrentUse(t *testing.T) {
	models := []Model{
		&fakeModel{output: []float32{0, 1}, delay: time.Millisecond},
		&fakeModel{output: []float32{0, 1}, delay: time.Millisecond},
	}
	svc, err := New(Labels{"A", "B"}, models, Options{ApplySoftmax: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, err := svc.Classify(context.Background(), nil); err != nil || p.Label != "B" {
				t.Errorf("unexpected result %+v, %v", p, err)
			}
		}()
	}
	wg.Wait()

	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, m := range models {
		if !m.(*fakeModel).closed {
			t.Error("expected every model to be closed")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, []Model{&fakeModel{}}, Options{}, zap.NewNop()); !errors.Is(err, ErrNoLabels) {
		t.Errorf("expected ErrNoLabels, got %v", err)
	}
	if _, err := New(Labels{"A"}, nil, Options{}, zap.NewNop()); err == nil {
		t.Error("expected an error without models")
	}
}
