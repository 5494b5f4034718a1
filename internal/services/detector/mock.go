package detector

import (
	"context"
	"image"
	"sync"

	"github.com/phambaophuc/sign-recognition/internal/models"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Hand
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(ctx context.Context, img image.Image) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmHand returns a right hand with all fingers extended, centred in
// the frame.
func OpenPalmHand() Hand {
	points := make([]models.Landmark, NumLandmarks)

	points[Wrist] = models.Landmark{X: 0.5, Y: 0.8}

	points[ThumbCMC] = models.Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	points[ThumbMCP] = models.Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	points[ThumbIP] = models.Landmark{X: 0.68, Y: 0.65, Z: 0.03}
	points[ThumbTip] = models.Landmark{X: 0.73, Y: 0.60, Z: 0.03}

	points[IndexMCP] = models.Landmark{X: 0.55, Y: 0.68}
	points[IndexPIP] = models.Landmark{X: 0.57, Y: 0.55}
	points[IndexDIP] = models.Landmark{X: 0.58, Y: 0.45}
	points[IndexTip] = models.Landmark{X: 0.58, Y: 0.35}

	points[MiddleMCP] = models.Landmark{X: 0.50, Y: 0.66}
	points[MiddlePIP] = models.Landmark{X: 0.50, Y: 0.52}
	points[MiddleDIP] = models.Landmark{X: 0.50, Y: 0.40}
	points[MiddleTip] = models.Landmark{X: 0.50, Y: 0.28}

	points[RingMCP] = models.Landmark{X: 0.45, Y: 0.68}
	points[RingPIP] = models.Landmark{X: 0.43, Y: 0.55}
	points[RingDIP] = models.Landmark{X: 0.42, Y: 0.45}
	points[RingTip] = models.Landmark{X: 0.42, Y: 0.35}

	points[PinkyMCP] = models.Landmark{X: 0.40, Y: 0.70}
	points[PinkyPIP] = models.Landmark{X: 0.37, Y: 0.60}
	points[PinkyDIP] = models.Landmark{X: 0.35, Y: 0.50}
	points[PinkyTip] = models.Landmark{X: 0.34, Y: 0.42}

	return Hand{Landmarks: points, Handedness: "Right", Score: 0.95}
}

// FistHand returns a closed right hand in the lower-left quadrant, close to
// the image border.
func FistHand() Hand {
	points := make([]models.Landmark, NumLandmarks)
	for i := range points {
		col := float64(i % 5)
		row := float64(i / 5)
		points[i] = models.Landmark{X: 0.02 + col*0.04, Y: 0.78 + row*0.04}
	}
	return Hand{Landmarks: points, Handedness: "Right", Score: 0.9}
}
