// Package detector locates hands in images and reports their landmarks.
package detector

import (
	"context"
	"image"

	"github.com/phambaophuc/sign-recognition/internal/models"
)

// Hand landmark indices following the MediaPipe hand model.
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Hand is one detected hand.
type Hand struct {
	Landmarks  []models.Landmark `json:"landmarks"`
	Handedness string            `json:"handedness"` // "Left" or "Right"
	Score      float64           `json:"score"`
}

// Detector finds hands in an image. Implementations return an empty slice
// when no hand is present.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Command starts the landmark sidecar; the first element is the program.
	Command []string

	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config matching single-hand sign recognition.
func DefaultConfig() Config {
	return Config{
		Command:       []string{"python3", "scripts/hand_landmarks.py"},
		MaxHands:      1,
		MinConfidence: 0.5,
	}
}

// FirstHand returns the landmarks of the first hand, or nil.
func FirstHand(hands []Hand) []models.Landmark {
	if len(hands) == 0 {
		return nil
	}
	return hands[0].Landmarks
}

// NopDetector never finds a hand. It is used when cropping is disabled.
type NopDetector struct{}

func (NopDetector) Detect(context.Context, image.Image) ([]Hand, error) { return nil, nil }

func (NopDetector) Close() error { return nil }
