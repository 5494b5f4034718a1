package models

import "time"

// Prediction is the outcome of running the recognition pipeline on one image.
type Prediction struct {
	Label        string
	Confidence   float64
	HandDetected bool
	Region       *Region

	// DetectionFailed is set when the detector errored and the whole image
	// was classified instead.
	DetectionFailed bool
}

// PredictionResponse is the JSON body returned by the predict endpoints.
type PredictionResponse struct {
	Prediction   string  `json:"prediction"`
	Confidence   float64 `json:"confidence"`
	HandDetected bool    `json:"hand_detected"`
	Region       *Region `json:"region,omitempty"`
}

func (p *Prediction) Response() PredictionResponse {
	return PredictionResponse{
		Prediction:   p.Label,
		Confidence:   p.Confidence,
		HandDetected: p.HandDetected,
		Region:       p.Region,
	}
}

// HistoryEntry is a stored prediction.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	Label        string    `json:"prediction"`
	Confidence   float64   `json:"confidence"`
	HandDetected bool      `json:"hand_detected"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	SourceUpload = "upload"
	SourceQueue  = "queue"
)
