package models

import "time"

// RecognitionJob is an asynchronous recognition request carried over the
// queue and tracked in the job store.
type RecognitionJob struct {
	ID        string              `json:"id"`
	ImageURL  string              `json:"image_url,omitempty"`
	ImagePath string              `json:"image_path,omitempty"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Result    *PredictionResponse `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// AsyncRecognizeRequest names the image by URL or by its path in the
// storage bucket. Exactly one of the two must be set.
type AsyncRecognizeRequest struct {
	ImageURL  string `json:"image_url" binding:"omitempty,url"`
	ImagePath string `json:"image_path"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
