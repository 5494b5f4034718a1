package models

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse is the error body of the predict and chat endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadFile is one file in a batch upload.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
