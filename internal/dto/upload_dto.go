package dto

import "time"

// UploadResponse describes a stored challenge attachment.
type UploadResponse struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
