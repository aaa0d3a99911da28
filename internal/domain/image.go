package domain

import "time"

// Image is an uploaded cover image. The bytes live in image storage under
// Key; this record carries what is needed to serve and preview them.
type Image struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	BlurHash    string    `json:"blur_hash,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}
