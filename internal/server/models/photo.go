package models

import "time"

// MediaType tells images and videos apart.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Photo is one media attachment of a Submission. It always has a storage
// path; staged files get one only when they are promoted.
type Photo struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	StoragePath  string    `json:"storage_path"`
	Caption      *string   `json:"caption"`
	OrderIndex   int       `json:"order_index"`
	MediaType    MediaType `json:"media_type"`
	CreatedAt    time.Time `json:"created_at"`

	URL string `json:"url,omitempty"`
}

// CarouselPhoto is a hero carousel image, independent of submissions.
type CarouselPhoto struct {
	ID           string    `json:"id"`
	StoragePath  string    `json:"storage_path"`
	RowNumber    int       `json:"row_number"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`

	URL string `json:"url,omitempty"`
}
