package domain

import "time"

// MediaType classifies an uploaded file.
type MediaType string

const (
	MediaTypeImage    MediaType = "IMAGE"
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypeDocument MediaType = "DOCUMENT"
	MediaTypeAudio    MediaType = "AUDIO"
	MediaTypeOther    MediaType = "OTHER"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeImage, MediaTypeVideo, MediaTypeDocument, MediaTypeAudio, MediaTypeOther:
		return true
	}
	return false
}

// Media is the library record of a file stored by the upload provider.
// Key identifies the file at the provider.
type Media struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Key          string    `json:"key"`
	Type         MediaType `json:"type"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	Width        *int      `json:"width,omitempty"`
	Height       *int      `json:"height,omitempty"`
	Alt          *string   `json:"alt,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Folder       *string   `json:"folder,omitempty"`
	UploadedByID string    `json:"uploadedById"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MediaStats summarizes the media library.
type MediaStats struct {
	Total       int64            `json:"total"`
	ByType      map[string]int64 `json:"byType"`
	TotalSize   int64            `json:"totalSize"`
	TotalSizeMB string           `json:"totalSizeMB"`
}
