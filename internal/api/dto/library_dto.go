package dto

import (
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// MediaRequest registers a file already uploaded to storage.
type MediaRequest struct {
	Name        string           `json:"name"`
	URL         string           `json:"url"`
	Key         string           `json:"key"`
	Type        domain.MediaType `json:"type"`
	MimeType    string           `json:"mimeType"`
	Size        int64            `json:"size"`
	Width       *int             `json:"width"`
	Height      *int             `json:"height"`
	Alt         *string          `json:"alt"`
	Description *string          `json:"description"`
	Folder      *string          `json:"folder"`
}

func (r MediaRequest) ToInput() service.MediaInput {
	return service.MediaInput{
		Name:        r.Name,
		URL:         r.URL,
		Key:         r.Key,
		Type:        r.Type,
		MimeType:    r.MimeType,
		Size:        r.Size,
		Width:       r.Width,
		Height:      r.Height,
		Alt:         r.Alt,
		Description: r.Description,
		Folder:      r.Folder,
	}
}

// MediaUpdateRequest carries optional media metadata.
type MediaUpdateRequest struct {
	Name        *string `json:"name"`
	Alt         *string `json:"alt"`
	Description *string `json:"description"`
	Folder      *string `json:"folder"`
}

func (r MediaUpdateRequest) ToInput() service.MediaUpdateInput {
	return service.MediaUpdateInput{
		Name:        r.Name,
		Alt:         r.Alt,
		Description: r.Description,
		Folder:      r.Folder,
	}
}

// BulkDeleteRequest lists the ids to remove.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// RedirectRequest is the create payload for redirects.
type RedirectRequest struct {
	Source      string              `json:"source"`
	Destination string              `json:"destination"`
	Type        domain.RedirectType `json:"type"`
	Description *string             `json:"description"`
}

func (r RedirectRequest) ToInput() service.RedirectInput {
	return service.RedirectInput{
		Source:      r.Source,
		Destination: r.Destination,
		Type:        r.Type,
		Description: r.Description,
	}
}

// RedirectUpdateRequest carries optional redirect fields.
type RedirectUpdateRequest struct {
	Source      *string              `json:"source"`
	Destination *string              `json:"destination"`
	Type        *domain.RedirectType `json:"type"`
	Description *string              `json:"description"`
	IsActive    *bool                `json:"isActive"`
}

func (r RedirectUpdateRequest) ToInput() service.RedirectUpdateInput {
	return service.RedirectUpdateInput{
		Source:      r.Source,
		Destination: r.Destination,
		Type:        r.Type,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}
