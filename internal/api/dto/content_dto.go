package dto

import (
	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// ContentRequest is the create payload shared by posts, cases and services.
type ContentRequest struct {
	Title           string               `json:"title"`
	Slug            string               `json:"slug"`
	Excerpt         string               `json:"excerpt"`
	Body            string               `json:"content"`
	Image           *string              `json:"image"`
	Category        string               `json:"category"`
	Tags            []string             `json:"tags"`
	Status          domain.ContentStatus `json:"status"`
	Featured        bool                 `json:"featured"`
	ReadTime        *string              `json:"readTime"`
	Client          *string              `json:"client"`
	MetaTitle       *string              `json:"metaTitle"`
	MetaDescription *string              `json:"metaDescription"`
}

func (r ContentRequest) ToInput() service.ContentInput {
	return service.ContentInput{
		Title:           r.Title,
		Slug:            r.Slug,
		Excerpt:         r.Excerpt,
		Body:            r.Body,
		Image:           r.Image,
		Category:        r.Category,
		Tags:            r.Tags,
		Status:          r.Status,
		Featured:        r.Featured,
		ReadTime:        r.ReadTime,
		Client:          r.Client,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
	}
}

// ContentUpdateRequest carries optional content fields.
type ContentUpdateRequest struct {
	Title           *string               `json:"title"`
	Slug            *string               `json:"slug"`
	Excerpt         *string               `json:"excerpt"`
	Body            *string               `json:"content"`
	Image           *string               `json:"image"`
	Category        *string               `json:"category"`
	Tags            []string              `json:"tags"`
	Status          *domain.ContentStatus `json:"status"`
	Featured        *bool                 `json:"featured"`
	ReadTime        *string               `json:"readTime"`
	Client          *string               `json:"client"`
	MetaTitle       *string               `json:"metaTitle"`
	MetaDescription *string               `json:"metaDescription"`
}

func (r ContentUpdateRequest) ToInput() service.ContentUpdateInput {
	return service.ContentUpdateInput{
		Title:           r.Title,
		Slug:            r.Slug,
		Excerpt:         r.Excerpt,
		Body:            r.Body,
		Image:           r.Image,
		Category:        r.Category,
		Tags:            r.Tags,
		Status:          r.Status,
		Featured:        r.Featured,
		ReadTime:        r.ReadTime,
		Client:          r.Client,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
	}
}
