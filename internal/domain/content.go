package domain

import "time"

// ContentKind distinguishes the publishable content types.
type ContentKind string

const (
	ContentKindPost    ContentKind = "POST"
	ContentKindCase    ContentKind = "CASE"
	ContentKindService ContentKind = "SERVICE"
)

// Valid reports whether k is a known kind.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentKindPost, ContentKindCase, ContentKindService:
		return true
	}
	return false
}

// AuditResource maps the kind to its audit resource.
func (k ContentKind) AuditResource() AuditResource {
	switch k {
	case ContentKindCase:
		return AuditResourceCase
	case ContentKindService:
		return AuditResourceService
	default:
		return AuditResourcePost
	}
}

// ContentStatus is the publish state of a content item.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "DRAFT"
	ContentStatusPublished ContentStatus = "PUBLISHED"
	ContentStatusArchived  ContentStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusArchived:
		return true
	}
	return false
}

// Content is a blog post, case study or service page.
// PublishedAt records the first publish and is never cleared.
type Content struct {
	ID              string        `json:"id"`
	Kind            ContentKind   `json:"kind"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Excerpt         string        `json:"excerpt"`
	Body            string        `json:"body"`
	Image           *string       `json:"image,omitempty"`
	Category        string        `json:"category"`
	Tags            []string      `json:"tags"`
	Status          ContentStatus `json:"status"`
	Featured        bool          `json:"featured"`
	ReadTime        *string       `json:"readTime,omitempty"`
	Client          *string       `json:"client,omitempty"`
	MetaTitle       *string       `json:"metaTitle,omitempty"`
	MetaDescription *string       `json:"metaDescription,omitempty"`
	AuthorID        string        `json:"authorId"`
	PublishedAt     *time.Time    `json:"publishedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsPublished reports whether the item is currently live.
func (c *Content) IsPublished() bool {
	return c != nil && c.Status == ContentStatusPublished
}
