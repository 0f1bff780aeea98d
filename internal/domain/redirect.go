package domain

import (
	"net/http"
	"time"
)

// RedirectType selects the HTTP status a redirect answers with.
type RedirectType string

const (
	RedirectPermanent RedirectType = "PERMANENT"
	RedirectTemporary RedirectType = "TEMPORARY"
)

// Valid reports whether t is a known redirect type.
func (t RedirectType) Valid() bool {
	return t == RedirectPermanent || t == RedirectTemporary
}

// StatusCode is 301 for permanent redirects and 302 otherwise.
func (t RedirectType) StatusCode() int {
	if t == RedirectPermanent {
		return http.StatusMovedPermanently
	}
	return http.StatusFound
}

// Redirect maps a site path to another path or absolute URL.
type Redirect struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Type        RedirectType `json:"type"`
	Description *string      `json:"description,omitempty"`
	IsActive    bool         `json:"isActive"`
	HitCount    int64        `json:"hitCount"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// RedirectStats summarizes the redirect table.
type RedirectStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Inactive  int64 `json:"inactive"`
	TotalHits int64 `json:"totalHits"`
}
