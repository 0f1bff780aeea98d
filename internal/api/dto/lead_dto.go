package dto

import (
	"time"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/service"
)

// LeadRequest is the create payload. Confirmed and DontShowAgain only apply to quick-create.
type LeadRequest struct {
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Phone           *string             `json:"phone"`
	Company         *string             `json:"company"`
	Position        *string             `json:"position"`
	Website         *string             `json:"website"`
	Status          domain.LeadStatus   `json:"status"`
	Source          domain.LeadSource   `json:"source"`
	Priority        domain.LeadPriority `json:"priority"`
	Budget          *float64            `json:"budget"`
	Timeline        *string             `json:"timeline"`
	Notes           *string             `json:"notes"`
	Tags            []string            `json:"tags"`
	AssigneeID      *string             `json:"assigneeId"`
	LastContactedAt *time.Time          `json:"lastContactedAt"`
	Confirmed       bool                `json:"confirmed"`
	DontShowAgain   bool                `json:"dontShowAgain"`
}

func (r LeadRequest) ToInput() service.LeadInput {
	return service.LeadInput{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Company:         r.Company,
		Position:        r.Position,
		Website:         r.Website,
		Status:          r.Status,
		Source:          r.Source,
		Priority:        r.Priority,
		Budget:          r.Budget,
		Timeline:        r.Timeline,
		Notes:           r.Notes,
		Tags:            r.Tags,
		AssigneeID:      r.AssigneeID,
		LastContactedAt: r.LastContactedAt,
	}
}

func (r LeadRequest) QuickCreateOptions() service.QuickCreateOptions {
	return service.QuickCreateOptions{Confirmed: r.Confirmed, DontShowAgain: r.DontShowAgain}
}

// LeadUpdateRequest carries optional lead fields. An empty string clears the field.
type LeadUpdateRequest struct {
	Name            *string              `json:"name"`
	Email           *string              `json:"email"`
	Phone           *string              `json:"phone"`
	Company         *string              `json:"company"`
	Position        *string              `json:"position"`
	Website         *string              `json:"website"`
	Status          *domain.LeadStatus   `json:"status"`
	Source          *domain.LeadSource   `json:"source"`
	Priority        *domain.LeadPriority `json:"priority"`
	Score           *int                 `json:"score"`
	Budget          *float64             `json:"budget"`
	Timeline        *string              `json:"timeline"`
	Notes           *string              `json:"notes"`
	Tags            []string             `json:"tags"`
	AssigneeID      *string              `json:"assigneeId"`
	LastContactedAt *time.Time           `json:"lastContactedAt"`
}

func (r LeadUpdateRequest) ToInput() service.LeadUpdateInput {
	return service.LeadUpdateInput{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Company:         r.Company,
		Position:        r.Position,
		Website:         r.Website,
		Status:          r.Status,
		Source:          r.Source,
		Priority:        r.Priority,
		Score:           r.Score,
		Budget:          r.Budget,
		Timeline:        r.Timeline,
		Notes:           r.Notes,
		Tags:            r.Tags,
		AssigneeID:      r.AssigneeID,
		LastContactedAt: r.LastContactedAt,
	}
}
