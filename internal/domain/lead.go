package domain

import "time"

// LeadStatus tracks where a lead sits in the sales funnel.
// Any status may follow any other.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "NEW"
	LeadStatusContacted    LeadStatus = "CONTACTED"
	LeadStatusQualified    LeadStatus = "QUALIFIED"
	LeadStatusProposalSent LeadStatus = "PROPOSAL_SENT"
	LeadStatusNegotiation  LeadStatus = "NEGOTIATION"
	LeadStatusWon          LeadStatus = "WON"
	LeadStatusLost         LeadStatus = "LOST"
	LeadStatusArchived     LeadStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposalSent,
		LeadStatusNegotiation, LeadStatusWon, LeadStatusLost, LeadStatusArchived:
		return true
	}
	return false
}

// LeadSource is the acquisition channel of a lead.
type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "WEBSITE"
	LeadSourceContactForm   LeadSource = "CONTACT_FORM"
	LeadSourceSocialMedia   LeadSource = "SOCIAL_MEDIA"
	LeadSourceReferral      LeadSource = "REFERRAL"
	LeadSourcePaidAds       LeadSource = "PAID_ADS"
	LeadSourceOrganicSearch LeadSource = "ORGANIC_SEARCH"
	LeadSourceEmailCampaign LeadSource = "EMAIL_CAMPAIGN"
	LeadSourceEvent         LeadSource = "EVENT"
	LeadSourceColdOutreach  LeadSource = "COLD_OUTREACH"
	LeadSourceOther         LeadSource = "OTHER"
)

// Valid reports whether s is a known source.
func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceWebsite, LeadSourceContactForm, LeadSourceSocialMedia, LeadSourceReferral,
		LeadSourcePaidAds, LeadSourceOrganicSearch, LeadSourceEmailCampaign, LeadSourceEvent,
		LeadSourceColdOutreach, LeadSourceOther:
		return true
	}
	return false
}

// LeadPriority ranks follow-up urgency.
type LeadPriority string

const (
	LeadPriorityLow    LeadPriority = "LOW"
	LeadPriorityMedium LeadPriority = "MEDIUM"
	LeadPriorityHigh   LeadPriority = "HIGH"
	LeadPriorityUrgent LeadPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p LeadPriority) Valid() bool {
	switch p {
	case LeadPriorityLow, LeadPriorityMedium, LeadPriorityHigh, LeadPriorityUrgent:
		return true
	}
	return false
}

// Lead is a prospective customer captured through forms or manual entry.
type Lead struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           *string      `json:"phone,omitempty"`
	Company         *string      `json:"company,omitempty"`
	Position        *string      `json:"position,omitempty"`
	Website         *string      `json:"website,omitempty"`
	Status          LeadStatus   `json:"status"`
	Source          LeadSource   `json:"source"`
	Priority        LeadPriority `json:"priority"`
	Score           int          `json:"score"`
	Budget          *float64     `json:"budget,omitempty"`
	Timeline        *string      `json:"timeline,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	Tags            []string     `json:"tags"`
	AssigneeID      *string      `json:"assigneeId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	LastContactedAt *time.Time   `json:"lastContactedAt,omitempty"`
	ConvertedAt     *time.Time   `json:"convertedAt,omitempty"`
}

// LeadActivityType classifies entries in a lead's timeline.
type LeadActivityType string

const (
	LeadActivityCreated       LeadActivityType = "LEAD_CREATED"
	LeadActivityStatusChange  LeadActivityType = "STATUS_CHANGE"
	LeadActivityAssigned      LeadActivityType = "ASSIGNED"
	LeadActivityScoreRecalced LeadActivityType = "SCORE_UPDATED"
)

// LeadActivity is one timeline entry for a lead.
type LeadActivity struct {
	ID          string           `json:"id"`
	LeadID      string           `json:"leadId"`
	Type        LeadActivityType `json:"type"`
	Description string           `json:"description"`
	UserID      *string          `json:"userId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// LeadStats aggregates the CRM dashboard figures.
type LeadStats struct {
	Total          int64        `json:"total"`
	New            int64        `json:"new"`
	Qualified      int64        `json:"qualified"`
	Won            int64        `json:"won"`
	Lost           int64        `json:"lost"`
	ConversionRate float64      `json:"conversionRate"`
	BySource       []CountEntry `json:"bySource"`
	ByStatus       []CountEntry `json:"byStatus"`
}
