package service

import (
	"unicode/utf8"

	"github.com/spec-kit/agency-admin/internal/domain"
)

var sourceScores = map[domain.LeadSource]int{
	domain.LeadSourceReferral:      20,
	domain.LeadSourceEmailCampaign: 15,
	domain.LeadSourceOrganicSearch: 12,
	domain.LeadSourceEvent:         12,
	domain.LeadSourcePaidAds:       10,
	domain.LeadSourceWebsite:       8,
	domain.LeadSourceContactForm:   8,
	domain.LeadSourceSocialMedia:   6,
	domain.LeadSourceColdOutreach:  4,
	domain.LeadSourceOther:         2,
}

// ScoreLead rates a lead from 0 to 100 using contact completeness, budget,
// acquisition source and engagement.
func ScoreLead(lead *domain.Lead) int {
	score := 0

	if lead.Email != "" {
		score += 10
	}
	for _, field := range []*string{lead.Phone, lead.Company, lead.Position, lead.Website} {
		if deref(field) != "" {
			score += 5
		}
	}

	if lead.Budget != nil && *lead.Budget > 0 {
		switch b := *lead.Budget; {
		case b >= 50000:
			score += 20
		case b >= 20000:
			score += 15
		case b >= 5000:
			score += 10
		default:
			score += 5
		}
	}
	if deref(lead.Timeline) != "" {
		score += 10
	}

	score += sourceScores[lead.Source]

	if utf8.RuneCountInString(deref(lead.Notes)) > 50 {
		score += 10
	}
	if len(lead.Tags) > 0 {
		score += 5
	}
	if lead.LastContactedAt != nil {
		score += 5
	}

	switch {
	case score > 100:
		return 100
	case score < 0:
		return 0
	}
	return score
}
