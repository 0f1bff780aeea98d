package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/agency-admin/internal/domain"
)

func TestScoreLead_Components(t *testing.T) {
	budget := 60000.0
	contacted := fixedNow.Add(-24 * time.Hour)
	lead := &domain.Lead{
		Email:           "carla@empresa.com",
		Phone:           strPtr("+55 11 99999-0000"),
		Company:         strPtr("Empresa"),
		Budget:          &budget,
		Timeline:        strPtr("3 meses"),
		Source:          domain.LeadSourceReferral,
		Tags:            []string{"crm"},
		LastContactedAt: &contacted,
	}
	// 10 email + 10 contact fields + 20 budget + 10 timeline + 20 referral + 5 tags + 5 contacted
	assert.Equal(t, 80, ScoreLead(lead))
}

func TestScoreLead_NotesCountCharactersNotBytes(t *testing.T) {
	accented := strings.Repeat("ação ", 8)
	assert.Greater(t, len(accented), 50)
	assert.Equal(t, 10, ScoreLead(&domain.Lead{Email: "a@b.com", Notes: &accented}))

	long := strings.Repeat("n", 51)
	assert.Equal(t, 20, ScoreLead(&domain.Lead{Email: "a@b.com", Notes: &long}))
}

func TestScoreLead_FullProfileScoresHundred(t *testing.T) {
	budget := 90000.0
	notes := strings.Repeat("detalhes ", 10)
	contacted := fixedNow
	lead := &domain.Lead{
		Email:           "a@b.com",
		Phone:           strPtr("1"),
		Company:         strPtr("c"),
		Position:        strPtr("p"),
		Website:         strPtr("https://c.com"),
		Budget:          &budget,
		Timeline:        strPtr("agora"),
		Source:          domain.LeadSourceReferral,
		Notes:           &notes,
		Tags:            []string{"x"},
		LastContactedAt: &contacted,
	}
	assert.Equal(t, 100, ScoreLead(lead))
}
