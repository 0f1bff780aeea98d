package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-admin/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("agency-admin", "secret", 15)

	token, exp, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleEditor})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleEditor, claims.Role)
	assert.Equal(t, "agency-admin", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("agency-admin", "one", 15).GenerateToken(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager("agency-admin", "two", 15).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsOtherIssuer(t *testing.T) {
	token, _, err := NewTokenManager("staging", "secret", 15).GenerateToken(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager("production", "secret", 15).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("agency-admin", "secret", 1)
	issued := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issued }
	token, _, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashSecret_IsStable(t *testing.T) {
	assert.Equal(t, HashSecret("sk_abc"), HashSecret("sk_abc"))
	assert.NotEqual(t, HashSecret("sk_abc"), HashSecret("sk_abd"))
	assert.Len(t, HashSecret("sk_abc"), 64)
}
