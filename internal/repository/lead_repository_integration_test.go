//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/domain"
	"github.com/spec-kit/agency-admin/internal/persistence"
	"github.com/spec-kit/agency-admin/migrations"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skipf("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unreachable: %v", err)
	}
	require.NoError(t, persistence.RunMigrations(ctx, pool, migrations.FS, zap.NewNop()))
	t.Cleanup(pool.Close)
	return pool
}

func TestLeadRepository_CreateListAndActivities(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	repo := NewLeadRepository(pool)

	company := "Andorinha"
	lead := &domain.Lead{
		Name:     "Integração " + time.Now().Format("150405.000"),
		Email:    "integration@example.com",
		Company:  &company,
		Status:   domain.LeadStatusNew,
		Source:   domain.LeadSourceReferral,
		Priority: domain.LeadPriorityUrgent,
		Score:    40,
		Tags:     []string{"integration", "crm"},
	}
	require.NoError(t, repo.Create(ctx, lead))
	require.NotEmpty(t, lead.ID)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), lead.ID) })

	status := domain.LeadStatusNew
	items, total, err := repo.List(ctx, LeadFilter{
		Status: &status,
		Search: lead.Name,
		Tags:   []string{"crm"},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, lead.ID, items[0].ID)
	assert.Equal(t, []string{"integration", "crm"}, items[0].Tags)

	require.NoError(t, repo.AddActivity(ctx, &domain.LeadActivity{
		LeadID:      lead.ID,
		Type:        domain.LeadActivityCreated,
		Description: "Lead criado",
	}))
	activities, err := repo.ListActivities(ctx, lead.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.LeadActivityCreated, activities[0].Type)

	require.NoError(t, repo.Delete(ctx, lead.ID))
	_, err = repo.GetByID(ctx, lead.ID)
	assert.Error(t, err)
}
