package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/persistence"
	"github.com/spec-kit/data-collector/migrations"
)

// setupTestPool connects to TEST_POSTGRES_DSN and applies migrations.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, migrations.FS, zap.NewNop()))
	return pool
}

func TestSearchHistoryRepository(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSearchHistoryRepository(pool)
	ctx := context.Background()

	requestID := "test-" + uuid.NewString()
	dept := "75"
	record := &domain.SearchRecord{
		RequestID:    requestID,
		Keyword:      "Développeur web",
		Department:   &dept,
		ContractType: domain.ContractCDI,
		Limit:        10,
		Outcome:      domain.SearchOutcomeDone,
		ResultCount:  2,
		DurationMS:   140,
	}
	require.NoError(t, repo.Create(ctx, record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM search_history WHERE request_id=$1`, requestID)
	})

	recent, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)
	var found *domain.SearchRecord
	for i := range recent {
		if recent[i].RequestID == requestID {
			found = &recent[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Développeur web", found.Keyword)
	require.NotNil(t, found.Department)
	assert.Equal(t, "75", *found.Department)
	assert.Nil(t, found.ErrorMessage)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
}
