package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
	pgstore "github.com/tmachale/scenforge/internal/storage/postgres"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		t.Skip("TEST_DSN not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestOverrideRepository_SaveAndLoad(t *testing.T) {
	pool := testPool(t)
	repo := pgstore.NewOverrideRepository(pool)
	ctx := context.Background()
	objectID := uuid.New().String()

	ov := entity.NewOverrides()
	res := ov.CategoryOverrides(variable.Resource)
	res.Basic["gold"] = 150
	res.Modifiers["trade"] = variable.ModifierRecord{
		variable.TargetSelf:   3,
		variable.TargetAllies: -1,
	}
	ov.CategoryOverrides(variable.Counter).Basic["turns_held"] = 2

	require.NoError(t, repo.SaveOverrides(ctx, entity.KindFactionClass, objectID, ov))

	got, err := repo.LoadOverrides(ctx, entity.KindFactionClass, objectID)
	require.NoError(t, err)

	gotRes := got.CategoryOverrides(variable.Resource)
	assert.Equal(t, map[string]int{"gold": 150}, gotRes.Basic)
	assert.True(t, gotRes.Modifiers["trade"].Equal(res.Modifiers["trade"]))
	assert.Equal(t, 2, got.CategoryOverrides(variable.Counter).Basic["turns_held"])
}

func TestOverrideRepository_SaveReplaces(t *testing.T) {
	pool := testPool(t)
	repo := pgstore.NewOverrideRepository(pool)
	ctx := context.Background()
	objectID := uuid.New().String()

	first := entity.NewOverrides()
	first.CategoryOverrides(variable.Resource).Basic["gold"] = 150
	first.CategoryOverrides(variable.Resource).Basic["wood"] = 30
	require.NoError(t, repo.SaveOverrides(ctx, entity.KindEntityClass, objectID, first))

	// Second save holds fewer values; the dropped row must disappear.
	second := entity.NewOverrides()
	second.CategoryOverrides(variable.Resource).Basic["gold"] = 99
	require.NoError(t, repo.SaveOverrides(ctx, entity.KindEntityClass, objectID, second))

	got, err := repo.LoadOverrides(ctx, entity.KindEntityClass, objectID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"gold": 99}, got.CategoryOverrides(variable.Resource).Basic)
}

func TestOverrideRepository_LoadMissingIsEmpty(t *testing.T) {
	pool := testPool(t)
	repo := pgstore.NewOverrideRepository(pool)

	got, err := repo.LoadOverrides(context.Background(), entity.KindEntityTemplate, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, got.Categories())
}

func TestOverrideRepository_InvalidKind(t *testing.T) {
	// the kind check runs before any database access
	repo := pgstore.NewOverrideRepository(nil)
	err := repo.SaveOverrides(context.Background(), entity.Kind("garrison"), "x", entity.NewOverrides())
	assert.Error(t, err)
}
