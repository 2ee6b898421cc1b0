package runstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Run{}))
	return db
}

func TestStore_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewWithDB(db)
	ctx := context.Background()

	run := &Run{
		ModuleCount:       3,
		EdgeCount:         5,
		Cutoff:            42,
		GroupingAlgorithm: "eager",
		Mutated:           true,
		ArtifactPath:      "dumps/run-1.json",
	}
	require.NoError(t, store.Save(ctx, run))
	require.NotZero(t, run.ID)

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ModuleCount)
	assert.Equal(t, "eager", got.GroupingAlgorithm)
	assert.True(t, got.Mutated)
}

func TestStore_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewWithDB(db)

	_, err := store.Get(context.Background(), 999)
	assert.Error(t, err)
}

func TestStore_RecentOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewWithDB(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, &Run{ModuleCount: i}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
}
