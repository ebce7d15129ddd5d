package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

func TestSettingsRepository_MissingKeyIsNotFound(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSettingsRepository(db)

	// Act
	value, found, err := repo.GetPlanningSetting(context.Background(), "strategic_customers")

	// Assert
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestSettingsRepository_UpsertReplacesValue(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSettingsRepository(db)
	ctx := context.Background()

	// Act - first write
	err := repo.UpsertPlanningSetting(ctx, "strategic_customers", "Boralex|BORALEX")
	require.NoError(t, err)

	value, found, err := repo.GetPlanningSetting(ctx, "strategic_customers")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Boralex|BORALEX", value)

	// Act - overwrite
	err = repo.UpsertPlanningSetting(ctx, "strategic_customers", "Boralex|BORALEX\nNextEra|NEXTERA,NEXT ERA")
	require.NoError(t, err)

	// Assert
	value, found, err = repo.GetPlanningSetting(ctx, "strategic_customers")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Boralex|BORALEX\nNextEra|NEXTERA,NEXT ERA", value)

	var count int64
	require.NoError(t, db.Model(&persistence.PlanningSettingModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
