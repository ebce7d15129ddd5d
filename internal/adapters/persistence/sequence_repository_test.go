package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

func TestSequenceRepository_CountsUpFromOne(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSequenceRepository(db)
	ctx := context.Background()

	// Act
	first, err := repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)
	second, err := repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)
	third, err := repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 3, third)
}

func TestSequenceRepository_SeparateCountersPerPlantAndYear(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSequenceRepository(db)
	ctx := context.Background()

	_, err := repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)
	_, err = repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)

	// Act - a different plant and a different year each start fresh
	otherPlant, err := repo.NextLoadSequence(ctx, "TX", 2026)
	require.NoError(t, err)
	nextYear, err := repo.NextLoadSequence(ctx, "CL", 2027)
	require.NoError(t, err)
	sameCounter, err := repo.NextLoadSequence(ctx, "CL", 2026)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, otherPlant)
	assert.Equal(t, 1, nextYear)
	assert.Equal(t, 3, sameCounter)
}
