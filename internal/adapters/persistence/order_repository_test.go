package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

func TestOrderRepository_ListLinesForPlanning_FiltersOpenLines(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)

	open := persistence.OrderLineModel{SoNum: "1001", Plant: "CL", Sku: "TRS-060", Qty: 2, TotalLengthFt: 20, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN"}
	closed := persistence.OrderLineModel{SoNum: "1002", Plant: "CL", Sku: "TRS-061", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "SHIPPED"}
	excluded := persistence.OrderLineModel{SoNum: "1003", Plant: "CL", Sku: "TRS-062", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN", IsExcluded: true}
	otherPlant := persistence.OrderLineModel{SoNum: "1004", Plant: "TX", Sku: "TRS-063", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "TX", Zip: "75001", Status: "OPEN"}
	require.NoError(t, db.Create(&open).Error)
	require.NoError(t, db.Create(&closed).Error)
	require.NoError(t, db.Create(&excluded).Error)
	require.NoError(t, db.Create(&otherPlant).Error)

	// Act
	lines, err := repo.ListLinesForPlanning(context.Background(), "CL", nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "1001", lines[0].SoNum)
	assert.Equal(t, "TRS-060", lines[0].Sku)
	assert.Equal(t, 2, lines[0].Qty)
	assert.Equal(t, 20.0, lines[0].TotalLengthFt)
}

func TestOrderRepository_ListLinesForPlanning_StartDateKeepsUndatedLines(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	past := start.AddDate(0, 0, -3)
	future := start.AddDate(0, 0, 10)

	overdue := persistence.OrderLineModel{SoNum: "2001", Plant: "CL", Sku: "TRS-060", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN", DueDate: &past}
	upcoming := persistence.OrderLineModel{SoNum: "2002", Plant: "CL", Sku: "TRS-061", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN", DueDate: &future}
	undated := persistence.OrderLineModel{SoNum: "2003", Plant: "CL", Sku: "TRS-062", Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN"}
	require.NoError(t, db.Create(&overdue).Error)
	require.NoError(t, db.Create(&upcoming).Error)
	require.NoError(t, db.Create(&undated).Error)

	// Act
	lines, err := repo.ListLinesForPlanning(context.Background(), "CL", &start)

	// Assert
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "2002", lines[0].SoNum)
	assert.Equal(t, "2003", lines[1].SoNum)
}

func TestOrderRepository_ListLinesForPlanning_PreservesFeedOrder(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)

	for _, so := range []string{"3003", "3001", "3002"} {
		line := persistence.OrderLineModel{SoNum: so, Plant: "CL", Sku: "TRS-" + so, Qty: 1, TotalLengthFt: 10, MaxStack: 1, State: "OH", Zip: "44101", Status: "OPEN"}
		require.NoError(t, db.Create(&line).Error)
	}

	// Act
	lines, err := repo.ListLinesForPlanning(context.Background(), "CL", nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "3003", lines[0].SoNum)
	assert.Equal(t, "3001", lines[1].SoNum)
	assert.Equal(t, "3002", lines[2].SoNum)
}

func TestOrderRepository_ListOrders(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)

	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	first := persistence.OrderModel{SoNum: "1002", Plant: "CL", CustName: "ACME SUPPLY CO", City: "CLEVELAND", State: "OH", Zip: "44101", DueDate: &due}
	second := persistence.OrderModel{SoNum: "1001", Plant: "CL", CustName: "BORALEX ENERGY", City: "AKRON", State: "OH", Zip: "44301"}
	other := persistence.OrderModel{SoNum: "1003", Plant: "TX", CustName: "LONE STAR", City: "DALLAS", State: "TX", Zip: "75001"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&other).Error)

	// Act
	headers, err := repo.ListOrders(context.Background(), "CL")

	// Assert
	require.NoError(t, err)
	require.Len(t, headers, 2)
	assert.Equal(t, "1001", headers[0].SoNum)
	assert.Equal(t, "BORALEX ENERGY", headers[0].CustName)
	assert.Equal(t, "1002", headers[1].SoNum)
	assert.Equal(t, "CLEVELAND", headers[1].City)
	require.NotNil(t, headers[1].DueDate)
	assert.WithinDuration(t, due, *headers[1].DueDate, time.Second)
}
