package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// GormGeoRepository implements geo.Repository using GORM
type GormGeoRepository struct {
	db *gorm.DB
}

// NewGormGeoRepository creates a new GORM geographic reference repository
func NewGormGeoRepository(db *gorm.DB) *GormGeoRepository {
	return &GormGeoRepository{db: db}
}

// ListPlants retrieves every shipping plant
func (r *GormGeoRepository) ListPlants(ctx context.Context) ([]geo.Plant, error) {
	var models []PlantModel
	if err := r.db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}

	plants := make([]geo.Plant, len(models))
	for i, m := range models {
		plants[i] = geo.Plant{
			Code:  m.Code,
			Name:  m.Name,
			Coord: geo.Coord{Lat: m.Lat, Lng: m.Lng},
		}
	}
	return plants, nil
}

// ListZipCoordinates retrieves the ZIP centroid gazetteer
func (r *GormGeoRepository) ListZipCoordinates(ctx context.Context) ([]geo.ZipCoordinate, error) {
	var models []ZipCoordModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list zip coordinates: %w", err)
	}

	zips := make([]geo.ZipCoordinate, len(models))
	for i, m := range models {
		zips[i] = geo.ZipCoordinate{
			Zip:   m.Zip,
			Coord: geo.Coord{Lat: m.Lat, Lng: m.Lng},
		}
	}
	return zips, nil
}
