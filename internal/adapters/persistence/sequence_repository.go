package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormSequenceRepository implements planning.SequenceAllocator using GORM
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GORM load sequence repository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// NextLoadSequence hands out the next load number for a plant and year
func (r *GormSequenceRepository) NextLoadSequence(ctx context.Context, plant string, year int) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		seq, err = nextSequence(tx, plant, year)
		return err
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// nextSequence advances the (plant, year) counter inside the caller's
// transaction. The blind UPDATE takes the row lock before the read on
// backends that lock per row.
func nextSequence(tx *gorm.DB, plant string, year int) (int, error) {
	result := tx.Model(&LoadSequenceModel{}).
		Where("plant = ? AND year = ?", plant, year).
		Update("next_seq", gorm.Expr("next_seq + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to advance load sequence: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		row := LoadSequenceModel{Plant: plant, Year: year, NextSeq: 2}
		if err := tx.Create(&row).Error; err != nil {
			return 0, fmt.Errorf("failed to start load sequence: %w", err)
		}
		return 1, nil
	}

	var row LoadSequenceModel
	if err := tx.Where("plant = ? AND year = ?", plant, year).First(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to read load sequence: %w", err)
	}
	return row.NextSeq - 1, nil
}
