package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements planning.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GORM planning settings repository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// GetPlanningSetting retrieves one setting value; found is false when the
// key has never been written
func (r *GormSettingsRepository) GetPlanningSetting(ctx context.Context, key string) (string, bool, error) {
	var model PlanningSettingModel
	result := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read planning setting %s: %w", key, result.Error)
	}
	return model.Value, true, nil
}

// UpsertPlanningSetting writes one setting value, replacing any prior value
func (r *GormSettingsRepository) UpsertPlanningSetting(ctx context.Context, key, value string) error {
	model := PlanningSettingModel{SettingKey: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert planning setting %s: %w", key, err)
	}
	return nil
}
