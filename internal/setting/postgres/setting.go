package postgres

import (
	"context"

	settingDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/setting"
	"github.com/frahmantamala/expense-approval/internal/setting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) setting.RepositoryAPI {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]*settingDatamodel.CompanySetting, error) {
	var settings []*settingDatamodel.CompanySetting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error
	return settings, err
}

func (r *SettingRepository) CreateIfAbsent(ctx context.Context, s *settingDatamodel.CompanySetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(s).Error
}
