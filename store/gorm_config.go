package store

import (
	"context"

	"clinicpro-backend/models"

	"gorm.io/gorm"
)

const configRowID = 1

type GormConfigStore struct {
	db *gorm.DB
}

func NewGormConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{db: db}
}

func (s *GormConfigStore) Get(ctx context.Context) (models.ReminderConfig, error) {
	return s.get(s.db.WithContext(ctx))
}

func (s *GormConfigStore) get(tx *gorm.DB) (models.ReminderConfig, error) {
	defaults := models.DefaultReminderConfig()
	var cfg models.ReminderConfig
	err := tx.Where(models.ReminderConfig{ID: configRowID}).
		Attrs(defaults).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return models.ReminderConfig{}, wrap(err, "load reminder config")
	}
	return cfg, nil
}

func (s *GormConfigStore) Update(ctx context.Context, patch models.ReminderConfigPatch) (models.ReminderConfig, error) {
	var out models.ReminderConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := s.get(tx)
		if err != nil {
			return err
		}
		patch.Apply(&cfg)
		if err := tx.Save(&cfg).Error; err != nil {
			return wrap(err, "save reminder config")
		}
		out = cfg
		return nil
	})
	return out, err
}
