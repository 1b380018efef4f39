package store

import (
	"context"

	"clinicpro-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormTemplateStore struct {
	db *gorm.DB
}

func NewGormTemplateStore(db *gorm.DB) *GormTemplateStore {
	return &GormTemplateStore{db: db}
}

func (s *GormTemplateStore) FindByKindAndChannel(ctx context.Context, kind models.ReminderKind, ch models.Channel) (*models.ReminderTemplate, error) {
	var t models.ReminderTemplate
	err := s.db.WithContext(ctx).
		Where("kind = ? AND channel = ? AND is_active = ?", kind, ch, true).
		Order("updated_at DESC").
		First(&t).Error
	if err != nil {
		return nil, wrap(err, "find template")
	}
	return &t, nil
}

func (s *GormTemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ReminderTemplate, error) {
	var t models.ReminderTemplate
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "find template")
	}
	return &t, nil
}

func (s *GormTemplateStore) List(ctx context.Context, f TemplateFilter) ([]models.ReminderTemplate, error) {
	q := s.db.WithContext(ctx).Model(&models.ReminderTemplate{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	var out []models.ReminderTemplate
	if err := q.Order("kind, channel").Find(&out).Error; err != nil {
		return nil, wrap(err, "list templates")
	}
	return out, nil
}

func (s *GormTemplateStore) Create(ctx context.Context, t *models.ReminderTemplate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkActiveConflict(tx, t); err != nil {
			return err
		}
		return wrap(tx.Create(t).Error, "create template")
	})
}

func (s *GormTemplateStore) Update(ctx context.Context, t *models.ReminderTemplate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkActiveConflict(tx, t); err != nil {
			return err
		}
		return wrap(tx.Save(t).Error, "update template")
	})
}

func (s *GormTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		return wrap(result.Error, "delete template")
	}
	if result.RowsAffected == 0 {
		return wrap(ErrNotFound, "delete template")
	}
	return nil
}

func checkActiveConflict(tx *gorm.DB, t *models.ReminderTemplate) error {
	if !t.IsActive {
		return nil
	}
	var n int64
	err := tx.Model(&models.ReminderTemplate{}).
		Where("kind = ? AND channel = ? AND is_active = ? AND id <> ?", t.Kind, t.Channel, true, t.ID).
		Count(&n).Error
	if err != nil {
		return wrap(err, "check template conflict")
	}
	if n > 0 {
		return wrap(ErrConflict, "active template for this kind and channel already exists")
	}
	return nil
}
