package store

import (
	"context"
	"time"

	"clinicpro-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormScheduleStore struct {
	db *gorm.DB
}

func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore {
	return &GormScheduleStore{db: db}
}

func (s *GormScheduleStore) ReplaceForAppointment(ctx context.Context, appointmentID uuid.UUID, schedules []models.ReminderSchedule) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", appointmentID).Delete(&models.ReminderSchedule{}).Error; err != nil {
			return wrap(err, "delete previous schedules")
		}
		if len(schedules) == 0 {
			return nil
		}
		for i := range schedules {
			schedules[i].AppointmentID = appointmentID
		}
		return wrap(tx.Create(&schedules).Error, "create schedules")
	})
}

func (s *GormScheduleStore) DeleteByAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).Delete(&models.ReminderSchedule{})
	if result.Error != nil {
		return 0, wrap(result.Error, "delete schedules")
	}
	return result.RowsAffected, nil
}

func (s *GormScheduleStore) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.ReminderSchedule, error) {
	var out []models.ReminderSchedule
	err := s.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("scheduled_for ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "list schedules")
	}
	return out, nil
}

func (s *GormScheduleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ReminderSchedule, error) {
	var sc models.ReminderSchedule
	if err := s.db.WithContext(ctx).First(&sc, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "find schedule")
	}
	return &sc, nil
}

func (s *GormScheduleStore) FindDue(ctx context.Context, now time.Time, limit int) ([]models.ReminderSchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.ReminderSchedule
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.ScheduleStatusPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, wrap(err, "find due schedules")
	}
	return out, nil
}

func (s *GormScheduleStore) Claim(ctx context.Context, id uuid.UUID, now time.Time) (*models.ReminderSchedule, error) {
	var out models.ReminderSchedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReminderSchedule{}).
			Where("id = ? AND status = ?", id, models.ScheduleStatusPending).
			Updates(map[string]any{
				"status":       models.ScheduleStatusSending,
				"last_attempt": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return wrap(result.Error, "claim schedule")
		}
		if result.RowsAffected == 0 {
			return ErrNotClaimed
		}
		return wrap(tx.First(&out, "id = ?", id).Error, "reload claimed schedule")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GormScheduleStore) Save(ctx context.Context, sc *models.ReminderSchedule) error {
	return wrap(s.db.WithContext(ctx).Save(sc).Error, "save schedule")
}

func (s *GormScheduleStore) CountByStatus(ctx context.Context, status models.ScheduleStatus) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ReminderSchedule{}).Where("status = ?", status).Count(&n).Error
	if err != nil {
		return 0, wrap(err, "count schedules")
	}
	return n, nil
}
