package store

import (
	"context"

	"clinicpro-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormAppointmentStore struct {
	db *gorm.DB
}

func NewGormAppointmentStore(db *gorm.DB) *GormAppointmentStore {
	return &GormAppointmentStore{db: db}
}

func (s *GormAppointmentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Preload("Practitioner").
		Preload("Service").
		Preload("Room").
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, wrap(err, "find appointment")
	}
	return &a, nil
}

// AutoMigrate creates or updates the tables used by the reminder engine.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Patient{},
		&models.Practitioner{},
		&models.Service{},
		&models.Room{},
		&models.Appointment{},
		&models.ReminderConfig{},
		&models.ReminderTemplate{},
		&models.ReminderSchedule{},
		&models.ReminderLog{},
	)
}
