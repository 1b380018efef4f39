package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderSchedule is a persisted intent to send one reminder on one channel
// at one instant, with its retry state.
type ReminderSchedule struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID uuid.UUID      `gorm:"type:uuid;index;not null" json:"appointmentId"`
	TemplateID    uuid.UUID      `gorm:"type:uuid;not null" json:"templateId"`
	Kind          ReminderKind   `gorm:"type:varchar(30);not null" json:"kind"`
	Channel       Channel        `gorm:"type:varchar(20);not null" json:"channel"`
	ScheduledFor  time.Time      `gorm:"not null;index:idx_schedule_due,priority:2" json:"scheduledFor"`
	Status        ScheduleStatus `gorm:"type:varchar(20);not null;index:idx_schedule_due,priority:1" json:"status"`
	RetryCount    int            `gorm:"not null" json:"retryCount"`
	LastAttempt   *time.Time     `json:"lastAttempt,omitempty"`
	ErrorMessage  string         `gorm:"type:text" json:"errorMessage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *ReminderSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// Terminal reports whether no further automatic transition will happen.
func (s ReminderSchedule) Terminal() bool {
	switch s.Status {
	case ScheduleStatusSent, ScheduleStatusFailed, ScheduleStatusCancelled:
		return true
	}
	return false
}
