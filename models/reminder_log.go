// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReminderLog is the audit record of one dispatch attempt. It is keyed by
// appointment and channel, not by schedule.
type ReminderLog struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"appointmentId"`
	PatientID         uuid.UUID      `gorm:"type:uuid;index" json:"patientId"`
	Kind              ReminderKind   `gorm:"type:varchar(30)" json:"kind"`
	Channel           Channel        `gorm:"type:varchar(20);index" json:"channel"`
	Recipient         string         `json:"recipient"`
	Subject           string         `gorm:"type:text" json:"subject,omitempty"`
	Content           string         `gorm:"type:text" json:"content"`
	Status            LogStatus      `gorm:"type:varchar(20);index" json:"status"`
	ErrorMessage      string         `gorm:"type:text" json:"errorMessage,omitempty"`
	ProviderMessageID string         `gorm:"index" json:"providerMessageId,omitempty"`
	ProviderPayload   datatypes.JSON `gorm:"type:jsonb" json:"providerPayload,omitempty"`

	SentAt      *time.Time `json:"sentAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// ChannelStats counts log rows of one channel.
type ChannelStats struct {
	Total  int64 `json:"total"`
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// ReminderStats is the aggregated view of the delivery log.
type ReminderStats struct {
	Total     int64                    `json:"total"`
	Sent      int64                    `json:"sent"`
	Failed    int64                    `json:"failed"`
	Pending   int64                    `json:"pending"`
	ByChannel map[Channel]ChannelStats `json:"byChannel"`
}
