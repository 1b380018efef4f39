package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderTemplate holds the message body for one (kind, channel) pair.
// Content and Subject may contain {variableName} placeholders.
type ReminderTemplate struct {
	ID       uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Name     string       `gorm:"not null" json:"name"`
	Kind     ReminderKind `gorm:"type:varchar(30);index:idx_template_kind_channel;not null" json:"kind"`
	Channel  Channel      `gorm:"type:varchar(20);index:idx_template_kind_channel;not null" json:"channel"`
	Subject  string       `json:"subject"`
	Content  string       `gorm:"type:text;not null" json:"content"`
	IsActive bool         `gorm:"not null" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
