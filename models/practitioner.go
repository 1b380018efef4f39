package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Practitioner is a clinic staff member who attends appointments.
type Practitioner struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `gorm:"uniqueIndex" json:"email"`
	Phone    string    `json:"phone"`
	Title    string    `json:"title"`
	IsActive bool      `gorm:"not null" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Practitioner) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
