package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	Name     string     `gorm:"not null" json:"name"`
	Phone    string     `gorm:"index" json:"phone"`
	WhatsApp string     `json:"whatsapp"`
	Email    string     `json:"email"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Notes    string     `json:"notes"`
	IsActive bool       `gorm:"not null" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// RecipientFor returns the contact value used to reach the patient on ch,
// or "" when the patient has none.
//
// WhatsApp prefers the WhatsApp number and falls back to the phone, SMS the
// other way round, email only uses the email address.
func (p Patient) RecipientFor(ch Channel) string {
	var candidates []string
	switch ch {
	case ChannelWhatsApp:
		candidates = []string{p.WhatsApp, p.Phone}
	case ChannelSMS:
		candidates = []string{p.Phone, p.WhatsApp}
	case ChannelEmail:
		candidates = []string{p.Email}
	}
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return ""
}
