package models

import (
	"time"

	"github.com/pkg/errors"
)

// ReminderConfig is the single live row of reminder settings.
type ReminderConfig struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Enabled        bool    `gorm:"not null" json:"enabled"`
	DefaultChannel Channel `gorm:"type:varchar(20);not null" json:"defaultChannel"`

	FirstReminderDays  int `gorm:"not null" json:"firstReminderDays"`
	SecondReminderDays int `gorm:"not null" json:"secondReminderDays"`
	ThirdReminderHours int `gorm:"not null" json:"thirdReminderHours"`

	WhatsAppEnabled bool `gorm:"not null" json:"whatsappEnabled"`
	SMSEnabled      bool `gorm:"not null" json:"smsEnabled"`
	EmailEnabled    bool `gorm:"not null" json:"emailEnabled"`

	RetryAttempts        int `gorm:"not null" json:"retryAttempts"`
	RetryIntervalMinutes int `gorm:"not null" json:"retryIntervalMinutes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultReminderConfig is the row created on first read.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		Enabled:              true,
		DefaultChannel:       ChannelWhatsApp,
		FirstReminderDays:    3,
		SecondReminderDays:   1,
		ThirdReminderHours:   2,
		WhatsAppEnabled:      true,
		SMSEnabled:           true,
		EmailEnabled:         true,
		RetryAttempts:        3,
		RetryIntervalMinutes: 30,
	}
}

func (c ReminderConfig) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelWhatsApp:
		return c.WhatsAppEnabled
	case ChannelSMS:
		return c.SMSEnabled
	case ChannelEmail:
		return c.EmailEnabled
	}
	return false
}

// Offset returns how long before the appointment start a reminder fires.
func (c ReminderConfig) Offset(kind ReminderKind) (time.Duration, bool) {
	switch kind {
	case KindFirstReminder:
		return time.Duration(c.FirstReminderDays) * 24 * time.Hour, true
	case KindSecondReminder:
		return time.Duration(c.SecondReminderDays) * 24 * time.Hour, true
	case KindThirdReminder:
		return time.Duration(c.ThirdReminderHours) * time.Hour, true
	}
	return 0, false
}

func (c ReminderConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMinutes) * time.Minute
}

// ReminderConfigPatch is a partial update; nil fields are left untouched.
type ReminderConfigPatch struct {
	Enabled              *bool    `json:"enabled"`
	DefaultChannel       *Channel `json:"defaultChannel"`
	FirstReminderDays    *int     `json:"firstReminderDays"`
	SecondReminderDays   *int     `json:"secondReminderDays"`
	ThirdReminderHours   *int     `json:"thirdReminderHours"`
	WhatsAppEnabled      *bool    `json:"whatsappEnabled"`
	SMSEnabled           *bool    `json:"smsEnabled"`
	EmailEnabled         *bool    `json:"emailEnabled"`
	RetryAttempts        *int     `json:"retryAttempts"`
	RetryIntervalMinutes *int     `json:"retryIntervalMinutes"`
}

func (p ReminderConfigPatch) Validate() error {
	if p.DefaultChannel != nil && !p.DefaultChannel.Valid() {
		return errors.Errorf("invalid default channel %q", *p.DefaultChannel)
	}
	for name, v := range map[string]*int{
		"firstReminderDays":    p.FirstReminderDays,
		"secondReminderDays":   p.SecondReminderDays,
		"thirdReminderHours":   p.ThirdReminderHours,
		"retryAttempts":        p.RetryAttempts,
		"retryIntervalMinutes": p.RetryIntervalMinutes,
	} {
		if v != nil && *v < 0 {
			return errors.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Apply merges the patch into c.
func (p ReminderConfigPatch) Apply(c *ReminderConfig) {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.DefaultChannel != nil {
		c.DefaultChannel = *p.DefaultChannel
	}
	if p.FirstReminderDays != nil {
		c.FirstReminderDays = *p.FirstReminderDays
	}
	if p.SecondReminderDays != nil {
		c.SecondReminderDays = *p.SecondReminderDays
	}
	if p.ThirdReminderHours != nil {
		c.ThirdReminderHours = *p.ThirdReminderHours
	}
	if p.WhatsAppEnabled != nil {
		c.WhatsAppEnabled = *p.WhatsAppEnabled
	}
	if p.SMSEnabled != nil {
		c.SMSEnabled = *p.SMSEnabled
	}
	if p.EmailEnabled != nil {
		c.EmailEnabled = *p.EmailEnabled
	}
	if p.RetryAttempts != nil {
		c.RetryAttempts = *p.RetryAttempts
	}
	if p.RetryIntervalMinutes != nil {
		c.RetryIntervalMinutes = *p.RetryIntervalMinutes
	}
}
