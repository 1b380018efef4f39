package services

import "clinicpro-backend/models"

// ResolveChannel picks the channel a patient's reminders are sent on.
//
// The configured default wins when the patient can be reached on it.
// Otherwise the first enabled channel with a contact value is used, and
// when there is none the default is returned anyway so the failure shows
// up at dispatch time.
func ResolveChannel(cfg models.ReminderConfig, patient models.Patient) models.Channel {
	if cfg.ChannelEnabled(cfg.DefaultChannel) && patient.RecipientFor(cfg.DefaultChannel) != "" {
		return cfg.DefaultChannel
	}
	for _, ch := range models.Channels {
		if cfg.ChannelEnabled(ch) && patient.RecipientFor(ch) != "" {
			return ch
		}
	}
	return cfg.DefaultChannel
}
