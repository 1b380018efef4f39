package providers_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"clinicpro-backend/models"
	"clinicpro-backend/providers"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"
)

type fakeDialer struct {
	sent []*mail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSend(t *testing.T) {
	d := &fakeDialer{}
	p := providers.NewEmailProviderWithDialer("Clinic <reminders@clinic.example>", d)
	assert.Equal(t, models.ChannelEmail, p.Channel())
	require.True(t, p.IsConfigured())

	res := p.Send(context.Background(), providers.Message{
		To:      "ana@example.com",
		Subject: "Your appointment",
		Body:    "See you tomorrow at 14:00",
	})
	require.True(t, res.Success, res.ErrorMessage)
	assert.True(t, strings.HasSuffix(res.ProviderMessageID, "@clinic.example>"))

	require.Len(t, d.sent, 1)
	m := d.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your appointment"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{res.ProviderMessageID}, m.GetHeader("Message-ID"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "See you tomorrow at 14:00")
}

func TestEmailDefaultSubject(t *testing.T) {
	d := &fakeDialer{}
	p := providers.NewEmailProviderWithDialer("reminders@clinic.example", d)

	res := p.Send(context.Background(), providers.Message{To: "ana@example.com", Body: "hi"})
	require.True(t, res.Success)
	assert.Equal(t, []string{"Appointment reminder"}, d.sent[0].GetHeader("Subject"))
}

func TestEmailSendFailures(t *testing.T) {
	t.Run("invalid address is permanent", func(t *testing.T) {
		d := &fakeDialer{}
		p := providers.NewEmailProviderWithDialer("reminders@clinic.example", d)

		res := p.Send(context.Background(), providers.Message{To: "not-an-email"})
		assert.False(t, res.Success)
		assert.True(t, res.Permanent)
		assert.Empty(t, d.sent)
	})

	t.Run("smtp error is transient", func(t *testing.T) {
		d := &fakeDialer{err: errors.New("421 try again later")}
		p := providers.NewEmailProviderWithDialer("reminders@clinic.example", d)

		res := p.Send(context.Background(), providers.Message{To: "ana@example.com"})
		assert.False(t, res.Success)
		assert.False(t, res.Permanent)
		assert.Equal(t, "smtp: 421 try again later", res.ErrorMessage)
	})

	t.Run("unconfigured", func(t *testing.T) {
		p := providers.NewEmailProvider(providers.SMTPConfig{})
		assert.False(t, p.IsConfigured())

		res := p.Send(context.Background(), providers.Message{To: "ana@example.com"})
		assert.True(t, res.Permanent)
	})
}

func TestSMTPConfigFromEnv(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_FROM", "reminders@clinic.example")

	cfg := providers.SMTPConfigFromEnv()
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.True(t, providers.NewEmailProvider(cfg).IsConfigured())
}
