package providers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clinicpro-backend/models"
	"clinicpro-backend/utils"

	"github.com/google/uuid"
	mail "gopkg.in/mail.v2"
)

const defaultEmailSubject = "Appointment reminder"

// Dialer delivers composed messages. *mail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func SMTPConfigFromEnv() SMTPConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port <= 0 {
		port = 587
	}
	return SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// EmailProvider sends reminders over SMTP.
type EmailProvider struct {
	from   string
	dialer Dialer
}

func NewEmailProvider(cfg SMTPConfig) *EmailProvider {
	p := &EmailProvider{from: cfg.From}
	if cfg.Host != "" && cfg.From != "" {
		d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		d.Timeout = 15 * time.Second
		p.dialer = d
	}
	return p
}

// NewEmailProviderWithDialer builds a provider on top of an existing dialer.
func NewEmailProviderWithDialer(from string, d Dialer) *EmailProvider {
	return &EmailProvider{from: from, dialer: d}
}

func (p *EmailProvider) Channel() models.Channel { return models.ChannelEmail }

func (p *EmailProvider) IsConfigured() bool {
	return p.from != "" && p.dialer != nil
}

func (p *EmailProvider) ValidateRecipient(address string) bool {
	return utils.ValidateEmail(address)
}

func (p *EmailProvider) Send(ctx context.Context, msg Message) Result {
	if !p.IsConfigured() {
		return rejected("email provider is not configured")
	}
	if !p.ValidateRecipient(msg.To) {
		return rejected(fmt.Sprintf("invalid email recipient %q", msg.To))
	}
	if err := ctx.Err(); err != nil {
		return failed(err.Error())
	}

	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = defaultEmailSubject
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(p.from))

	m := mail.NewMessage()
	m.SetHeader("From", p.from)
	m.SetHeader("To", strings.TrimSpace(msg.To))
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", msg.Body)

	if err := p.dialer.DialAndSend(m); err != nil {
		return failed("smtp: " + err.Error())
	}

	payload := rawPayload(models.ChannelEmail, map[string]string{
		"messageId": messageID,
		"from":      p.from,
		"to":        msg.To,
		"subject":   subject,
	})
	return Result{Success: true, ProviderMessageID: messageID, RawPayload: payload}
}

func senderDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return strings.Trim(from[i+1:], "> ")
	}
	return "localhost"
}
