package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"clinicpro-backend/models"
	"clinicpro-backend/utils"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the slice of the Twilio REST API the providers use.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// WhatsAppConfigFromEnv reads the WhatsApp sender credentials.
func WhatsAppConfigFromEnv() TwilioConfig {
	return TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		From:       os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}
}

// SMSConfigFromEnv reads the SMS sender credentials.
func SMSConfigFromEnv() TwilioConfig {
	return TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		From:       os.Getenv("TWILIO_PHONE_NUMBER"),
	}
}

func (c TwilioConfig) complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// TwilioProvider sends WhatsApp or SMS messages through Twilio's Messages API.
type TwilioProvider struct {
	channel    models.Channel
	from       string
	configured bool
	api        MessageCreator
}

func NewWhatsAppProvider(cfg TwilioConfig) *TwilioProvider {
	return newTwilioProvider(models.ChannelWhatsApp, cfg)
}

func NewSMSProvider(cfg TwilioConfig) *TwilioProvider {
	return newTwilioProvider(models.ChannelSMS, cfg)
}

func newTwilioProvider(ch models.Channel, cfg TwilioConfig) *TwilioProvider {
	p := &TwilioProvider{
		channel:    ch,
		from:       cfg.From,
		configured: cfg.complete(),
	}
	if p.configured {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		p.api = rest.Api
	}
	return p
}

// NewTwilioProviderWithAPI builds a provider on top of an existing API client.
func NewTwilioProviderWithAPI(ch models.Channel, from string, api MessageCreator) *TwilioProvider {
	return &TwilioProvider{
		channel:    ch,
		from:       from,
		configured: from != "" && api != nil,
		api:        api,
	}
}

func (p *TwilioProvider) Channel() models.Channel { return p.channel }

func (p *TwilioProvider) IsConfigured() bool { return p.configured }

func (p *TwilioProvider) ValidateRecipient(address string) bool {
	return utils.ValidatePhone(strings.TrimPrefix(address, "whatsapp:"))
}

func (p *TwilioProvider) Send(ctx context.Context, msg Message) Result {
	if !p.IsConfigured() {
		return rejected(fmt.Sprintf("%s provider is not configured", p.channel))
	}
	if !p.ValidateRecipient(msg.To) {
		return rejected(fmt.Sprintf("invalid %s recipient %q", p.channel, msg.To))
	}
	if err := ctx.Err(); err != nil {
		return failed(err.Error())
	}

	to := utils.NormalizePhone(strings.TrimPrefix(msg.To, "whatsapp:"))
	from := p.from
	if p.channel == models.ChannelWhatsApp {
		to = "whatsapp:" + to
		from = "whatsapp:" + strings.TrimPrefix(from, "whatsapp:")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(msg.Body)

	resp, err := p.api.CreateMessage(params)
	if err != nil {
		return failed(describeTwilioError(err))
	}

	res := Result{Success: true, RawPayload: rawPayload(p.channel, resp)}
	if resp.Sid != nil {
		res.ProviderMessageID = *resp.Sid
	}
	if resp.Status != nil {
		switch *resp.Status {
		case "failed", "undelivered", "canceled":
			res.Success = false
			res.ErrorMessage = "twilio reported status " + *resp.Status
			if resp.ErrorMessage != nil {
				res.ErrorMessage += ": " + *resp.ErrorMessage
			}
		}
	}
	return res
}

func describeTwilioError(err error) string {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		return fmt.Sprintf("twilio error %d (http %d): %s", restErr.Code, restErr.Status, restErr.Message)
	}
	return err.Error()
}
