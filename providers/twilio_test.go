package providers_test

import (
	"context"
	"testing"

	"clinicpro-backend/models"
	"clinicpro-backend/providers"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessages struct {
	params []*twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeMessages) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	return f.resp, f.err
}

func strPtr(s string) *string { return &s }

func TestTwilioWhatsAppSend(t *testing.T) {
	api := &fakeMessages{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM42"), Status: strPtr("queued")}}
	p := providers.NewTwilioProviderWithAPI(models.ChannelWhatsApp, "+14155238886", api)

	res := p.Send(context.Background(), providers.Message{
		Channel: models.ChannelWhatsApp,
		To:      "+55 11 99999-0000",
		Body:    "See you tomorrow",
	})

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "SM42", res.ProviderMessageID)
	assert.NotEmpty(t, res.RawPayload)

	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+5511999990000", *api.params[0].To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	assert.Equal(t, "See you tomorrow", *api.params[0].Body)
}

func TestTwilioSMSSend(t *testing.T) {
	api := &fakeMessages{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM7")}}
	p := providers.NewTwilioProviderWithAPI(models.ChannelSMS, "+15005550006", api)

	res := p.Send(context.Background(), providers.Message{To: "+5511999990000", Body: "hi"})
	require.True(t, res.Success)
	assert.Equal(t, "+5511999990000", *api.params[0].To)
	assert.Equal(t, "+15005550006", *api.params[0].From)
}

func TestTwilioSendFailures(t *testing.T) {
	t.Run("invalid recipient is permanent", func(t *testing.T) {
		api := &fakeMessages{}
		p := providers.NewTwilioProviderWithAPI(models.ChannelSMS, "+15005550006", api)

		res := p.Send(context.Background(), providers.Message{To: "12345"})
		assert.False(t, res.Success)
		assert.True(t, res.Permanent)
		assert.Empty(t, api.params)
	})

	t.Run("not configured is permanent", func(t *testing.T) {
		p := providers.NewSMSProvider(providers.TwilioConfig{})
		assert.False(t, p.IsConfigured())

		res := p.Send(context.Background(), providers.Message{To: "+5511999990000"})
		assert.False(t, res.Success)
		assert.True(t, res.Permanent)
		assert.Contains(t, res.ErrorMessage, "not configured")
	})

	t.Run("rest error is transient", func(t *testing.T) {
		api := &fakeMessages{err: &client.TwilioRestError{Code: 20429, Status: 429, Message: "Too Many Requests"}}
		p := providers.NewTwilioProviderWithAPI(models.ChannelSMS, "+15005550006", api)

		res := p.Send(context.Background(), providers.Message{To: "+5511999990000"})
		assert.False(t, res.Success)
		assert.False(t, res.Permanent)
		assert.Equal(t, "twilio error 20429 (http 429): Too Many Requests", res.ErrorMessage)
	})

	t.Run("plain error", func(t *testing.T) {
		api := &fakeMessages{err: errors.New("connection reset")}
		p := providers.NewTwilioProviderWithAPI(models.ChannelSMS, "+15005550006", api)

		res := p.Send(context.Background(), providers.Message{To: "+5511999990000"})
		assert.Equal(t, "connection reset", res.ErrorMessage)
	})

	t.Run("failed status in response", func(t *testing.T) {
		api := &fakeMessages{resp: &twilioApi.ApiV2010Message{
			Sid:          strPtr("SM9"),
			Status:       strPtr("failed"),
			ErrorMessage: strPtr("unreachable"),
		}}
		p := providers.NewTwilioProviderWithAPI(models.ChannelWhatsApp, "+14155238886", api)

		res := p.Send(context.Background(), providers.Message{To: "+5511999990000"})
		assert.False(t, res.Success)
		assert.Equal(t, "SM9", res.ProviderMessageID)
		assert.Equal(t, "twilio reported status failed: unreachable", res.ErrorMessage)
	})

	t.Run("cancelled context", func(t *testing.T) {
		api := &fakeMessages{}
		p := providers.NewTwilioProviderWithAPI(models.ChannelSMS, "+15005550006", api)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := p.Send(ctx, providers.Message{To: "+5511999990000"})
		assert.False(t, res.Success)
		assert.False(t, res.Permanent)
		assert.Empty(t, api.params)
	})
}

func TestTwilioValidateRecipient(t *testing.T) {
	p := providers.NewTwilioProviderWithAPI(models.ChannelWhatsApp, "+14155238886", &fakeMessages{})
	assert.True(t, p.ValidateRecipient("+5511999990000"))
	assert.True(t, p.ValidateRecipient("whatsapp:+5511999990000"))
	assert.False(t, p.ValidateRecipient("011999990000"))
	assert.False(t, p.ValidateRecipient(""))
}
