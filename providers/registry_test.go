package providers_test

import (
	"testing"

	"clinicpro-backend/models"
	"clinicpro-backend/providers"
	"clinicpro-backend/providers/mocks"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)

	email := mocks.NewMockProvider(ctrl)
	email.EXPECT().Channel().Return(models.ChannelEmail).AnyTimes()
	email.EXPECT().IsConfigured().Return(true).AnyTimes()

	sms := mocks.NewMockProvider(ctrl)
	sms.EXPECT().Channel().Return(models.ChannelSMS).AnyTimes()
	sms.EXPECT().IsConfigured().Return(false).AnyTimes()

	whatsapp := mocks.NewMockProvider(ctrl)
	whatsapp.EXPECT().Channel().Return(models.ChannelWhatsApp).AnyTimes()
	whatsapp.EXPECT().IsConfigured().Return(true).AnyTimes()

	r := providers.NewRegistry(email, sms, whatsapp, nil)

	p, ok := r.Get(models.ChannelSMS)
	assert.True(t, ok)
	assert.Same(t, sms, p)

	assert.Equal(t, []models.Channel{models.ChannelWhatsApp, models.ChannelEmail}, r.ConfiguredChannels())

	empty := providers.NewRegistry()
	_, ok = empty.Get(models.ChannelEmail)
	assert.False(t, ok)
	assert.NotNil(t, empty.ConfiguredChannels())
	assert.Empty(t, empty.ConfiguredChannels())
}
