package providers

import (
	"testing"

	"clinicpro-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestRawPayload(t *testing.T) {
	assert.JSONEq(t, `{"sid":"SM1"}`, string(rawPayload(models.ChannelSMS, map[string]string{"sid": "SM1"})))
	assert.Nil(t, rawPayload(models.ChannelSMS, map[string]any{"bad": make(chan int)}))
}
