// Package providers implements the channel providers reminders are sent
// through and the registry that maps a channel to its provider.
package providers

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks Provider

import (
	"context"
	"encoding/json"

	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"

	"go.uber.org/zap"
)

// Message is a rendered reminder ready to be handed to a provider.
type Message struct {
	Channel models.Channel
	To      string
	Subject string
	Body    string
}

// Result is the outcome of one Send call.
type Result struct {
	Success           bool
	ProviderMessageID string
	ErrorMessage      string
	RawPayload        []byte
	// Permanent marks failures that retrying cannot fix (bad recipient,
	// provider not configured).
	Permanent bool
}

// Provider sends messages over one channel. Send never returns an error:
// every failure is reported through Result.
type Provider interface {
	Channel() models.Channel
	Send(ctx context.Context, msg Message) Result
	ValidateRecipient(address string) bool
	IsConfigured() bool
}

func failed(msg string) Result {
	return Result{ErrorMessage: msg}
}

func rejected(msg string) Result {
	return Result{ErrorMessage: msg, Permanent: true}
}

// rawPayload encodes a provider response for the delivery log. The message
// has already gone out, so an encoding failure only drops the payload.
func rawPayload(ch models.Channel, v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		zlog.Warn("encode provider response failed", zap.String("channel", string(ch)), zap.Error(err))
		return nil
	}
	return b
}
