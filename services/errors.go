package services

import "github.com/pkg/errors"

var (
	ErrRemindersDisabled   = errors.New("reminders are disabled")
	ErrChannelDisabled     = errors.New("channel is disabled")
	ErrTemplateNotFound    = errors.New("no active template for reminder kind and channel")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrProviderNotReady    = errors.New("no configured provider for channel")
	ErrDispatchFailed      = errors.New("dispatch failed")
	ErrNotResendable       = errors.New("only failed or cancelled schedules can be resent")
	ErrInvalidReminderKind = errors.New("invalid reminder kind")
)
