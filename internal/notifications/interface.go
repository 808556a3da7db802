package notifications

import "context"

// Notifier delivers a text message to an operator channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string) error { return nil }
