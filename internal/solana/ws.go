package solana

import "context"

// LogStream is a push subscription to transaction logs.
type LogStream interface {
	// Subscribe opens a logsSubscribe stream matching the filter. The
	// client supports a single active subscription.
	Subscribe(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the WebSocket connection and the notification channel.
	Close() error
}

// LogsFilter selects which transaction logs to receive.
type LogsFilter struct {
	// Mentions filters to transactions that mention any of these addresses.
	Mentions []string
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
