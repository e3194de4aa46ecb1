package interfaces

import (
	"context"
	"errors"
)

// ErrMessagingFailure is returned when a sink rejects or cannot deliver a message
var ErrMessagingFailure = errors.New("messaging failure")

// MessageSink delivers a markdown-formatted message to a destination
type MessageSink interface {
	// Send blocks until the destination acknowledges delivery or the call fails.
	Send(ctx context.Context, destination string, text string) error

	// Name identifies the sink in logs
	Name() string
}
