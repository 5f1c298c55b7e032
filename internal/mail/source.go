// Package mail retrieves order confirmation messages and decodes their HTML bodies.
package mail

import (
	"context"
	"errors"
)

var (
	// ErrNoMessages is returned when a mailbox query matches nothing.
	ErrNoMessages = errors.New("no matching messages")
	// ErrNoHTMLBody is returned when a message carries no text/html part with data.
	ErrNoHTMLBody = errors.New("message has no html body")
)

// RawMessage is a message as delivered by the mailbox: Body is still transfer-encoded.
type RawMessage struct {
	ID string
	// InternalDate is the mailbox receive time in epoch milliseconds, when known.
	InternalDate *int64
	Body         string
}

// Source lists and fetches messages from a mailbox.
type Source interface {
	ListMessageIDs(ctx context.Context, query string) ([]string, error)
	GetMessage(ctx context.Context, id string) (*RawMessage, error)
}
