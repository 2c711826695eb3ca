// Package publisher defines the completion event publishing interface.
package publisher

import "context"

// Publisher pushes run completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
