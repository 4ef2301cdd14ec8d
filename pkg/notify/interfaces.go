package notify

import (
	"context"
)

// ConnectionManager defines the interface for managing WebSocket connections.
type ConnectionManager interface {
	AddConnection(ctx context.Context, connectionID string) error
	RemoveConnection(ctx context.Context, connectionID string) error
}

// Publisher defines the interface for publishing swap events to
// connected clients. The availability tracker calls Publish after a
// state transition commits and never blocks on the result beyond the
// call itself; a failed publish is logged, not propagated.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}
