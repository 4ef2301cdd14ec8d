package notify

import "context"

// NoOpPublisher is a publisher that does nothing. Used in tests and in
// deployments without a WebSocket endpoint.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, message Message) error {
	return nil
}
