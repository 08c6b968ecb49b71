package events

import "context"

// NoopPublisher is a Publisher that does nothing.
type NoopPublisher struct{}

func (that *NoopPublisher) Publish(context.Context, string, Event) error {
	return nil
}

func (that *NoopPublisher) PublishToPlayer(context.Context, string, Event) error {
	return nil
}

func (that *NoopPublisher) Close() error {
	return nil
}
