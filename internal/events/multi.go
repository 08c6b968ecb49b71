package events

import (
	"context"
	"errors"
)

// MultiPublisher delivers every event to all of its publishers.
type MultiPublisher struct {
	publishers []Publisher
}

func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

func (that *MultiPublisher) Publish(ctx context.Context, roomID string, event Event) error {
	var errs []error
	for _, p := range that.publishers {
		if err := p.Publish(ctx, roomID, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (that *MultiPublisher) PublishToPlayer(ctx context.Context, playerID string, event Event) error {
	var errs []error
	for _, p := range that.publishers {
		if err := p.PublishToPlayer(ctx, playerID, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (that *MultiPublisher) Close() error {
	var errs []error
	for _, p := range that.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
