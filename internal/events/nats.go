package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	natsRoomSubjectPrefix   = "toguz.room."
	natsPlayerSubjectPrefix = "toguz.player."
)

// NATSPublisher publishes JSON-encoded events to toguz.room.<id> and toguz.player.<id>.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	defaults := []nats.Option{
		nats.Name("toguzkorgool-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}

	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return &NATSPublisher{conn: nc}, nil
}

func RoomSubject(roomID string) string {
	return natsRoomSubjectPrefix + roomID
}

func PlayerSubject(playerID string) string {
	return natsPlayerSubjectPrefix + playerID
}

func (that *NATSPublisher) Publish(_ context.Context, roomID string, event Event) error {
	return that.publish(RoomSubject(roomID), event)
}

func (that *NATSPublisher) PublishToPlayer(_ context.Context, playerID string, event Event) error {
	return that.publish(PlayerSubject(playerID), event)
}

func (that *NATSPublisher) publish(subject string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err = that.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	return nil
}

func (that *NATSPublisher) Close() error {
	if err := that.conn.Drain(); err != nil {
		that.conn.Close()
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
