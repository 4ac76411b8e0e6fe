package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with automatic reconnection. Extra options are appended
// to the defaults.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name("secretary"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn  *nats.Conn
	owned bool
}

// NewNATSPublisher opens its own connection to url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, owned: true}, nil
}

// NewNATSPublisherConn publishes on an existing connection. Close does not
// close nc.
func NewNATSPublisherConn(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: nc}
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.owned {
		p.conn.Close()
	}
	return nil
}

// NATSSubscriber subscribes to raw payloads on NATS subjects.
type NATSSubscriber struct {
	conn  *nats.Conn
	owned bool
}

// NewNATSSubscriber connects to NATS with automatic reconnection support.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be appended.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc, owned: true}, nil
}

// NewNATSSubscriberConn subscribes on an existing connection. Close does not
// close nc.
func NewNATSSubscriberConn(nc *nats.Conn) *NATSSubscriber {
	return &NATSSubscriber{conn: nc}
}

// Subscribe returns a channel that receives raw payloads for the given
// subject (supports NATS wildcards like "secretary.>"). Call the returned
// cancel function to unsubscribe and close the channel.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 64)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- msg.Data:
		default:
			// Drop when full so the NATS client never blocks.
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The subscription must be registered on the server before returning so
	// that messages published on other connections are routed.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			for {
				select {
				case <-ch:
				default:
					close(ch)
					return
				}
			}
		})
	}

	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	if s.owned {
		s.conn.Close()
	}
	return nil
}
