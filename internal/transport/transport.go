// Package transport bridges the chat network onto NATS.
//
// An external bridge owns the chat connection. It publishes every inbound
// message as JSON on the inbound subject and delivers whatever is
// published on the outbound subject. This package is the responder's side
// of that contract.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/model"
)

// Default subjects.
const (
	DefaultInboundSubject  = "chat.inbound"
	DefaultOutboundSubject = "chat.outbound"
)

// ErrEmptyRecipient is returned when an outbound message has no recipient.
var ErrEmptyRecipient = errors.New("transport: outbound message has no recipient")

// Sender delivers a message to the chat network.
type Sender interface {
	Send(ctx context.Context, msg model.Outbound) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg model.Outbound) error

func (f SenderFunc) Send(ctx context.Context, msg model.Outbound) error { return f(ctx, msg) }

// NATSSender publishes outbound messages as JSON.
type NATSSender struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSender creates a sender on an existing connection. An empty subject
// selects DefaultOutboundSubject.
func NewNATSSender(nc *nats.Conn, subject string) *NATSSender {
	if subject == "" {
		subject = DefaultOutboundSubject
	}
	return &NATSSender{conn: nc, subject: subject}
}

func (s *NATSSender) Send(ctx context.Context, msg model.Outbound) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrEmptyRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling outbound message: %w", err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", s.subject, err)
	}
	return nil
}

// Handler processes one inbound message.
type Handler func(ctx context.Context, msg model.Message)

// Listener decodes inbound messages from a subscriber and hands them to a
// handler one at a time.
type Listener struct {
	sub     events.Subscriber
	subject string
	logger  *slog.Logger
}

// NewListener creates a listener. An empty subject selects
// DefaultInboundSubject.
func NewListener(sub events.Subscriber, subject string, logger *slog.Logger) *Listener {
	if subject == "" {
		subject = DefaultInboundSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{sub: sub, subject: subject, logger: logger}
}

// Run consumes messages until ctx is canceled or the subscription closes.
// Messages are handled serially in arrival order. Undecodable payloads are
// logged and skipped.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	ch, cancel, err := l.sub.Subscribe(l.subject)
	if err != nil {
		return fmt.Errorf("subscribing to inbound messages: %w", err)
	}
	defer cancel()

	l.logger.Info("transport: listening", "subject", l.subject)
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := Decode(data)
			if err != nil {
				l.logger.Warn("transport: dropping undecodable message", "err", err)
				continue
			}
			handle(ctx, msg)
		}
	}
}

// Decode parses an inbound payload. A message must carry a sender.
func Decode(data []byte) (model.Message, error) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return model.Message{}, fmt.Errorf("decoding inbound message: %w", err)
	}
	if strings.TrimSpace(msg.SenderID) == "" {
		return model.Message{}, errors.New("decoding inbound message: missing sender_id")
	}
	return msg, nil
}
