package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/gate"
	"github.com/alfredjeanlab/secretary/internal/identity"
)

// Broadcaster is an events.Publisher that copies every event to the SSE
// hub before forwarding it to the next publisher.
type Broadcaster struct {
	next events.Publisher
	hub  *sseHub
}

// NewBroadcaster wraps next. A nil next only feeds SSE clients.
func NewBroadcaster(next events.Publisher) *Broadcaster {
	if next == nil {
		next = &events.NoopPublisher{}
	}
	return &Broadcaster{next: next, hub: newSSEHub()}
}

func (b *Broadcaster) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", topic, err)
	}
	b.hub.broadcast(topic, eventSender(event), payload)
	return b.next.Publish(ctx, topic, event)
}

// eventSender extracts the sender an event concerns.
func eventSender(event any) string {
	switch e := event.(type) {
	case events.GateRequested:
		return e.Request.SenderID
	case events.GateResolved:
		return e.Resolution.Request.SenderID
	case events.SessionGranted:
		return e.Session.SenderID
	case events.SessionRevoked:
		return e.SenderID
	}
	return ""
}

func (b *Broadcaster) Close() error {
	return b.next.Close()
}

// Server exposes the gate and identity state over HTTP.
type Server struct {
	gate       *gate.Controller
	identities *identity.Resolver
	events     *Broadcaster
	logger     *slog.Logger
}

// New returns a Server. events may be nil, in which case the event stream
// endpoint reports 503.
func New(g *gate.Controller, ids *identity.Resolver, b *Broadcaster, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gate:       g,
		identities: ids,
		events:     b,
		logger:     logger,
	}
}

// inputError indicates invalid user input.
// Handlers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
