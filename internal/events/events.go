package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// Event topic constants
const (
	TopicGateRequested = "secretary.gate.requested"
	TopicGateResolved  = "secretary.gate.resolved"

	TopicSessionGranted = "secretary.session.granted"
	TopicSessionRevoked = "secretary.session.revoked"

	// TopicAll matches every gate and session event.
	TopicAll = "secretary.>"
)

// Topics lists every concrete topic a gate publishes on.
var Topics = []string{
	TopicGateRequested,
	TopicGateResolved,
	TopicSessionGranted,
	TopicSessionRevoked,
}

// Event types

type GateRequested struct {
	Request model.PendingRequest `json:"request"`
	// Notified is false when the approver notice could not be sent.
	Notified bool `json:"notified"`
}

type GateResolved struct {
	Resolution model.Resolution `json:"resolution"`
}

type SessionGranted struct {
	Session model.TrustSession `json:"session"`
}

type SessionRevoked struct {
	SenderID  string    `json:"sender_id"`
	RevokedAt time.Time `json:"revoked_at"`
}

// Publisher is the interface for emitting events. Publishing is best-effort
// for the gate: errors are logged, never returned to a sender.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber delivers raw payloads for a subject until cancel is called. The
// inbound chat listener and the watch command both consume through it.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// NoopPublisher drops every event. Used when SECRETARY_EVENTS=false.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (*NoopPublisher) Close() error                               { return nil }
