// Package client provides the interface the secretary CLI uses to reach a
// running responder and an HTTP/JSON implementation of it.
package client

import (
	"context"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// SecretaryClient is the interface that all secretary CLI commands use to
// communicate with the admin API.
type SecretaryClient interface {
	// Gate
	ListPending(ctx context.Context) ([]model.PendingRequest, error)
	Decide(ctx context.Context, senderID string, d model.Decision) (*model.Resolution, error)
	Reply(ctx context.Context, text string) (*ReplyResponse, error)

	// Sessions
	ListSessions(ctx context.Context) ([]model.TrustSession, error)
	GetSession(ctx context.Context, senderID string) (*model.TrustSession, error)
	RevokeSession(ctx context.Context, senderID string) error

	// Identities
	ListIdentities(ctx context.Context) ([]model.SenderIdentity, error)
	GetIdentity(ctx context.Context, senderID string) (*model.SenderIdentity, error)

	// Health
	Health(ctx context.Context) (*HealthResponse, error)

	// Lifecycle
	Close() error
}

// ReplyResponse is returned by Reply. Resolution is nil when the text was
// not a decision or nothing was pending.
type ReplyResponse struct {
	Applied    bool              `json:"applied"`
	Resolution *model.Resolution `json:"resolution,omitempty"`
}

// HealthResponse is returned by Health.
type HealthResponse struct {
	Status        string `json:"status"`
	Pending       int    `json:"pending"`
	Sessions      int    `json:"sessions"`
	StreamClients int    `json:"stream_clients,omitempty"`
}
