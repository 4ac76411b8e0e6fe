package store

import (
	"context"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// IdentityStore persists sender profiles across restarts. It is a plain
// key-value store keyed by sender ID; the identity resolver owns all
// merge logic.
type IdentityStore interface {
	// SaveIdentity creates or overwrites the profile for identity.ID.
	SaveIdentity(ctx context.Context, identity *model.SenderIdentity) error

	// GetIdentity returns the stored profile, or (nil, nil) when the
	// sender has never been saved.
	GetIdentity(ctx context.Context, id string) (*model.SenderIdentity, error)

	// ListIdentities returns every stored profile.
	ListIdentities(ctx context.Context) ([]*model.SenderIdentity, error)

	// Close releases any underlying connections.
	Close() error
}
