// Package identity resolves display names for senders and keeps a profile
// of every sender the responder has seen.
//
// Resolution never fails: the contacts lookup is best-effort and the
// resolver falls back to the transport-supplied push name and finally to
// a placeholder. Profiles are persisted through a store.IdentityStore;
// persistence failures are logged and ignored.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/alfredjeanlab/secretary/internal/clock"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/store"
)

// UnknownName is shown when a sender has neither a saved name nor a push name.
const UnknownName = "Unknown"

// Resolution is the outcome of a name lookup.
type Resolution struct {
	Name   string
	Source model.IdentitySource
	// Known reports whether the sender is a saved contact.
	Known bool
}

// Resolver resolves sender names and tracks sender profiles.
type Resolver struct {
	contacts Contacts
	store    store.IdentityStore
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.RWMutex
	names    map[string]string // saved-contact names, cache
	profiles map[string]*model.SenderIdentity
}

// NewResolver creates a resolver. A nil contacts, store or logger is replaced
// with a no-op equivalent.
func NewResolver(contacts Contacts, st store.IdentityStore, clk clock.Clock, logger *slog.Logger) *Resolver {
	if contacts == nil {
		contacts = NoContacts{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		contacts: contacts,
		store:    st,
		clock:    clk,
		logger:   logger,
		names:    make(map[string]string),
		profiles: make(map[string]*model.SenderIdentity),
	}
}

// Resolve returns the best available name for senderID.
func (r *Resolver) Resolve(ctx context.Context, senderID, pushName string) Resolution {
	r.mu.RLock()
	name, ok := r.names[senderID]
	r.mu.RUnlock()
	if ok {
		return Resolution{Name: name, Source: model.SourceCache, Known: true}
	}

	if name, ok := r.lookup(ctx, senderID); ok {
		r.mu.Lock()
		r.names[senderID] = name
		if p, exists := r.profiles[senderID]; exists {
			p.DisplayName = name
			p.Source = model.SourceLive
		}
		r.mu.Unlock()
		return Resolution{Name: name, Source: model.SourceLive, Known: true}
	}

	if pushName = strings.TrimSpace(pushName); pushName != "" {
		return Resolution{Name: pushName, Source: model.SourceFallback}
	}
	return Resolution{Name: UnknownName, Source: model.SourceFallback}
}

// lookup calls the contacts source, swallowing errors and panics.
func (r *Resolver) lookup(ctx context.Context, senderID string) (name string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("identity: contacts lookup panicked", "sender", senderID, "panic", fmt.Sprint(rec))
			name, ok = "", false
		}
	}()
	name, ok, err := r.contacts.LookupName(ctx, senderID)
	if err != nil {
		r.logger.Debug("identity: contacts lookup failed", "sender", senderID, "err", err)
		return "", false
	}
	name = strings.TrimSpace(name)
	return name, ok && name != ""
}

// Observe records a message from senderID and persists the updated profile.
// It returns a copy of the profile after the update.
func (r *Resolver) Observe(ctx context.Context, senderID, pushName string) model.SenderIdentity {
	res := r.Resolve(ctx, senderID, pushName)
	now := r.clock.Now()

	r.mu.Lock()
	p, ok := r.profiles[senderID]
	if !ok {
		p = &model.SenderIdentity{ID: senderID, FirstSeenAt: now}
		r.profiles[senderID] = p
	}
	// A fallback name never overwrites a name that came from contacts.
	if res.Source != model.SourceFallback || p.Source == "" || p.Source == model.SourceFallback {
		p.DisplayName = res.Name
		p.Source = res.Source
	}
	p.LastSeenAt = now
	p.MessageCount++
	snapshot := *p
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveIdentity(ctx, &snapshot); err != nil {
			r.logger.Warn("identity: failed to persist profile", "sender", senderID, "err", err)
		}
	}
	return snapshot
}

// Load warms the profile map and name cache from the store.
func (r *Resolver) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	list, err := r.store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("load identities: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p == nil || p.ID == "" {
			continue
		}
		cp := *p
		r.profiles[cp.ID] = &cp
		if cp.Source != model.SourceFallback && cp.DisplayName != "" {
			r.names[cp.ID] = cp.DisplayName
		}
	}
	r.logger.Info("identity: profiles loaded", "count", len(list))
	return nil
}

// Profile returns a copy of the profile for senderID.
func (r *Resolver) Profile(senderID string) (model.SenderIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[senderID]
	if !ok {
		return model.SenderIdentity{}, false
	}
	return *p, true
}

// Profiles returns a snapshot of all profiles, most recently seen first.
func (r *Resolver) Profiles() []model.SenderIdentity {
	r.mu.RLock()
	out := make([]model.SenderIdentity, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeenAt.Equal(out[j].LastSeenAt) {
			return out[i].LastSeenAt.After(out[j].LastSeenAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
