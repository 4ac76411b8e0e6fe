// Package pending holds the approval requests that are waiting on the
// approver.
//
// At most one request exists per sender. Each request carries its own
// timer and completion channel; Take hands a request to exactly one
// resolver (timer, decision or shutdown) and every later Take of the same
// request reports false.
package pending

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/secretary/internal/clock"
	"github.com/alfredjeanlab/secretary/internal/idgen"
	"github.com/alfredjeanlab/secretary/internal/model"
)

const (
	// DefaultMax caps the number of simultaneously open requests.
	DefaultMax = 64
	// DefaultTimeout is how long a request waits before auto-resolving.
	DefaultTimeout = 35 * time.Second
)

var (
	// ErrExists is returned by Open when the sender already has a request.
	ErrExists = errors.New("pending: request already open for sender")
	// ErrFull is returned by Open when the registry is at capacity.
	ErrFull = errors.New("pending: too many open requests")
)

// Request is one open approval request.
type Request struct {
	ID          string
	Number      int64
	SenderID    string
	DisplayName string
	Excerpt     string
	RequestedAt time.Time
	ExpiresAt   time.Time

	timer    *clock.Timer
	resolved bool // guarded by Registry.mu

	once       sync.Once
	done       chan struct{}
	resolution model.Resolution
}

// Snapshot returns the request's public fields.
func (r *Request) Snapshot() model.PendingRequest {
	return model.PendingRequest{
		ID:          r.ID,
		Number:      r.Number,
		SenderID:    r.SenderID,
		DisplayName: r.DisplayName,
		Excerpt:     r.Excerpt,
		RequestedAt: r.RequestedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

// Done is closed once the request has been finished.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Finish records the outcome and releases waiters. Only the first call
// has any effect.
func (r *Request) Finish(verdict model.Verdict, cause model.ResolutionCause, at time.Time) {
	r.once.Do(func() {
		r.resolution = model.Resolution{
			Request:    r.Snapshot(),
			Verdict:    verdict,
			Cause:      cause,
			ResolvedAt: at,
		}
		close(r.done)
	})
}

// Wait blocks until the request is finished or ctx is done.
func (r *Request) Wait(ctx context.Context) (model.Resolution, error) {
	select {
	case <-r.done:
		return r.resolution, nil
	case <-ctx.Done():
		return model.Resolution{}, ctx.Err()
	}
}

// Registry is the set of open requests keyed by sender.
type Registry struct {
	clock clock.Clock
	max   int

	mu       sync.RWMutex
	seq      int64
	bySender map[string]*Request
}

// New creates a registry that times requests with clk and holds at most
// max of them. A non-positive max falls back to DefaultMax.
func New(clk clock.Clock, max int) *Registry {
	if max <= 0 {
		max = DefaultMax
	}
	return &Registry{
		clock:    clk,
		max:      max,
		bySender: make(map[string]*Request),
	}
}

// OpenInput describes a request to open.
type OpenInput struct {
	SenderID    string
	DisplayName string
	Excerpt     string
	Timeout     time.Duration
	// OnExpire runs when the timeout elapses before anything else took
	// the request. It is called without any registry lock held.
	OnExpire func(*Request)
}

// Open registers a new request and starts its timer.
func (g *Registry) Open(in OpenInput) (*Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.bySender[in.SenderID]; ok {
		return nil, ErrExists
	}
	if len(g.bySender) >= g.max {
		return nil, ErrFull
	}
	if in.Timeout <= 0 {
		in.Timeout = DefaultTimeout
	}

	now := g.clock.Now()
	g.seq++
	req := &Request{
		ID:          idgen.RequestID(),
		Number:      g.seq,
		SenderID:    in.SenderID,
		DisplayName: in.DisplayName,
		Excerpt:     in.Excerpt,
		RequestedAt: now,
		ExpiresAt:   now.Add(in.Timeout),
		done:        make(chan struct{}),
	}
	g.bySender[in.SenderID] = req

	if in.OnExpire != nil {
		onExpire := in.OnExpire
		req.timer = g.clock.AfterFunc(in.Timeout, func() { onExpire(req) })
	}
	return req, nil
}

// Take removes req from the registry and stops its timer. It returns
// true for exactly one caller per request.
func (g *Registry) Take(req *Request) bool {
	if req == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if req.resolved {
		return false
	}
	req.resolved = true
	if cur, ok := g.bySender[req.SenderID]; ok && cur == req {
		delete(g.bySender, req.SenderID)
	}
	req.timer.Stop()
	return true
}

// TakeAll removes every open request, for shutdown.
func (g *Registry) TakeAll() []*Request {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Request, 0, len(g.bySender))
	for id, req := range g.bySender {
		req.resolved = true
		req.timer.Stop()
		delete(g.bySender, id)
		out = append(out, req)
	}
	return out
}

// BySender returns the open request for senderID, if any.
func (g *Registry) BySender(senderID string) *Request {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bySender[senderID]
}

// ByNumber returns the open request with the given prompt number, if any.
func (g *Registry) ByNumber(n int64) *Request {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, req := range g.bySender {
		if req.Number == n {
			return req
		}
	}
	return nil
}

// Latest returns the most recently opened request that is still open.
func (g *Registry) Latest() *Request {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var latest *Request
	for _, req := range g.bySender {
		if latest == nil || req.Number > latest.Number {
			latest = req
		}
	}
	return latest
}

// Len returns the number of open requests.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.bySender)
}

// List returns snapshots of all open requests, oldest first.
func (g *Registry) List() []model.PendingRequest {
	g.mu.RLock()
	out := make([]model.PendingRequest, 0, len(g.bySender))
	for _, req := range g.bySender {
		out = append(out, req.Snapshot())
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
