// Package gate decides, per inbound message, whether the automated reply
// pipeline may act.
//
// Unknown senders are held behind a single human approver. The first
// message from an ungated sender opens a pending request and notifies the
// approver; the request resolves on an explicit decision or, failing that,
// on timeout. Both approval and timeout grant the sender a trust session,
// so the gate is fail-open: the system prefers to eventually reply over
// blocking indefinitely.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/secretary/internal/clock"
	"github.com/alfredjeanlab/secretary/internal/decision"
	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/identity"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/pending"
	"github.com/alfredjeanlab/secretary/internal/session"
	"github.com/alfredjeanlab/secretary/internal/transport"
)

// DefaultNotifyTimeout bounds a single approver notification send.
const DefaultNotifyTimeout = 10 * time.Second

var (
	// ErrNoApprover is returned by New when no approver is configured.
	ErrNoApprover = errors.New("gate: approver id is required")
	// ErrNoPending is returned when a decision targets nothing open.
	ErrNoPending = errors.New("gate: no pending request")
	// ErrInvalidDecision is returned for decisions other than approve or deny.
	ErrInvalidDecision = errors.New("gate: invalid decision")
)

// Config holds the gate's tunables.
type Config struct {
	ApproverID      string
	Timeout         time.Duration // pending request lifetime, default 35s
	SessionDuration time.Duration // trust session lifetime, default 600s
	MaxPending      int           // open request cap, default 64
	ExcerptLimit    int           // runes quoted in the notice, default 200
	NotifyTimeout   time.Duration
}

// Deps are the controller's collaborators. Only Notifier is required; the
// rest default to in-memory or no-op implementations.
type Deps struct {
	Clock      clock.Clock
	Sessions   *session.Store
	Identities *identity.Resolver
	Notifier   transport.Sender
	Events     events.Publisher
	Logger     *slog.Logger
}

// Controller is the admission gate. It is safe for concurrent use.
type Controller struct {
	cfg        Config
	clock      clock.Clock
	sessions   *session.Store
	pending    *pending.Registry
	identities *identity.Resolver
	notifier   transport.Sender
	events     events.Publisher
	logger     *slog.Logger

	// mu serializes admission checks with resolution so that a sender is
	// never both pending and admitted by a session check in between.
	mu     sync.Mutex
	closed bool
}

// New creates a controller.
func New(cfg Config, deps Deps) (*Controller, error) {
	if cfg.ApproverID == "" {
		return nil, ErrNoApprover
	}
	if deps.Notifier == nil {
		return nil, errors.New("gate: notifier is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = pending.DefaultTimeout
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = pending.DefaultMax
	}
	if cfg.ExcerptLimit <= 0 {
		cfg.ExcerptLimit = DefaultExcerptLimit
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Sessions == nil {
		if cfg.SessionDuration <= 0 {
			cfg.SessionDuration = session.DefaultDuration
		}
		deps.Sessions = session.New(cfg.SessionDuration)
	}
	cfg.SessionDuration = deps.Sessions.Duration()
	if deps.Identities == nil {
		deps.Identities = identity.NewResolver(nil, nil, deps.Clock, deps.Logger)
	}
	if deps.Events == nil {
		deps.Events = &events.NoopPublisher{}
	}

	return &Controller{
		cfg:        cfg,
		clock:      deps.Clock,
		sessions:   deps.Sessions,
		pending:    pending.New(deps.Clock, cfg.MaxPending),
		identities: deps.Identities,
		notifier:   deps.Notifier,
		events:     deps.Events,
		logger:     deps.Logger,
	}, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// IsApprover reports whether senderID is the approver.
func (c *Controller) IsApprover(senderID string) bool {
	return senderID == c.cfg.ApproverID
}

// Admit runs the gate for one inbound message. It never blocks on the
// approver; callers that receive a gated admission call Wait.
func (c *Controller) Admit(ctx context.Context, msg model.Message) (adm *Admission) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("gate: admission panicked, failing open",
				"sender", msg.SenderID, "panic", fmt.Sprint(rec))
			adm = immediate(model.VerdictProceed, ReasonFailOpen)
		}
	}()

	switch {
	case c.IsApprover(msg.SenderID):
		return immediate(model.VerdictProceed, ReasonApprover)
	case msg.IsGroup:
		return immediate(model.VerdictProceed, ReasonGroup)
	}

	who := c.identities.Resolve(ctx, msg.SenderID, msg.PushName)
	adm, req := c.open(msg, who)
	if req != nil {
		c.notify(ctx, req, who)
	}
	return adm
}

func (c *Controller) open(msg model.Message, who identity.Resolution) (*Admission, *pending.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return immediate(model.VerdictWaiting, ReasonClosed), nil
	}
	if c.sessions.IsTrusted(msg.SenderID, c.clock.Now()) {
		return immediate(model.VerdictProceed, ReasonSession), nil
	}

	req, err := c.pending.Open(pending.OpenInput{
		SenderID:    msg.SenderID,
		DisplayName: who.Name,
		Excerpt:     Excerpt(msg.Text, c.cfg.ExcerptLimit),
		Timeout:     c.cfg.Timeout,
		OnExpire:    c.expire,
	})
	switch {
	case errors.Is(err, pending.ErrExists):
		return immediate(model.VerdictWaiting, ReasonPending), nil
	case errors.Is(err, pending.ErrFull):
		c.logger.Warn("gate: pending cap reached, dropping message",
			"sender", msg.SenderID, "max", c.cfg.MaxPending)
		return immediate(model.VerdictWaiting, ReasonFull), nil
	case err != nil:
		c.logger.Error("gate: opening request failed, failing open", "sender", msg.SenderID, "err", err)
		return immediate(model.VerdictProceed, ReasonFailOpen), nil
	}
	return &Admission{verdict: model.VerdictWaiting, reason: ReasonGated, req: req}, req
}

// notify sends the approver notice. Failures are logged; the request's
// timer keeps running regardless.
func (c *Controller) notify(ctx context.Context, req *pending.Request, who identity.Resolution) {
	snap := req.Snapshot()
	text := FormatNotice(snap, who, c.cfg.Timeout)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.NotifyTimeout)
	defer cancel()
	err := c.notifier.Send(sendCtx, model.Outbound{To: c.cfg.ApproverID, Text: text})
	if err != nil {
		c.logger.Warn("gate: failed to notify approver", "sender", snap.SenderID, "request", snap.ID, "err", err)
	} else {
		c.logger.Info("gate: approval requested", "sender", snap.SenderID, "request", snap.ID, "number", snap.Number)
	}
	c.publish(ctx, events.TopicGateRequested, events.GateRequested{Request: snap, Notified: err == nil})
}

// expire is the request timer callback.
func (c *Controller) expire(req *pending.Request) {
	c.settle(context.Background(), req, model.VerdictProceed, model.CauseTimeout)
}

// settle resolves req exactly once. It returns false if something else
// already resolved it.
func (c *Controller) settle(ctx context.Context, req *pending.Request, verdict model.Verdict, cause model.ResolutionCause) (model.Resolution, bool) {
	granted, ok := c.finish(req, verdict, cause)
	if !ok {
		return model.Resolution{}, false
	}

	res, _ := req.Wait(context.Background())
	c.logger.Info("gate: request resolved", "sender", req.SenderID, "request", req.ID,
		"verdict", verdict, "cause", cause)
	c.publish(ctx, events.TopicGateResolved, events.GateResolved{Resolution: res})
	if granted != nil {
		c.publish(ctx, events.TopicSessionGranted, events.SessionGranted{Session: *granted})
	}
	return res, true
}

// finish takes req, grants the session its cause calls for and releases
// waiters, all under mu.
func (c *Controller) finish(req *pending.Request, verdict model.Verdict, cause model.ResolutionCause) (*model.TrustSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending.Take(req) {
		return nil, false
	}
	now := c.clock.Now()
	var granted *model.TrustSession
	switch cause {
	case model.CauseApproved:
		s := c.sessions.Grant(req.SenderID, now, model.OriginExplicitApproval)
		granted = &s
	case model.CauseTimeout:
		s := c.sessions.Grant(req.SenderID, now, model.OriginAutoTimeout)
		granted = &s
	}
	req.Finish(verdict, cause, now)
	return granted, true
}

// HandleApproverReply applies an approver message as a decision. A reply
// carrying a prompt number ("yes 3") targets that request; otherwise it
// applies to the most recently opened request. It reports false when text
// is not a decision or nothing matching is open, in which case the message
// is ordinary input.
func (c *Controller) HandleApproverReply(ctx context.Context, text string) (model.Resolution, bool) {
	reply, ok := decision.Parse(text)
	if !ok {
		return model.Resolution{}, false
	}

	var req *pending.Request
	if reply.Number > 0 {
		req = c.pending.ByNumber(reply.Number)
	} else {
		req = c.pending.Latest()
	}
	if req == nil {
		c.logger.Debug("gate: decision with no matching request", "decision", reply.Decision, "number", reply.Number)
		return model.Resolution{}, false
	}
	return c.apply(ctx, req, reply.Decision)
}

// Decide applies a decision to the open request for senderID.
func (c *Controller) Decide(ctx context.Context, senderID string, d model.Decision) (model.Resolution, error) {
	if !d.IsValid() {
		return model.Resolution{}, fmt.Errorf("%w: %q", ErrInvalidDecision, d)
	}
	req := c.pending.BySender(senderID)
	if req == nil {
		return model.Resolution{}, ErrNoPending
	}
	res, ok := c.apply(ctx, req, d)
	if !ok {
		return model.Resolution{}, ErrNoPending
	}
	return res, nil
}

func (c *Controller) apply(ctx context.Context, req *pending.Request, d model.Decision) (model.Resolution, bool) {
	if d == model.DecisionApprove {
		return c.settle(ctx, req, model.VerdictProceed, model.CauseApproved)
	}
	return c.settle(ctx, req, model.VerdictStop, model.CauseDenied)
}

// Revoke ends the sender's trust session early.
func (c *Controller) Revoke(ctx context.Context, senderID string) bool {
	c.mu.Lock()
	ok := c.sessions.Revoke(senderID)
	c.mu.Unlock()
	if ok {
		c.logger.Info("gate: session revoked", "sender", senderID)
		c.publish(ctx, events.TopicSessionRevoked, events.SessionRevoked{SenderID: senderID, RevokedAt: c.clock.Now()})
	}
	return ok
}

// Pending returns the open requests, oldest first.
func (c *Controller) Pending() []model.PendingRequest {
	return c.pending.List()
}

// Sessions returns the unexpired trust sessions.
func (c *Controller) Sessions() []model.TrustSession {
	return c.sessions.List(c.clock.Now())
}

// Session returns the sender's unexpired trust session, if any.
func (c *Controller) Session(senderID string) (model.TrustSession, bool) {
	return c.sessions.Get(senderID, c.clock.Now())
}

// Close stops every timer and abandons open requests. Their waiters get
// WAITING. Admissions after Close return WAITING.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	now := c.clock.Now()
	reqs := c.pending.TakeAll()
	for _, req := range reqs {
		req.Finish(model.VerdictWaiting, model.CauseAbandoned, now)
	}
	if len(reqs) > 0 {
		c.logger.Info("gate: abandoned open requests", "count", len(reqs))
	}
	return nil
}

func (c *Controller) publish(ctx context.Context, topic string, event any) {
	if err := c.events.Publish(context.WithoutCancel(ctx), topic, event); err != nil {
		c.logger.Warn("gate: failed to publish event", "topic", topic, "err", err)
	}
}
