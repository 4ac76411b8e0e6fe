// Package responder is the automated reply pipeline that sits in front of
// the gate.
//
// Every inbound message is offered, in order, to: the self/empty filter,
// the approver decision handler (approver messages only), the profile
// tracker, the screener and the gate. Messages the gate admits get a reply
// from the Replier. Gated admissions are awaited on their own goroutine so
// the stream keeps flowing while the approver decides.
package responder

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/alfredjeanlab/secretary/internal/gate"
	"github.com/alfredjeanlab/secretary/internal/identity"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/transport"
)

// Screener can veto a message before it reaches the gate, for example for
// spam or rate limiting.
type Screener interface {
	Screen(ctx context.Context, msg model.Message) (allow bool, reason string)
}

// AllowAll is a Screener that admits everything.
type AllowAll struct{}

func (AllowAll) Screen(context.Context, model.Message) (bool, string) { return true, "" }

// ScreenerFunc adapts a function to the Screener interface.
type ScreenerFunc func(ctx context.Context, msg model.Message) (bool, string)

func (f ScreenerFunc) Screen(ctx context.Context, msg model.Message) (bool, string) { return f(ctx, msg) }

// Outcome describes what the pipeline did with a message.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeDecision Outcome = "decision"
	OutcomeScreened Outcome = "screened"
	OutcomeReplied  Outcome = "replied"
	OutcomeDropped  Outcome = "dropped"
)

// Pipeline routes inbound messages through the gate to the replier.
type Pipeline struct {
	gate       *gate.Controller
	identities *identity.Resolver
	screener   Screener
	replier    Replier
	sender     transport.Sender
	logger     *slog.Logger

	// OnOutcome, if set, is called once per message with its final outcome.
	OnOutcome func(msg model.Message, outcome Outcome, verdict model.Verdict)

	wg sync.WaitGroup
}

// New creates a pipeline. A nil screener admits everything.
func New(g *gate.Controller, ids *identity.Resolver, screener Screener, replier Replier, sender transport.Sender, logger *slog.Logger) *Pipeline {
	if screener == nil {
		screener = AllowAll{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gate:       g,
		identities: ids,
		screener:   screener,
		replier:    replier,
		sender:     sender,
		logger:     logger,
	}
}

// Handle processes one inbound message. It returns without waiting for the
// approver; use Wait to drain deferred messages.
func (p *Pipeline) Handle(ctx context.Context, msg model.Message) {
	if msg.FromSelf || strings.TrimSpace(msg.Text) == "" {
		p.report(msg, OutcomeIgnored, "")
		return
	}

	if p.gate.IsApprover(msg.SenderID) {
		if res, ok := p.gate.HandleApproverReply(ctx, msg.Text); ok {
			p.logger.Info("responder: approver decision applied",
				"sender", res.Request.SenderID, "verdict", res.Verdict)
			p.report(msg, OutcomeDecision, res.Verdict)
			return
		}
	}

	who := p.identities.Observe(ctx, msg.SenderID, msg.PushName)

	if ok, reason := p.screener.Screen(ctx, msg); !ok {
		p.logger.Debug("responder: message screened out", "sender", msg.SenderID, "reason", reason)
		p.report(msg, OutcomeScreened, "")
		return
	}

	adm := p.gate.Admit(ctx, msg)
	if v, ok := adm.Immediate(); ok {
		p.act(ctx, msg, who, v)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.act(ctx, msg, who, adm.Wait(ctx))
	}()
}

// act carries out the verdict contract: PROCEED replies, anything else
// drops the message for good.
func (p *Pipeline) act(ctx context.Context, msg model.Message, who model.SenderIdentity, v model.Verdict) {
	if v != model.VerdictProceed {
		p.logger.Debug("responder: message dropped", "sender", msg.SenderID, "verdict", v)
		p.report(msg, OutcomeDropped, v)
		return
	}

	text, err := p.replier.Reply(ctx, msg, who)
	if err != nil {
		p.logger.Warn("responder: reply generation failed", "sender", msg.SenderID, "err", err)
		p.report(msg, OutcomeDropped, v)
		return
	}
	if strings.TrimSpace(text) == "" {
		p.report(msg, OutcomeDropped, v)
		return
	}
	if err := p.sender.Send(ctx, model.Outbound{To: msg.ReplyTo(), Text: text}); err != nil {
		p.logger.Warn("responder: reply send failed", "sender", msg.SenderID, "err", err)
		p.report(msg, OutcomeDropped, v)
		return
	}
	p.report(msg, OutcomeReplied, v)
}

func (p *Pipeline) report(msg model.Message, outcome Outcome, v model.Verdict) {
	if p.OnOutcome != nil {
		p.OnOutcome(msg, outcome, v)
	}
}

// Wait blocks until every deferred message has been settled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
