package gate

import (
	"context"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/pending"
)

// Reason explains how an admission reached its verdict.
type Reason string

const (
	ReasonApprover Reason = "approver"
	ReasonGroup    Reason = "group"
	ReasonSession  Reason = "session"
	ReasonPending  Reason = "pending"
	ReasonFull     Reason = "full"
	ReasonGated    Reason = "gated"
	ReasonFailOpen Reason = "fail-open"
	ReasonClosed   Reason = "closed"
)

// Admission is the gate's answer for one message. An admission either
// carries an immediate verdict or a pending request to wait on.
type Admission struct {
	verdict model.Verdict
	reason  Reason
	req     *pending.Request
}

func immediate(v model.Verdict, reason Reason) *Admission {
	return &Admission{verdict: v, reason: reason}
}

// Reason reports which rule produced the admission.
func (a *Admission) Reason() Reason { return a.reason }

// Immediate returns the verdict when no wait is needed.
func (a *Admission) Immediate() (model.Verdict, bool) {
	if a.req != nil {
		return "", false
	}
	return a.verdict, true
}

// Request returns the snapshot of the request this admission opened.
func (a *Admission) Request() (model.PendingRequest, bool) {
	if a.req == nil {
		return model.PendingRequest{}, false
	}
	return a.req.Snapshot(), true
}

// Wait blocks until the verdict is known. If ctx ends first, or the request
// was abandoned at shutdown, the verdict is WAITING.
func (a *Admission) Wait(ctx context.Context) model.Verdict {
	res, err := a.Outcome(ctx)
	if err != nil {
		return model.VerdictWaiting
	}
	return res.Verdict
}

// Outcome is Wait with the full resolution. Immediate admissions return a
// resolution carrying only the verdict.
func (a *Admission) Outcome(ctx context.Context) (model.Resolution, error) {
	if a.req == nil {
		return model.Resolution{Verdict: a.verdict}, nil
	}
	return a.req.Wait(ctx)
}
