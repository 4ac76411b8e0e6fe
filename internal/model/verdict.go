package model

// Verdict is the gate's answer for one inbound message.
type Verdict string

const (
	// VerdictProceed lets the reply pipeline generate and send a reply.
	VerdictProceed Verdict = "PROCEED"
	// VerdictWaiting means an approval is already in flight; drop the message.
	VerdictWaiting Verdict = "WAITING"
	// VerdictStop means the approver refused; drop and never retry.
	VerdictStop Verdict = "STOP"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// Decision is the approver's parsed answer.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	return string(d)
}

// IsValid checks whether the decision is a known value.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionDeny:
		return true
	}
	return false
}

// ResolutionCause records which completion source settled a pending request.
type ResolutionCause string

const (
	CauseApproved ResolutionCause = "approved"
	CauseDenied   ResolutionCause = "denied"
	CauseTimeout  ResolutionCause = "timeout"
	// CauseAbandoned marks requests dropped at shutdown.
	CauseAbandoned ResolutionCause = "abandoned"
)
