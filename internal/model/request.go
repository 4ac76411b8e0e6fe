package model

import "time"

// PendingRequest is a snapshot of an approval request that is still open.
type PendingRequest struct {
	ID          string    `json:"id"`
	Number      int64     `json:"number"`
	SenderID    string    `json:"sender_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Resolution records how a pending request was settled.
type Resolution struct {
	Request    PendingRequest  `json:"request"`
	Verdict    Verdict         `json:"verdict"`
	Cause      ResolutionCause `json:"cause"`
	ResolvedAt time.Time       `json:"resolved_at"`
}
