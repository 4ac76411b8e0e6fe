package model

import "time"

// SessionOrigin says how a trust session came to exist.
type SessionOrigin string

const (
	OriginExplicitApproval SessionOrigin = "explicit-approval"
	OriginAutoTimeout      SessionOrigin = "auto-timeout"
)

// String returns the string representation of the origin.
func (o SessionOrigin) String() string {
	return string(o)
}

// IsValid checks whether the origin is a known value.
func (o SessionOrigin) IsValid() bool {
	switch o {
	case OriginExplicitApproval, OriginAutoTimeout:
		return true
	}
	return false
}

// TrustSession is a time-bounded grant that lets a sender bypass the gate.
type TrustSession struct {
	SenderID  string        `json:"sender_id"`
	GrantedAt time.Time     `json:"granted_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Origin    SessionOrigin `json:"origin"`
}

// ValidAt reports whether the session is still authoritative at now.
func (s TrustSession) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
