package model

import "time"

// IdentitySource records where a sender's display name came from.
type IdentitySource string

const (
	SourceCache    IdentitySource = "cache"
	SourceLive     IdentitySource = "live"
	SourceFallback IdentitySource = "fallback"
)

// String returns the string representation of the source.
func (s IdentitySource) String() string {
	return string(s)
}

// SenderIdentity is the profile kept for every sender that has ever
// written in. Profiles only grow; nothing deletes them.
type SenderIdentity struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"display_name,omitempty"`
	Source       IdentitySource `json:"source,omitempty"`
	FirstSeenAt  time.Time      `json:"first_seen_at"`
	LastSeenAt   time.Time      `json:"last_seen_at"`
	MessageCount int64          `json:"message_count"`
}
