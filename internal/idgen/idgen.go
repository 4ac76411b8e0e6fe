// Package idgen generates short, URL-safe identifiers for approval
// requests and injected messages.
package idgen

import (
	"fmt"
	"strconv"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the kinds of identifiers the service mints.
const (
	RequestPrefix = "rq-"
	MessagePrefix = "msg-"
)

// Alphabet is the character set of the random part.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters after the prefix.
const Length = 10

// New returns prefix followed by Length random characters.
func New(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// RequestID returns a new approval request ID. If the random source
// fails it falls back to a timestamp so admission never blocks on it.
func RequestID() string {
	id, err := New(RequestPrefix)
	if err != nil {
		return RequestPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}

// MessageID returns a new ID for a message injected from the CLI.
func MessageID() string {
	id, err := New(MessagePrefix)
	if err != nil {
		return MessagePrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
