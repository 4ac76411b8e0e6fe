package identity

import (
	"context"
	"strings"
)

// Contacts looks up the approver's saved name for a sender. ok is false when
// the sender is not a saved contact.
type Contacts interface {
	LookupName(ctx context.Context, senderID string) (name string, ok bool, err error)
}

// NoContacts never knows anyone.
type NoContacts struct{}

func (NoContacts) LookupName(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// StaticContacts is a fixed address book, typically loaded from the
// config file's contacts table.
type StaticContacts map[string]string

func (c StaticContacts) LookupName(_ context.Context, senderID string) (string, bool, error) {
	name, ok := c[senderID]
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// ContactsFunc adapts a function to the Contacts interface.
type ContactsFunc func(ctx context.Context, senderID string) (string, bool, error)

func (f ContactsFunc) LookupName(ctx context.Context, senderID string) (string, bool, error) {
	return f(ctx, senderID)
}
