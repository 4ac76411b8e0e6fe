package model

import "time"

// Message is an inbound chat message as delivered by the transport bridge.
type Message struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"sender_id"`
	ChatID     string    `json:"chat_id,omitempty"`
	PushName   string    `json:"push_name,omitempty"`
	Text       string    `json:"text"`
	IsGroup    bool      `json:"is_group,omitempty"`
	FromSelf   bool      `json:"from_self,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// ReplyTo returns the conversation a reply should go to.
func (m *Message) ReplyTo() string {
	if m.ChatID != "" {
		return m.ChatID
	}
	return m.SenderID
}

// Outbound is a message handed to the transport bridge for delivery.
type Outbound struct {
	To   string `json:"to"`
	Text string `json:"text"`
}
