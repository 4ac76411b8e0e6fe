package responder

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// DefaultTemplate is the reply sent when nothing more specific is configured.
const DefaultTemplate = "Hi {{.Name}}, thanks for your message. I'm away right now and will get back to you soon."

// Replier produces the automated reply for a message that passed the gate.
// An empty reply means "send nothing".
type Replier interface {
	Reply(ctx context.Context, msg model.Message, who model.SenderIdentity) (string, error)
}

// ReplierFunc adapts a function to the Replier interface.
type ReplierFunc func(ctx context.Context, msg model.Message, who model.SenderIdentity) (string, error)

func (f ReplierFunc) Reply(ctx context.Context, msg model.Message, who model.SenderIdentity) (string, error) {
	return f(ctx, msg, who)
}

// TemplateReplier renders a text/template per sender. Templates see the
// fields Name, SenderID and Text.
type TemplateReplier struct {
	fallback *template.Template
	bySender map[string]*template.Template
}

// NewTemplateReplier parses the default template and per-sender overrides.
// An empty def selects DefaultTemplate.
func NewTemplateReplier(def string, overrides map[string]string) (*TemplateReplier, error) {
	if def == "" {
		def = DefaultTemplate
	}
	fallback, err := template.New("default").Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parsing default reply template: %w", err)
	}
	r := &TemplateReplier{fallback: fallback, bySender: make(map[string]*template.Template, len(overrides))}
	for sender, text := range overrides {
		t, err := template.New(sender).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing reply template for %s: %w", sender, err)
		}
		r.bySender[sender] = t
	}
	return r, nil
}

type replyData struct {
	Name     string
	SenderID string
	Text     string
}

func (r *TemplateReplier) Reply(_ context.Context, msg model.Message, who model.SenderIdentity) (string, error) {
	t, ok := r.bySender[msg.SenderID]
	if !ok {
		t = r.fallback
	}
	name := who.DisplayName
	if name == "" {
		name = msg.PushName
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, replyData{Name: name, SenderID: msg.SenderID, Text: msg.Text}); err != nil {
		return "", fmt.Errorf("rendering reply: %w", err)
	}
	return buf.String(), nil
}
