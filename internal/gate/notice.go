package gate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alfredjeanlab/secretary/internal/identity"
	"github.com/alfredjeanlab/secretary/internal/model"
)

// DefaultExcerptLimit caps how many runes of the sender's message are quoted
// in the approver notice.
const DefaultExcerptLimit = 200

// Excerpt collapses whitespace in text and truncates it to limit runes.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// FormatNotice renders the message sent to the approver when a request opens.
func FormatNotice(req model.PendingRequest, who identity.Resolution, timeout time.Duration) string {
	status := "⚠️ unknown number"
	if who.Known {
		status = fmt.Sprintf("✅ saved contact (%s)", who.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 *Secretary request #%d*\n\n", req.Number)
	fmt.Fprintf(&b, "👤 From: %s\n", who.Name)
	fmt.Fprintf(&b, "📱 Status: %s\n", status)
	if req.Excerpt != "" {
		fmt.Fprintf(&b, "💬 Message: \"%s\"\n", req.Excerpt)
	}
	fmt.Fprintf(&b, "\n*Should I reply?* (yes / no, نعم / لا)\n")
	fmt.Fprintf(&b, "To answer this one specifically: \"yes %d\" or \"no %d\".\n", req.Number, req.Number)
	fmt.Fprintf(&b, "⏳ I will reply automatically in %s.", formatDuration(timeout))
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d%time.Minute == 0 && d >= time.Minute {
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return fmt.Sprintf("%d seconds", int(d.Round(time.Second)/time.Second))
}
