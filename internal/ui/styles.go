package ui

import (
	"fmt"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorFail   = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderVerdict colors a verdict: green PROCEED, amber WAITING, red STOP.
func RenderVerdict(v model.Verdict) string {
	switch v {
	case model.VerdictProceed:
		return render(colorOK, v.String())
	case model.VerdictWaiting:
		return render(colorWarn, v.String())
	case model.VerdictStop:
		return render(colorFail, v.String())
	}
	return v.String()
}

// RenderOrigin colors a session origin.
func RenderOrigin(o model.SessionOrigin) string {
	if o == model.OriginExplicitApproval {
		return render(colorOK, o.String())
	}
	return render(colorWarn, o.String())
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
