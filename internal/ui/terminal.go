package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode is the SECRETARY_COLOR setting: always, never, or auto.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ModeFromEnv reads SECRETARY_COLOR. Unknown values fall back to auto.
func ModeFromEnv() ColorMode {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(os.Getenv("SECRETARY_COLOR")))); m {
	case ColorAlways, ColorNever:
		return m
	default:
		return ColorAuto
	}
}

// ShouldUseColor reports whether verdicts and tables written to stdout get
// ANSI colors. An explicit SECRETARY_COLOR wins, then NO_COLOR,
// CLICOLOR_FORCE and CLICOLOR, then TTY detection.
func ShouldUseColor() bool {
	return colorFor(ModeFromEnv(), os.Stdout)
}

func colorFor(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}
