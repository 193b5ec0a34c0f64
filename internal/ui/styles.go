package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent = 74  // blue: collection names, headers
	colorKey    = 179 // amber: parameter names
	colorMuted  = 245 // gray: counts and hints
	colorError  = 167 // red
)

var noColor = !ShouldUseColor()

func render(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderKey returns s styled as a parameter name.
func RenderKey(s string) string { return render(colorKey, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return render(colorError, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ForceColor enables color output regardless of the terminal.
func ForceColor() {
	noColor = false
}
