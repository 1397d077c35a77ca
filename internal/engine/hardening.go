package engine

import "strings"

// Interaction suppression is a deterrent, not a security boundary. The
// page adapter cancels these event classes for the whole active session;
// a failure to suppress is not a violation.

var suppressedEvents = []string{
	"contextmenu",
	"copy",
	"cut",
	"paste",
	"selectstart",
}

// SuppressedEvents lists the DOM event classes the page adapter must
// cancel while the session is active.
func SuppressedEvents() []string {
	out := make([]string, len(suppressedEvents))
	copy(out, suppressedEvents)
	return out
}

// BlockedShortcut reports whether a keyboard combination should be
// swallowed: save, print, view-source, and the devtools shortcuts.
func BlockedShortcut(ctrl, shift bool, key string) bool {
	key = strings.ToLower(key)

	if key == "f12" {
		return true
	}
	if ctrl && shift {
		switch key {
		case "i", "j", "c":
			return true
		}
	}
	if ctrl && !shift {
		switch key {
		case "s", "p", "u":
			return true
		}
	}
	return false
}
