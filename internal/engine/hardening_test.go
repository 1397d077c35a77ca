package engine

import "testing"

func TestBlockedShortcut(t *testing.T) {
	blocked := []struct {
		ctrl, shift bool
		key         string
	}{
		{true, false, "s"},
		{true, false, "S"},
		{true, false, "p"},
		{true, false, "u"},
		{false, false, "F12"},
		{true, true, "i"},
		{true, true, "j"},
		{true, true, "c"},
	}
	for _, c := range blocked {
		if !BlockedShortcut(c.ctrl, c.shift, c.key) {
			t.Errorf("BlockedShortcut(%v, %v, %q) = false, want true", c.ctrl, c.shift, c.key)
		}
	}

	allowed := []struct {
		ctrl, shift bool
		key         string
	}{
		{false, false, "a"},
		{true, false, "c"}, // plain copy handled by event suppression, not the key filter
		{true, false, "a"},
		{false, true, "i"},
		{true, true, "s"},
	}
	for _, c := range allowed {
		if BlockedShortcut(c.ctrl, c.shift, c.key) {
			t.Errorf("BlockedShortcut(%v, %v, %q) = true, want false", c.ctrl, c.shift, c.key)
		}
	}
}

func TestSuppressedEventsIsACopy(t *testing.T) {
	events := SuppressedEvents()
	if len(events) == 0 {
		t.Fatal("no suppressed events declared")
	}
	events[0] = "mutated"
	if SuppressedEvents()[0] == "mutated" {
		t.Error("SuppressedEvents leaked internal slice")
	}
}
