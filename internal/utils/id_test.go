package utils

import "testing"

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewShortIDLength(t *testing.T) {
	if got := NewShortID(); len(got) != 8 {
		t.Fatalf("expected 8 characters, got %q", got)
	}
}
