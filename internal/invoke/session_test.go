package invoke

import (
	"strings"
	"testing"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if len(id) != 33 {
		t.Errorf("len = %d, want 33", len(id))
	}
	if !strings.HasSuffix(id, "f") {
		t.Errorf("id = %q, want trailing f", id)
	}
	if strings.Contains(id, "-") {
		t.Errorf("id = %q contains hyphens", id)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session ID %q", id)
		}
		seen[id] = true
	}
}
