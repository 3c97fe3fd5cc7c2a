package idgen

import (
	"strings"
	"testing"
)

func TestNanoIDLengthAndAlphabet(t *testing.T) {
	gen := NanoID(12)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen()
		if len(id) != 12 {
			t.Fatalf("length: got %d, want 12", len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", c) {
				t.Fatalf("unexpected character %q in %q", c, id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q within 100 draws", id)
		}
		seen[id] = true
	}
}

func TestUUIDv7RoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if parsed != id {
		t.Errorf("Parse normalised %q to %q", id, parsed)
	}
}

func TestUUIDv7Sortable(t *testing.T) {
	gen := UUIDv7()
	prev := gen()
	for i := 0; i < 50; i++ {
		cur := gen()
		if cur < prev {
			t.Fatalf("v7 IDs not monotonic: %q then %q", prev, cur)
		}
		prev = cur
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("tab_", Default)
	id := gen()
	if !strings.HasPrefix(id, "tab_") {
		t.Errorf("missing prefix: %q", id)
	}
	if _, err := Parse(strings.TrimPrefix(id, "tab_")); err != nil {
		t.Errorf("suffix is not a UUID: %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}
