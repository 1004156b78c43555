package imageimport

import "testing"

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("logo.png", 100, 50, 80)
	b := DeriveKey("logo.png", 100, 50, 80)
	if a != b {
		t.Errorf("DeriveKey not deterministic: %s vs %s", a, b)
	}
}

func TestDeriveKeySensitivity(t *testing.T) {
	base := DeriveKey("logo.png", 100, 50, 80)
	testdata := []struct {
		name string
		key  string
	}{
		{"reference", DeriveKey("other.png", 100, 50, 80)},
		{"width", DeriveKey("logo.png", 101, 50, 80)},
		{"height", DeriveKey("logo.png", 100, 51, 80)},
		{"quality", DeriveKey("logo.png", 100, 50, 81)},
	}
	for _, tc := range testdata {
		if tc.key == base {
			t.Errorf("changing %s did not change the key", tc.name)
		}
	}
}

func TestDeriveKeyURLSafe(t *testing.T) {
	key := DeriveKey("https://example.com/a b?x=1&y=2", 0, 0, 100)
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			t.Fatalf("key %q contains non URL-safe character %q", key, r)
		}
	}
	if got, want := len(key), 22; got != want {
		t.Errorf("len(key) = %d, want %d", got, want)
	}
}
