package util

import "testing"

func TestParseLimit(t *testing.T) {
	cases := map[string]int{"": 20, "5": 5, "abc": 20, "0": 20, "999999999999": 100, "100": 100}
	for raw, want := range cases {
		if got := ParseLimit(raw, 20, 100); got != want {
			t.Fatalf("ParseLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("curta") == nil {
		t.Fatalf("expected error for short password")
	}
	if err := ValidatePassword("longa-o-bastante"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if RequireString("  ", "path") == nil {
		t.Fatalf("expected error for blank field")
	}
}
