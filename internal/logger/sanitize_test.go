package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"plain", "deal-42", 10, "deal-42"},
		{"strips newlines", "user\n{\"level\":\"error\"}", 100, "user{\"level\":\"error\"}"},
		{"strips control chars", "a\x00b\x1bc", 10, "abc"},
		{"keeps tab", "a\tb", 10, "a\tb"},
		{"truncates", "abcdefghij", 4, "abcd..."},
		{"does not split runes", "ééé", 3, "é..."},
		{"invalid utf8 repaired", "ok\xffok", 10, "okok"},
		{"default limit", strings.Repeat("x", MaxGeneralStringLength+5), 0, strings.Repeat("x", MaxGeneralStringLength) + "..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q, want empty", got)
	}
	if got := SanitizeError(errors.New("bad\r\ninput")); got != "badinput" {
		t.Errorf("SanitizeError = %q, want %q", got, "badinput")
	}
}

func TestSanitizeTargets(t *testing.T) {
	t.Parallel()

	many := make([]string, MaxTargets+4)
	for i := range many {
		many[i] = "chat"
	}
	if got := SanitizeTargets(many); len(got) != MaxTargets {
		t.Errorf("expected %d targets, got %d", MaxTargets, len(got))
	}

	got := SanitizeTargets([]string{"chat\n", "email"})
	if got[0] != "chat" || got[1] != "email" {
		t.Errorf("unexpected targets %v", got)
	}
}

func TestNewLoggers(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		prod, err := NewProductionLogger(debug)
		if err != nil {
			t.Fatalf("NewProductionLogger(%v): %v", debug, err)
		}
		if got := prod.Core().Enabled(-1); got != debug {
			t.Errorf("production debug level enabled = %v, want %v", got, debug)
		}

		dev, err := NewDevelopmentLogger(debug)
		if err != nil {
			t.Fatalf("NewDevelopmentLogger(%v): %v", debug, err)
		}
		if dev == nil {
			t.Fatal("nil development logger")
		}
	}

	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
