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
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "/api/v1/appointments", maxLength: 100, want: "/api/v1/appointments"},
		{name: "control characters removed", input: "abc\x00\x1bdef", maxLength: 100, want: "abcdef"},
		{name: "newline kept", input: "a\nb", maxLength: 100, want: "a\nb"},
		{name: "truncated", input: "abcdefghij", maxLength: 4, want: "abcd..."},
		{name: "invalid utf8 repaired", input: "ok\xff", maxLength: 100, want: "ok"},
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

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	long := "/" + strings.Repeat("a", MaxPathLength+10)
	got := SanitizePath(long)
	if len(got) != MaxPathLength+3 {
		t.Errorf("Expected truncated path of length %d, got %d", MaxPathLength+3, len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}
	if got := SanitizeError(errors.New("boom\x07")); got != "boom" {
		t.Errorf("Expected 'boom', got %q", got)
	}
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	if got := SanitizeEmail("  ana@example.com \r"); got != "ana@example.com" {
		t.Errorf("Expected trimmed address, got %q", got)
	}
}
