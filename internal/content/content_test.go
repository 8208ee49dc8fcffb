package content

import (
	"errors"
	"testing"

	"pulse/internal/models"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"script stripped", `hi <script>alert("x")</script>there`, "hi there"},
		{"links kept", `<a href="https://example.com" rel="nofollow">x</a>`, `<a href="https://example.com" rel="nofollow">x</a>`},
		{"event handlers stripped", `<b onclick="evil()">bold</b>`, "<b>bold</b>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.input); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestPrepareMessage(t *testing.T) {
	if _, err := PrepareMessage("   "); !errors.Is(err, models.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent for whitespace, got %v", err)
	}
	if _, err := PrepareMessage(`<script>x</script>`); !errors.Is(err, models.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent for markup-only input, got %v", err)
	}

	got, err := PrepareMessage("  hi there  ")
	if err != nil {
		t.Fatalf("PrepareMessage failed: %v", err)
	}
	if got != "hi there" {
		t.Errorf("expected trimmed content, got %q", got)
	}
}
