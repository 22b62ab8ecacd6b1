package blog

import (
	"errors"
	"testing"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		ok   bool
	}{
		{"valid", RegisterInput{"alice", "alice@example.com", "password1"}, true},
		{"trimmed", RegisterInput{"  alice ", " alice@example.com ", "password1"}, true},
		{"short username", RegisterInput{"al", "alice@example.com", "password1"}, false},
		{"bad email", RegisterInput{"alice", "not-an-email", "password1"}, false},
		{"display name email", RegisterInput{"alice", "Alice <alice@example.com>", "password1"}, false},
		{"short password", RegisterInput{"alice", "alice@example.com", "short"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateRegistration(tt.in)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestTaxonomyName(t *testing.T) {
	name, sl, err := taxonomyName("Category", "  Tech News ")
	if err != nil || name != "Tech News" || sl != "tech-news" {
		t.Errorf("got %q %q %v", name, sl, err)
	}
	for _, bad := range []string{"", "   ", "!!!"} {
		if _, _, err := taxonomyName("Tag", bad); !errors.Is(err, ErrValidation) {
			t.Errorf("taxonomyName(%q): got %v, want ErrValidation", bad, err)
		}
	}
}
