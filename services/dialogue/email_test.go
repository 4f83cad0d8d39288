package dialogue

import (
	"testing"

	"frontdesk/models"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"written form", "my email is john.doe@gmail.com", "john.doe@gmail.com"},
		{"spoken form", "jane at gmail dot com", "jane@gmail.com"},
		{"spoken with lead-in", "it's bob at outlook dot com", "bob@outlook.com"},
		{"spoken punctuation", "sam period lee at yahoo dot co dot uk", "sam.lee@yahoo.co.uk"},
		{"correction keeps last", "bob at yahoo dot com no wait bob99 at yahoo dot com", "bob99@yahoo.com"},
		{"uppercase normalized", "It Is JANE at GMAIL dot COM", "jane@gmail.com"},
		{"glued at recovered", "jurgenkloppat liverpoolfc.com", "jurgenklopp@liverpoolfc.com"},
		{"no email", "I will think about it", ""},
		{"bare domain only", "gmail dot com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEmail(tt.in)
			if tt.want == "" {
				if got.Status != models.ExtractNotFound {
					t.Fatalf("ExtractEmail(%q) = %+v, want not found", tt.in, got)
				}
				return
			}
			if got.Status != models.ExtractMatched || got.Value != tt.want {
				t.Fatalf("ExtractEmail(%q) = %+v, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "john.doe@gmail.com", "x-y_z@sub.example.org"}
	for _, addr := range valid {
		if !ValidEmail(addr) {
			t.Errorf("ValidEmail(%q) = false, want true", addr)
		}
	}
	invalid := []string{"", "noat.com", "two@@b.com", "@b.com", "a@", "a@nodot", "a@.com", "a@com."}
	for _, addr := range invalid {
		if ValidEmail(addr) {
			t.Errorf("ValidEmail(%q) = true, want false", addr)
		}
	}
}

func TestNormalizeSpokenEmail(t *testing.T) {
	got := normalizeSpokenEmail("my email is jane dot doe at gmail dot com")
	if got != "jane.doe@gmail.com" {
		t.Fatalf("normalizeSpokenEmail = %q", got)
	}
}
