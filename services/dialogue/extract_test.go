package dialogue

import (
	"testing"

	"frontdesk/models"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		expectName bool
		want       string
	}{
		{"trigger phrase", "my name is jane doe", false, "Jane Doe"},
		{"contraction trigger", "i'm bob o'brien", false, "Bob O'brien"},
		{"standalone when expected", "jane doe", true, "Jane Doe"},
		{"standalone not expected", "jane doe", false, ""},
		{"too many tokens", "well let me see it could be jane", true, ""},
		{"digits rejected", "agent 47", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractName(tt.in, tt.expectName)
			if tt.want == "" {
				if got.Status != models.ExtractNotFound {
					t.Fatalf("ExtractName(%q) = %+v, want not found", tt.in, got)
				}
				return
			}
			if got.Status != models.ExtractMatched || got.Value != tt.want {
				t.Fatalf("ExtractName(%q) = %+v, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"it hurts when i bend my knee", "it hurts when i bend my knee"},
		{"for a general checkup", "a general checkup"},
		{"because of back pain.", "back pain"},
	}
	for _, tt := range tests {
		got := ExtractReason(tt.in)
		if got.Status != models.ExtractMatched || got.Value != tt.want {
			t.Errorf("ExtractReason(%q) = %+v, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAffirmativeNegativeClassifiers(t *testing.T) {
	affirmatives := []string{"yes", "yeah that's right", "yep", "correct", "sure, go ahead"}
	for _, in := range affirmatives {
		if !isAffirmative(in) {
			t.Errorf("isAffirmative(%q) = false", in)
		}
	}

	negatives := []string{"no", "nope", "that's wrong", "no, change it"}
	for _, in := range negatives {
		if !isNegative(in) {
			t.Errorf("isNegative(%q) = false", in)
		}
	}

	// Substrings must not trigger: "know" is not "no", "yesterday" is
	// not "yes".
	if isNegative("I know the address") {
		t.Error(`isNegative("I know the address") = true`)
	}
	if isAffirmative("it was yesterday") {
		t.Error(`isAffirmative("it was yesterday") = true`)
	}
}

func TestIsFiller(t *testing.T) {
	for _, in := range []string{"okay", "ok", "hmm", "thank you", "alright"} {
		if !isFiller(in) {
			t.Errorf("isFiller(%q) = false", in)
		}
	}
	if isFiller("okay it's jane at gmail dot com") {
		t.Error("utterance with content classified as filler")
	}
}
