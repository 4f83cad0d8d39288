package dialogue

import (
	"strings"
	"testing"
	"time"

	"frontdesk/models"
)

func testRenderer() *Renderer {
	return &Renderer{
		KnownDomains: map[string]bool{"gmail": true, "outlook": true},
		Location:     time.UTC,
		Now:          func() time.Time { return refNow },
	}
}

func TestSpeakableEmail(t *testing.T) {
	known := map[string]bool{"gmail": true}

	got := SpeakableEmail("jane.d@gmail.com", known)
	want := "j,  a,  n,  e,  dot,  d,  at,  gmail,  dot,  com"
	if got != want {
		t.Fatalf("SpeakableEmail = %q, want %q", got, want)
	}

	// Unknown provider is spelled out.
	got = SpeakableEmail("jo@acme.org", known)
	want = "j,  o,  at,  a,  c,  m,  e,  dot,  org"
	if got != want {
		t.Fatalf("SpeakableEmail unknown domain = %q, want %q", got, want)
	}
}

func TestFriendlyDateTime(t *testing.T) {
	r := testRenderer()
	got := r.friendlyDateTime("2026-09-15", "14:30")
	if got != "Tuesday 15 September at 2:30 pm" {
		t.Fatalf("friendlyDateTime = %q", got)
	}
	if got := r.friendlyDateTime("2026-09-15", ""); got != "Tuesday 15 September" {
		t.Fatalf("date-only = %q", got)
	}
}

func TestSpeakableClock(t *testing.T) {
	tests := map[string]string{
		"14:00": "2 pm",
		"14:30": "2:30 pm",
		"09:05": "9:05 am",
		"12:00": "12 pm",
		"00:00": "12 am",
	}
	for in, want := range tests {
		if got := speakableClock(in); got != want {
			t.Errorf("speakableClock(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderRetryLeadIn(t *testing.T) {
	r := testRenderer()
	slots := models.NewSlotStore()

	plain := r.Render(Prompt{Intent: PromptAskEmail}, slots)
	retry := r.Render(Prompt{Intent: PromptAskEmail, Retry: true}, slots)

	if strings.HasPrefix(plain, "Sorry") {
		t.Fatalf("plain prompt has retry lead-in: %q", plain)
	}
	if !strings.HasPrefix(retry, "Sorry, I didn't catch that. ") {
		t.Fatalf("retry prompt missing lead-in: %q", retry)
	}
	if !strings.HasSuffix(retry, plain) {
		t.Fatalf("retry prompt does not wrap the plain one: %q vs %q", retry, plain)
	}
}

func TestRenderConfirmAllSummarizesEverySlot(t *testing.T) {
	r := testRenderer()
	slots := models.NewSlotStore()
	slots.Apply(models.FieldCallerName, "jane doe", "Jane Doe")
	slots.Apply(models.FieldEmail, "jane at gmail", "jane@gmail.com")
	slots.ApplyDateTime("tomorrow 2pm", "2026-09-10", "14:00")
	slots.Apply(models.FieldReason, "checkup", "a general checkup")

	got := r.Render(Prompt{Intent: PromptConfirmAll}, slots)
	for _, part := range []string{"Jane Doe", "gmail", "Thursday 10 September", "2 pm", "a general checkup", "Shall I book this now?"} {
		if !strings.Contains(got, part) {
			t.Errorf("summary %q missing %q", got, part)
		}
	}
}

func TestDateExamplesNeverSuggestThePast(t *testing.T) {
	r := testRenderer()
	got := r.dateExamples()
	// Two weeks from the reference Wednesday.
	if !strings.Contains(got, "23 September") {
		t.Fatalf("dateExamples = %q", got)
	}
	if !strings.Contains(got, "next Monday") {
		t.Fatalf("dateExamples = %q", got)
	}
}
