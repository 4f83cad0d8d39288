package dialogue

import (
	"testing"
	"time"

	"frontdesk/models"
)

// Wednesday.
var refNow = time.Date(2026, time.September, 9, 10, 0, 0, 0, time.UTC)

func TestExtractDateTimeDates(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantDate string
	}{
		{"tomorrow", "tomorrow", "2026-09-10"},
		{"today", "today works", "2026-09-09"},
		{"this friday", "this friday", "2026-09-11"},
		{"plain weekday", "friday", "2026-09-11"},
		{"next monday lands in following week", "next monday", "2026-09-14"},
		{"next wednesday skips today", "next wednesday", "2026-09-16"},
		{"coming tuesday", "coming tuesday", "2026-09-15"},
		{"day month", "the 15th of september", "2026-09-15"},
		{"month day", "sep 15", "2026-09-15"},
		{"iso", "2026-10-01", "2026-10-01"},
		{"slash day first", "15/9", "2026-09-15"},
		{"past date rolls forward", "5 january", "2027-01-05"},
		{"explicit year kept", "5 january 2026", "2026-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDateTime(tt.in, refNow)
			if got.Status != models.ExtractMatched || got.Date != tt.wantDate {
				t.Fatalf("ExtractDateTime(%q) = %+v, want date %q", tt.in, got, tt.wantDate)
			}
		})
	}
}

func TestExtractDateTimeClocks(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantClock string
	}{
		{"colon with meridiem", "2:30 pm", "14:30"},
		{"24 hour", "14:30", "14:30"},
		{"hour meridiem", "10 am", "10:00"},
		{"noon", "around noon", "12:00"},
		{"midnight", "midnight", "00:00"},
		{"bare low hour is afternoon", "at 3", "15:00"},
		{"bare morning hour stays morning", "at 9", "09:00"},
		{"bare number only", "4", "16:00"},
		{"24h bare hour", "at 17", "17:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDateTime(tt.in, refNow)
			if got.Status != models.ExtractMatched || got.Clock != tt.wantClock {
				t.Fatalf("ExtractDateTime(%q) = %+v, want clock %q", tt.in, got, tt.wantClock)
			}
			if got.Date != "" {
				t.Fatalf("ExtractDateTime(%q) picked up a date %q", tt.in, got.Date)
			}
		})
	}
}

func TestExtractDateTimeCombined(t *testing.T) {
	got := ExtractDateTime("tomorrow at 2pm", refNow)
	if got.Status != models.ExtractMatched || got.Date != "2026-09-10" || got.Clock != "14:00" {
		t.Fatalf("combined extraction = %+v", got)
	}
}

func TestExtractDateTimeAmbiguous(t *testing.T) {
	got := ExtractDateTime("tomorrow or the 15th of september", refNow)
	if got.Status != models.ExtractAmbiguous {
		t.Fatalf("want ambiguous, got %+v", got)
	}
	if len(got.Candidates) != 2 || got.Candidates[0] != "2026-09-10" || got.Candidates[1] != "2026-09-15" {
		t.Fatalf("candidates = %v", got.Candidates)
	}
}

func TestExtractDateTimeNotFound(t *testing.T) {
	for _, in := range []string{"let me think", "", "whenever suits you"} {
		if got := ExtractDateTime(in, refNow); got.Status != models.ExtractNotFound {
			t.Errorf("ExtractDateTime(%q) = %+v, want not found", in, got)
		}
	}
}

func TestExtractDateTimeInvalidCivilDate(t *testing.T) {
	if got := ExtractDateTime("31 february", refNow); got.Status != models.ExtractNotFound {
		t.Fatalf("31 february should not parse, got %+v", got)
	}
}
