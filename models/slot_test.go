package models

import (
	"testing"
	"time"
)

func TestSlotStoreLifecycle(t *testing.T) {
	ss := NewSlotStore()

	if got := len(ss.Slots); got != len(FieldOrder) {
		t.Fatalf("new store has %d slots, want %d", got, len(FieldOrder))
	}
	if ss.AllConfirmed() {
		t.Fatal("fresh store reports all confirmed")
	}
	if got := ss.Missing(); len(got) != len(FieldOrder) || got[0] != FieldCallerName {
		t.Fatalf("Missing() = %v", got)
	}

	ss.Apply(FieldCallerName, "my name is jane", "Jane")
	if ss.Get(FieldCallerName).Confirmed {
		t.Fatal("Apply must not confirm")
	}
	ss.Confirm(FieldCallerName)
	if !ss.Get(FieldCallerName).Confirmed {
		t.Fatal("Confirm did not stick")
	}
	if got := ss.Missing(); got[0] != FieldEmail {
		t.Fatalf("Missing() after name = %v", got)
	}
}

func TestApplyIgnoredOnConfirmedSlot(t *testing.T) {
	ss := NewSlotStore()
	ss.Apply(FieldEmail, "raw", "jane@gmail.com")
	ss.Confirm(FieldEmail)

	ss.Apply(FieldEmail, "raw2", "other@gmail.com")
	if got := ss.Get(FieldEmail).Value; got != "jane@gmail.com" {
		t.Fatalf("confirmed slot overwritten: %q", got)
	}

	ss.Reject(FieldEmail)
	ss.Apply(FieldEmail, "raw2", "other@gmail.com")
	if got := ss.Get(FieldEmail).Value; got != "other@gmail.com" {
		t.Fatalf("rejected slot not writable: %q", got)
	}
}

func TestConfirmRequiresValue(t *testing.T) {
	ss := NewSlotStore()
	ss.Confirm(FieldEmail)
	if ss.Get(FieldEmail).Confirmed {
		t.Fatal("empty slot confirmed")
	}
}

func TestApplyDateTimeMergesParts(t *testing.T) {
	ss := NewSlotStore()

	ss.ApplyDateTime("next monday", "2026-09-14", "")
	slot := ss.Get(FieldDateTime)
	if slot.HasValue() {
		t.Fatal("date-only slot reports complete")
	}

	ss.ApplyDateTime("2pm", "", "14:00")
	if !slot.HasValue() || slot.Value != "2026-09-14 14:00" {
		t.Fatalf("merged slot = %+v", slot)
	}

	ss.Confirm(FieldDateTime)
	ss.ApplyDateTime("3pm", "", "15:00")
	if slot.Clock != "14:00" {
		t.Fatalf("confirmed datetime overwritten: %+v", slot)
	}

	ss.Reject(FieldDateTime)
	if slot.Date != "" || slot.Clock != "" || slot.Value != "" || slot.Confirmed {
		t.Fatalf("reject left residue: %+v", slot)
	}
}

func TestNewSessionContextStartsAtGreet(t *testing.T) {
	now := time.Date(2026, time.September, 9, 10, 0, 0, 0, time.UTC)
	sc := NewSessionContext("s1", now)
	if sc.State != StateGreet || sc.Slots == nil || sc.Retries == nil {
		t.Fatalf("session context = %+v", sc)
	}
	if !sc.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v", sc.CreatedAt)
	}
}
