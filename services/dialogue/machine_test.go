package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"frontdesk/models"
	"frontdesk/services/calendar"
	ai "frontdesk/services/intelligence"
)

type stubScheduler struct {
	err    error
	calls  int
	intent models.BookingIntent
}

func (s *stubScheduler) Schedule(_ context.Context, intent models.BookingIntent) (*models.BookingConfirmation, error) {
	s.calls++
	s.intent = intent
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingConfirmation{EventID: "evt-1", EventLink: "https://cal/evt-1"}, nil
}

func newTestMachine(sched calendar.Scheduler) *Machine {
	return &Machine{
		Scheduler: sched,
		Renderer: &Renderer{
			KnownDomains: map[string]bool{"gmail": true, "outlook": true},
			Location:     time.UTC,
			Now:          func() time.Time { return refNow },
		},
		Policy: Policy{
			RetryLimit:          2,
			AppointmentDuration: 30 * time.Minute,
			Location:            time.UTC,
		},
	}
}

func newTestSession() *models.SessionContext {
	return models.NewSessionContext("sess-1", refNow)
}

func TestHappyPathBooksAppointment(t *testing.T) {
	sched := &stubScheduler{}
	m := newTestMachine(sched)
	sc := newTestSession()
	ctx := context.Background()

	res := m.Step(ctx, sc, "", true)
	if sc.State != models.StateAskName || !strings.Contains(res.Reply, "full name") {
		t.Fatalf("after init: state=%s reply=%q", sc.State, res.Reply)
	}

	m.Step(ctx, sc, "my name is jane doe", false)
	if sc.State != models.StateAskEmail {
		t.Fatalf("after name: state=%s", sc.State)
	}
	if got := sc.Slots.Get(models.FieldCallerName); !got.Confirmed || got.Value != "Jane Doe" {
		t.Fatalf("name slot = %+v", got)
	}

	res = m.Step(ctx, sc, "jane at gmail dot com", false)
	if sc.State != models.StateConfirmEmail || !strings.Contains(res.Reply, "Is that correct?") {
		t.Fatalf("after email: state=%s reply=%q", sc.State, res.Reply)
	}
	if sc.Slots.Get(models.FieldEmail).Confirmed {
		t.Fatal("email confirmed before caller assent")
	}

	m.Step(ctx, sc, "yes", false)
	if sc.State != models.StateAskDateTime || !sc.Slots.Get(models.FieldEmail).Confirmed {
		t.Fatalf("after email assent: state=%s", sc.State)
	}

	res = m.Step(ctx, sc, "tomorrow at 2pm", false)
	if sc.State != models.StateConfirmDateTime {
		t.Fatalf("after datetime: state=%s reply=%q", sc.State, res.Reply)
	}

	m.Step(ctx, sc, "yes that's right", false)
	if sc.State != models.StateAskReason {
		t.Fatalf("after datetime assent: state=%s", sc.State)
	}

	res = m.Step(ctx, sc, "a general checkup", false)
	if sc.State != models.StateConfirmAll || !strings.Contains(res.Reply, "Shall I book this now?") {
		t.Fatalf("after reason: state=%s reply=%q", sc.State, res.Reply)
	}

	res = m.Step(ctx, sc, "yes please", false)
	if sc.State != models.StateEndedSuccess || !res.Ended {
		t.Fatalf("after final assent: state=%s ended=%v", sc.State, res.Ended)
	}
	if res.Booking == nil {
		t.Fatal("terminal success turn carries no booking intent")
	}
	wantStart := time.Date(2026, time.September, 10, 14, 0, 0, 0, time.UTC)
	if !res.Booking.Start.Equal(wantStart) {
		t.Fatalf("booking start = %v, want %v", res.Booking.Start, wantStart)
	}
	if !res.Booking.End.Equal(wantStart.Add(30 * time.Minute)) {
		t.Fatalf("booking end = %v", res.Booking.End)
	}
	if res.Booking.Email != "jane@gmail.com" || res.Booking.CallerName != "Jane Doe" {
		t.Fatalf("booking identity = %+v", res.Booking)
	}
	if sched.calls != 1 {
		t.Fatalf("scheduler called %d times", sched.calls)
	}
}

func TestRetriesExhaustedEndsGracefully(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)

	res := m.Step(ctx, sc, "blah blah blah", false)
	if sc.State != models.StateAskEmail || !strings.HasPrefix(res.Reply, "Sorry, I didn't catch that.") {
		t.Fatalf("first miss: state=%s reply=%q", sc.State, res.Reply)
	}

	res = m.Step(ctx, sc, "blah blah blah", false)
	if sc.State != models.StateEndedFailure || !res.Ended {
		t.Fatalf("second miss: state=%s ended=%v", sc.State, res.Ended)
	}
	if res.Booking != nil {
		t.Fatal("failed dialogue must not carry a booking intent")
	}
}

func TestFillerDoesNotBurnRetry(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)

	for i := 0; i < 5; i++ {
		res := m.Step(ctx, sc, "okay", false)
		if sc.State != models.StateAskEmail {
			t.Fatalf("filler turn %d moved state to %s", i, sc.State)
		}
		if strings.HasPrefix(res.Reply, "Sorry") {
			t.Fatalf("filler turn %d treated as miss: %q", i, res.Reply)
		}
	}
	if sc.Retries[models.FieldEmail] != 0 {
		t.Fatalf("fillers charged %d retries", sc.Retries[models.FieldEmail])
	}
}

func TestConfirmDenialWithInlineCorrection(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)
	m.Step(ctx, sc, "jane at gmail dot com", false)

	res := m.Step(ctx, sc, "no, it's jane99 at outlook dot com", false)
	if sc.State != models.StateConfirmEmail {
		t.Fatalf("after correction: state=%s reply=%q", sc.State, res.Reply)
	}
	if got := sc.Slots.Get(models.FieldEmail).Value; got != "jane99@outlook.com" {
		t.Fatalf("email candidate = %q", got)
	}

	m.Step(ctx, sc, "yes", false)
	if got := sc.Slots.Get(models.FieldEmail); !got.Confirmed || got.Value != "jane99@outlook.com" {
		t.Fatalf("email slot = %+v", got)
	}
}

func TestConfirmRestatedIdenticalValueCountsAsAssent(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)
	m.Step(ctx, sc, "jane at gmail dot com", false)

	m.Step(ctx, sc, "jane at gmail dot com", false)
	if got := sc.Slots.Get(models.FieldEmail); !got.Confirmed {
		t.Fatalf("restated identical email not confirmed: %+v", got)
	}
	if sc.State != models.StateAskDateTime {
		t.Fatalf("state = %s", sc.State)
	}
}

func confirmedSession(t *testing.T, m *Machine) *models.SessionContext {
	t.Helper()
	sc := newTestSession()
	ctx := context.Background()
	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)
	m.Step(ctx, sc, "jane at gmail dot com", false)
	m.Step(ctx, sc, "yes", false)
	m.Step(ctx, sc, "tomorrow at 2pm", false)
	m.Step(ctx, sc, "yes", false)
	m.Step(ctx, sc, "a general checkup", false)
	if sc.State != models.StateConfirmAll {
		t.Fatalf("setup ended in state %s", sc.State)
	}
	return sc
}

func TestConfirmAllTimeCorrectionKeepsOtherSlots(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := confirmedSession(t, m)
	ctx := context.Background()

	res := m.Step(ctx, sc, "actually can we do 4pm instead", false)
	if sc.State != models.StateAskDateTime {
		t.Fatalf("after correction: state=%s reply=%q", sc.State, res.Reply)
	}
	dt := sc.Slots.Get(models.FieldDateTime)
	if dt.Confirmed || dt.Clock != "16:00" {
		t.Fatalf("datetime slot = %+v", dt)
	}
	if !sc.Slots.Get(models.FieldEmail).Confirmed || !sc.Slots.Get(models.FieldCallerName).Confirmed {
		t.Fatal("correction of datetime disturbed other confirmed slots")
	}

	m.Step(ctx, sc, "tomorrow", false)
	if sc.State != models.StateConfirmDateTime {
		t.Fatalf("after date supplied: state=%s", sc.State)
	}
	m.Step(ctx, sc, "yes", false)
	if sc.State != models.StateConfirmAll {
		t.Fatalf("after re-confirm: state=%s", sc.State)
	}
}

func TestConfirmAllIdenticalRestatementIsNoOp(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := confirmedSession(t, m)

	res := m.Step(context.Background(), sc, "my email is jane at gmail dot com", false)
	if sc.State != models.StateConfirmAll {
		t.Fatalf("state = %s", sc.State)
	}
	if !sc.Slots.Get(models.FieldEmail).Confirmed {
		t.Fatal("identical restatement unconfirmed the slot")
	}
	if !strings.Contains(res.Reply, "Shall I book this now?") {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestConfirmAllVagueDenialAsksWhichField(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := confirmedSession(t, m)
	ctx := context.Background()

	res := m.Step(ctx, sc, "no", false)
	if sc.State != models.StateConfirmAll || !strings.Contains(res.Reply, "Which detail") {
		t.Fatalf("vague denial: state=%s reply=%q", sc.State, res.Reply)
	}

	res = m.Step(ctx, sc, "the email", false)
	if sc.State != models.StateAskEmail {
		t.Fatalf("field named: state=%s reply=%q", sc.State, res.Reply)
	}
	if sc.Slots.Get(models.FieldEmail).Confirmed {
		t.Fatal("named field still confirmed after rejection")
	}
}

func TestConfirmAllBareDenialLeavesNameAlone(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := confirmedSession(t, m)

	// "it is" must not read as a name trigger here; a denial with no
	// field named gets the which-detail prompt, nothing else changes.
	res := m.Step(context.Background(), sc, "no, it is wrong", false)
	if sc.State != models.StateConfirmAll || !strings.Contains(res.Reply, "Which detail") {
		t.Fatalf("bare denial: state=%s reply=%q", sc.State, res.Reply)
	}
	name := sc.Slots.Get(models.FieldCallerName)
	if name.Value != "Jane Doe" || !name.Confirmed {
		t.Fatalf("name slot disturbed: %+v", name)
	}
}

func TestConfirmAllExplicitNameCorrection(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := confirmedSession(t, m)

	res := m.Step(context.Background(), sc, "no, my name is mark smith", false)
	if sc.State != models.StateConfirmAll {
		t.Fatalf("after name correction: state=%s reply=%q", sc.State, res.Reply)
	}
	name := sc.Slots.Get(models.FieldCallerName)
	if name.Value != "Mark Smith" || !name.Confirmed {
		t.Fatalf("name slot = %+v", name)
	}
	if !sc.Slots.Get(models.FieldEmail).Confirmed || !sc.Slots.Get(models.FieldDateTime).Confirmed {
		t.Fatal("other slots disturbed by name correction")
	}
}

func TestConcurrentSessionsShareOneMachine(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	utterances := []string{"the email", "wrong time", "the reason", "no, my name is mark smith"}

	states := make(chan models.DialogueState, 8*len(utterances))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			for _, u := range utterances {
				sc := newTestSession()
				m.Step(ctx, sc, "", true)
				m.Step(ctx, sc, "my name is jane doe", false)
				m.Step(ctx, sc, "jane at gmail dot com", false)
				m.Step(ctx, sc, "yes", false)
				m.Step(ctx, sc, "tomorrow at 2pm", false)
				m.Step(ctx, sc, "yes", false)
				m.Step(ctx, sc, "a general checkup", false)
				m.Step(ctx, sc, u, false)
				states <- sc.State
			}
		}()
	}
	wg.Wait()
	close(states)

	for state := range states {
		if state.Terminal() {
			t.Fatalf("correction turn ended a session: state=%s", state)
		}
	}
}

func TestSlotConflictReCollectsDateTime(t *testing.T) {
	sched := &stubScheduler{err: calendar.ErrSlotTaken}
	m := newTestMachine(sched)
	sc := confirmedSession(t, m)

	res := m.Step(context.Background(), sc, "yes", false)
	if sc.State != models.StateAskDateTime {
		t.Fatalf("after conflict: state=%s", sc.State)
	}
	if res.Ended {
		t.Fatal("conflict must not end the dialogue")
	}
	if res.CalendarError == "" {
		t.Fatal("conflict should surface in the calendar error channel")
	}
	if !strings.Contains(res.Reply, "already taken") {
		t.Fatalf("reply = %q", res.Reply)
	}
	if sc.Slots.Get(models.FieldDateTime).Confirmed {
		t.Fatal("conflicting datetime still confirmed")
	}
	if !sc.Slots.Get(models.FieldEmail).Confirmed {
		t.Fatal("conflict disturbed the email slot")
	}
}

func TestCalendarFailureEndsDialogue(t *testing.T) {
	sched := &stubScheduler{err: errors.New("calendar unavailable")}
	m := newTestMachine(sched)
	sc := confirmedSession(t, m)

	res := m.Step(context.Background(), sc, "yes", false)
	if sc.State != models.StateEndedFailure || !res.Ended {
		t.Fatalf("after failure: state=%s ended=%v", sc.State, res.Ended)
	}
	if res.CalendarError == "" {
		t.Fatal("failure detail missing from the calendar error channel")
	}
	if strings.Contains(res.Reply, "calendar unavailable") {
		t.Fatal("technical failure detail leaked into the spoken reply")
	}
}

func TestTerminalSessionIgnoresFurtherTurns(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	sc := newTestSession()
	sc.State = models.StateEndedSuccess

	res := m.Step(context.Background(), sc, "hello again", false)
	if !res.Ended || sc.State != models.StateEndedSuccess {
		t.Fatalf("terminal session advanced: %+v", res)
	}
}

type stubResolver struct {
	value string
	err   error
	calls int
	last  ai.Query
}

func (r *stubResolver) ResolveField(_ context.Context, q ai.Query) (string, error) {
	r.calls++
	r.last = q
	return r.value, r.err
}

func TestEscalationResolvesWhatRulesCannot(t *testing.T) {
	resolver := &stubResolver{value: "jane@gmail.com"}
	m := newTestMachine(&stubScheduler{})
	m.Resolver = resolver
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)

	res := m.Step(ctx, sc, "j a n e at g mail", false)
	if resolver.calls != 1 {
		t.Fatalf("resolver called %d times", resolver.calls)
	}
	if resolver.last.Field != models.FieldEmail {
		t.Fatalf("resolver queried for %s", resolver.last.Field)
	}
	if sc.State != models.StateConfirmEmail {
		t.Fatalf("state=%s reply=%q", sc.State, res.Reply)
	}
	if got := sc.Slots.Get(models.FieldEmail).Value; got != "jane@gmail.com" {
		t.Fatalf("email = %q", got)
	}
}

func TestEscalationOutputIsRevalidated(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	m.Resolver = &stubResolver{value: "not an email at all"}
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)

	res := m.Step(ctx, sc, "mumble mumble", false)
	if !strings.HasPrefix(res.Reply, "Sorry") {
		t.Fatalf("invalid resolver value was accepted: %q", res.Reply)
	}
	if sc.Slots.Get(models.FieldEmail).Value != "" {
		t.Fatal("hallucinated value reached the slot")
	}
}

func TestEscalationFailureDegradesToMiss(t *testing.T) {
	m := newTestMachine(&stubScheduler{})
	m.Resolver = &stubResolver{err: errors.New("quota exceeded")}
	sc := newTestSession()
	ctx := context.Background()

	m.Step(ctx, sc, "", true)
	m.Step(ctx, sc, "my name is jane doe", false)

	res := m.Step(ctx, sc, "mumble mumble", false)
	if sc.State != models.StateAskEmail || !strings.HasPrefix(res.Reply, "Sorry") {
		t.Fatalf("resolver failure was not a graceful miss: state=%s reply=%q", sc.State, res.Reply)
	}
}

func TestParseResolvedDateTime(t *testing.T) {
	tests := []struct {
		in    string
		date  string
		clock string
		ok    bool
	}{
		{"2026-09-10 14:00", "2026-09-10", "14:00", true},
		{"2026-09-10", "2026-09-10", "", true},
		{"14:00", "", "14:00", true},
		{"tomorrow", "", "", false},
		{"2026-13-40", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		date, clock, ok := parseResolvedDateTime(tt.in)
		if ok != tt.ok || date != tt.date || clock != tt.clock {
			t.Errorf("parseResolvedDateTime(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, date, clock, ok, tt.date, tt.clock, tt.ok)
		}
	}
}

func TestBuildBookingIntentRequiresAllConfirmed(t *testing.T) {
	slots := models.NewSlotStore()
	slots.Apply(models.FieldCallerName, "jane", "Jane")
	slots.Confirm(models.FieldCallerName)

	if _, err := BuildBookingIntent(slots, time.UTC, 30*time.Minute); err == nil {
		t.Fatal("BuildBookingIntent succeeded with unconfirmed slots")
	}
}
