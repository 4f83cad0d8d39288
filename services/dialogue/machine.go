package dialogue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"frontdesk/models"
	"frontdesk/services/calendar"
	ai "frontdesk/services/intelligence"
	"frontdesk/utils"

	"go.uber.org/zap"
)

// confirmAllRetryKey tracks unrecognized replies at the final summary,
// which belongs to no single slot.
const confirmAllRetryKey = models.FieldName("confirm_all")

// Policy is the configurable behavior of the state machine.
type Policy struct {
	// RetryLimit is per field: reaching it ends the dialogue
	// gracefully instead of looping.
	RetryLimit          int
	AppointmentDuration time.Duration
	Location            *time.Location
	ResolverTimeout     time.Duration
}

// Machine advances one session context by one turn. The machine itself
// is stateless; everything mutable lives in the SessionContext, so a
// single Machine serves all sessions.
type Machine struct {
	Resolver  ai.Resolver        // optional escalation fallback
	Scheduler calendar.Scheduler // required for the booking hand-off
	Renderer  *Renderer
	Policy    Policy
}

// Step processes one caller turn: applies extraction to the slots,
// computes the next state and renders the reply. Never returns an
// error to the caller path — every failure resolves to a dialogue
// state, not a crash.
func (m *Machine) Step(ctx context.Context, sc *models.SessionContext, transcript string, init bool) *models.TurnResult {
	res := &models.TurnResult{
		SessionID:  sc.SessionID,
		Transcript: transcript,
		State:      sc.State,
		Ended:      sc.State.Terminal(),
		Reply:      sc.LastPrompt,
	}
	if sc.State.Terminal() {
		return res
	}
	sc.TurnCount++

	if init || sc.State == models.StateGreet {
		sc.State = models.AskState(m.firstMissing(sc))
		return m.finish(sc, res, Prompt{Intent: PromptGreeting})
	}

	text := normalizeText(transcript)
	if text == "" {
		return m.handleMiss(sc, res)
	}
	if isFiller(text) {
		// Fillers re-emit the pending prompt without burning a retry.
		return m.finish(sc, res, m.promptForState(sc))
	}

	switch sc.State {
	case models.StateAskName:
		return m.handleAsk(ctx, sc, res, models.FieldCallerName, text)
	case models.StateAskEmail:
		return m.handleAsk(ctx, sc, res, models.FieldEmail, text)
	case models.StateAskDateTime:
		return m.handleAsk(ctx, sc, res, models.FieldDateTime, text)
	case models.StateAskReason:
		return m.handleAsk(ctx, sc, res, models.FieldReason, text)
	case models.StateConfirmEmail:
		return m.handleConfirm(ctx, sc, res, models.FieldEmail, text)
	case models.StateConfirmDateTime:
		return m.handleConfirm(ctx, sc, res, models.FieldDateTime, text)
	case models.StateConfirmAll:
		return m.handleConfirmAll(ctx, sc, res, text)
	default:
		// A state outside the table is a bug; fail the dialogue
		// gracefully rather than loop.
		utils.GetLogger().Error("dialogue reached unhandled state",
			zap.String("sessionId", sc.SessionID), zap.String("state", string(sc.State)))
		sc.State = models.StateEndedFailure
		return m.finish(sc, res, Prompt{Intent: PromptFailureGoodbye})
	}
}

// handleAsk runs extraction (plus escalation) for the field the
// dialogue is waiting on and advances on success.
func (m *Machine) handleAsk(ctx context.Context, sc *models.SessionContext, res *models.TurnResult, field models.FieldName, text string) *models.TurnResult {
	ext := m.extractWithEscalation(ctx, sc, field, text)
	if ext.Status != models.ExtractMatched {
		return m.handleMiss(sc, res)
	}
	sc.Retries[field] = 0

	if field == models.FieldDateTime {
		sc.Slots.ApplyDateTime(text, ext.Date, ext.Clock)
		return m.afterDateTimeCandidate(sc, res)
	}

	sc.Slots.Apply(field, text, ext.Value)
	if models.NeedsSpokenConfirmation(field) {
		sc.State = models.StateConfirmEmail
		return m.finish(sc, res, Prompt{Intent: PromptConfirmEmail})
	}

	// Names and reasons are committed as heard.
	sc.Slots.Confirm(field)
	return m.advance(sc, res)
}

// afterDateTimeCandidate routes on how complete the datetime slot is:
// a full candidate is read back for confirmation, a partial one gets a
// targeted follow-up for the missing half.
func (m *Machine) afterDateTimeCandidate(sc *models.SessionContext, res *models.TurnResult) *models.TurnResult {
	slot := sc.Slots.Get(models.FieldDateTime)
	switch {
	case slot.HasValue():
		sc.State = models.StateConfirmDateTime
		return m.finish(sc, res, Prompt{Intent: PromptConfirmDateTime})
	case slot.Date != "":
		sc.State = models.StateAskDateTime
		return m.finish(sc, res, Prompt{Intent: PromptAskTime})
	default:
		sc.State = models.StateAskDateTime
		return m.finish(sc, res, Prompt{Intent: PromptAskDate})
	}
}

// handleConfirm processes the caller's reply to "I heard X, is that
// correct?". Denials and inline corrections are both accepted; the
// confirmed flag is only ever set on explicit assent.
func (m *Machine) handleConfirm(ctx context.Context, sc *models.SessionContext, res *models.TurnResult, field models.FieldName, text string) *models.TurnResult {
	affirmed, denied := isAffirmative(text), isNegative(text)

	if affirmed && !denied {
		sc.Slots.Confirm(field)
		sc.Retries[field] = 0
		return m.advance(sc, res)
	}

	if denied {
		sc.Slots.Reject(field)
		// The denial turn often carries the correction itself:
		// "no, it's bob at gmail dot com".
		ext := Extract(field, text, m.extractContext(sc, field))
		if ext.Status == models.ExtractMatched {
			return m.applyCorrection(sc, res, field, text, ext)
		}
		sc.State = models.AskState(field)
		return m.finish(sc, res, m.promptForState(sc))
	}

	// Neither a clear yes nor no: a restated identical value counts as
	// assent, a differing one as a correction, anything else as a miss.
	ext := Extract(field, text, m.extractContext(sc, field))
	if ext.Status == models.ExtractMatched {
		if m.sameAsCandidate(sc, field, ext) {
			sc.Slots.Confirm(field)
			sc.Retries[field] = 0
			return m.advance(sc, res)
		}
		sc.Slots.Reject(field)
		return m.applyCorrection(sc, res, field, text, ext)
	}
	return m.handleMiss(sc, res)
}

// applyCorrection installs a freshly extracted candidate after a
// rejection and asks for the read-back again.
func (m *Machine) applyCorrection(sc *models.SessionContext, res *models.TurnResult, field models.FieldName, text string, ext models.Extraction) *models.TurnResult {
	sc.Retries[field] = 0
	if field == models.FieldDateTime {
		sc.Slots.ApplyDateTime(text, ext.Date, ext.Clock)
		return m.afterDateTimeCandidate(sc, res)
	}
	sc.Slots.Apply(field, text, ext.Value)
	if models.NeedsSpokenConfirmation(field) {
		sc.State = models.StateConfirmEmail
		return m.finish(sc, res, Prompt{Intent: PromptConfirmEmail})
	}
	sc.Slots.Confirm(field)
	return m.advance(sc, res)
}

func (m *Machine) sameAsCandidate(sc *models.SessionContext, field models.FieldName, ext models.Extraction) bool {
	slot := sc.Slots.Get(field)
	if field == models.FieldDateTime {
		dateSame := ext.Date == "" || ext.Date == slot.Date
		clockSame := ext.Clock == "" || ext.Clock == slot.Clock
		return dateSame && clockSame && (ext.Date != "" || ext.Clock != "")
	}
	return ext.Value != "" && ext.Value == slot.Value
}

// handleConfirmAll processes the final summary read-back. Assent books;
// a denial or a restated value routes back to exactly the field being
// corrected, leaving every other confirmed slot untouched.
func (m *Machine) handleConfirmAll(ctx context.Context, sc *models.SessionContext, res *models.TurnResult, text string) *models.TurnResult {
	denied := isNegative(text)
	if isAffirmative(text) && !denied {
		return m.book(ctx, sc, res)
	}

	if field, ext, ok := m.detectCorrection(sc, text); ok {
		if ext.Status == models.ExtractMatched && m.restatesConfirmed(sc, field, ext) {
			// Identical restatement of an already-confirmed value:
			// no side effects, just read the summary back again.
			return m.finish(sc, res, Prompt{Intent: PromptConfirmAll})
		}
		sc.Slots.Reject(field)
		sc.Retries[confirmAllRetryKey] = 0
		if ext.Status == models.ExtractMatched {
			return m.applyCorrection(sc, res, field, text, ext)
		}
		sc.State = models.AskState(field)
		return m.finish(sc, res, m.promptForState(sc))
	}

	if denied {
		// The caller wants a change but didn't say which; ask, within
		// the same retry bound as any other misunderstanding.
		sc.Retries[confirmAllRetryKey]++
		if sc.Retries[confirmAllRetryKey] >= m.Policy.RetryLimit {
			sc.State = models.StateEndedFailure
			return m.finish(sc, res, Prompt{Intent: PromptFailureGoodbye})
		}
		return m.finish(sc, res, Prompt{Intent: PromptWhichField})
	}

	return m.handleMiss(sc, res)
}

// detectCorrection figures out which field a confirm_all objection
// targets: first by extracting a new value (emails and date-times are
// unmistakable; a name correction must say "name" out loud, because
// the generic "it is ..." trigger would swallow plain denials like
// "no, it is wrong"), then by the field being named without a value.
func (m *Machine) detectCorrection(sc *models.SessionContext, text string) (models.FieldName, models.Extraction, bool) {
	if ext := ExtractEmail(text); ext.Status == models.ExtractMatched {
		return models.FieldEmail, ext, true
	}
	if ext := ExtractDateTime(text, sc.CreatedAt.In(m.location())); ext.Status == models.ExtractMatched {
		return models.FieldDateTime, ext, true
	}

	t := strings.ToLower(text)
	if containsWord(t, "name") {
		if ext := ExtractName(text, false); ext.Status == models.ExtractMatched {
			return models.FieldCallerName, ext, true
		}
	}

	switch {
	case containsWord(t, "email"):
		return models.FieldEmail, models.NotFound(), true
	case containsWord(t, "date") || containsWord(t, "time") || containsWord(t, "day"):
		return models.FieldDateTime, models.NotFound(), true
	case containsWord(t, "name"):
		return models.FieldCallerName, models.NotFound(), true
	case containsWord(t, "reason"):
		return models.FieldReason, models.NotFound(), true
	}
	return "", models.NotFound(), false
}

func (m *Machine) restatesConfirmed(sc *models.SessionContext, field models.FieldName, ext models.Extraction) bool {
	return sc.Slots.Get(field).Confirmed && m.sameAsCandidate(sc, field, ext)
}

// book freezes the booking intent and hands off to the calendar
// collaborator. A conflict loops back to re-collect the date-time with
// every other slot still confirmed.
func (m *Machine) book(ctx context.Context, sc *models.SessionContext, res *models.TurnResult) *models.TurnResult {
	logger := utils.GetLogger()

	intent, err := BuildBookingIntent(sc.Slots, m.location(), m.Policy.AppointmentDuration)
	if err != nil {
		logger.Error("booking intent build failed", zap.String("sessionId", sc.SessionID), zap.Error(err))
		sc.State = models.StateEndedFailure
		res.CalendarError = err.Error()
		return m.finish(sc, res, Prompt{Intent: PromptBookingFailed})
	}
	sc.State = models.StateBooking
	sc.Intent = &intent

	conf, err := m.Scheduler.Schedule(ctx, intent)
	switch {
	case err == nil:
		sc.State = models.StateEndedSuccess
		sc.Confirmation = conf
		res.Booking = &intent
		return m.finish(sc, res, Prompt{Intent: PromptBooked})
	case errors.Is(err, calendar.ErrSlotTaken):
		logger.Info("booking conflict, re-collecting datetime", zap.String("sessionId", sc.SessionID))
		sc.Intent = nil
		sc.Slots.Reject(models.FieldDateTime)
		sc.State = models.StateAskDateTime
		res.CalendarError = err.Error()
		return m.finish(sc, res, Prompt{Intent: PromptConflict})
	default:
		logger.Error("calendar booking failed", zap.String("sessionId", sc.SessionID), zap.Error(err))
		sc.State = models.StateEndedFailure
		res.CalendarError = err.Error()
		return m.finish(sc, res, Prompt{Intent: PromptBookingFailed})
	}
}

// advance moves to the next missing field's ask state, or to the final
// summary when nothing is missing.
func (m *Machine) advance(sc *models.SessionContext, res *models.TurnResult) *models.TurnResult {
	missing := sc.Slots.Missing()
	if len(missing) == 0 {
		sc.State = models.StateConfirmAll
		return m.finish(sc, res, Prompt{Intent: PromptConfirmAll})
	}
	sc.State = models.AskState(missing[0])
	return m.finish(sc, res, m.promptForState(sc))
}

// handleMiss charges one retry against the field the current state is
// waiting on; exhausting the bound ends the dialogue gracefully.
func (m *Machine) handleMiss(sc *models.SessionContext, res *models.TurnResult) *models.TurnResult {
	key := m.retryKey(sc.State)
	sc.Retries[key]++
	if sc.Retries[key] >= m.Policy.RetryLimit {
		sc.State = models.StateEndedFailure
		return m.finish(sc, res, Prompt{Intent: PromptFailureGoodbye})
	}
	p := m.promptForState(sc)
	p.Retry = true
	return m.finish(sc, res, p)
}

func (m *Machine) retryKey(state models.DialogueState) models.FieldName {
	switch state {
	case models.StateAskName:
		return models.FieldCallerName
	case models.StateAskEmail, models.StateConfirmEmail:
		return models.FieldEmail
	case models.StateAskDateTime, models.StateConfirmDateTime:
		return models.FieldDateTime
	case models.StateAskReason:
		return models.FieldReason
	default:
		return confirmAllRetryKey
	}
}

// promptForState re-derives the prompt the current state is waiting
// on, including the partial-datetime follow-ups.
func (m *Machine) promptForState(sc *models.SessionContext) Prompt {
	switch sc.State {
	case models.StateAskName:
		return Prompt{Intent: PromptAskName}
	case models.StateAskEmail:
		return Prompt{Intent: PromptAskEmail}
	case models.StateAskDateTime:
		slot := sc.Slots.Get(models.FieldDateTime)
		if slot.Date != "" && slot.Clock == "" {
			return Prompt{Intent: PromptAskTime}
		}
		if slot.Clock != "" && slot.Date == "" {
			return Prompt{Intent: PromptAskDate}
		}
		return Prompt{Intent: PromptAskDateTime}
	case models.StateAskReason:
		return Prompt{Intent: PromptAskReason}
	case models.StateConfirmEmail:
		return Prompt{Intent: PromptConfirmEmail}
	case models.StateConfirmDateTime:
		return Prompt{Intent: PromptConfirmDateTime}
	default:
		return Prompt{Intent: PromptConfirmAll}
	}
}

// extractWithEscalation runs the deterministic extractor and, when it
// declines, the escalation resolver under a bounded wait. Resolver
// failures of any kind degrade to not-found, never to a guess.
func (m *Machine) extractWithEscalation(ctx context.Context, sc *models.SessionContext, field models.FieldName, text string) models.Extraction {
	ext := Extract(field, text, m.extractContext(sc, field))
	if ext.Status == models.ExtractMatched || m.Resolver == nil {
		return ext
	}

	rctx, cancel := context.WithTimeout(ctx, m.resolverTimeout())
	defer cancel()

	value, err := m.Resolver.ResolveField(rctx, ai.Query{
		Field:      field,
		Transcript: text,
		Today:      sc.CreatedAt.In(m.location()).Format("2006-01-02"),
		Timezone:   m.location().String(),
		LastPrompt: sc.LastPrompt,
		Captured:   m.capturedValues(sc),
		Candidates: ext.Candidates,
	})
	if err != nil {
		utils.GetLogger().Warn("escalation resolver unavailable",
			zap.String("sessionId", sc.SessionID), zap.String("field", string(field)), zap.Error(err))
		return models.NotFound()
	}
	if value == "" {
		return models.NotFound()
	}
	return m.revalidate(field, value)
}

// revalidate re-checks a resolver value against the same structural
// rules the extractors enforce, so a hallucinated value cannot slip
// into a slot.
func (m *Machine) revalidate(field models.FieldName, value string) models.Extraction {
	switch field {
	case models.FieldEmail:
		if ValidEmail(value) {
			return models.Matched(value)
		}
		return models.NotFound()
	case models.FieldDateTime:
		date, clock, ok := parseResolvedDateTime(value)
		if !ok {
			return models.NotFound()
		}
		return models.MatchedDateTime(date, clock)
	default:
		v := normalizeText(value)
		if v == "" {
			return models.NotFound()
		}
		return models.Matched(v)
	}
}

var (
	resolvedDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	resolvedClockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// parseResolvedDateTime accepts the resolver's canonical forms:
// "YYYY-MM-DD HH:MM", "YYYY-MM-DD" or "HH:MM".
func parseResolvedDateTime(value string) (date, clock string, ok bool) {
	fields := strings.Fields(value)
	for _, f := range fields {
		switch {
		case resolvedDateRegex.MatchString(f):
			date = f
		case resolvedClockRegex.MatchString(f):
			clock = f
		default:
			return "", "", false
		}
	}
	if date == "" && clock == "" {
		return "", "", false
	}
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return "", "", false
		}
	}
	return date, clock, true
}

func (m *Machine) extractContext(sc *models.SessionContext, expecting models.FieldName) ExtractContext {
	return ExtractContext{
		Now:       sc.CreatedAt.In(m.location()),
		Expecting: expecting,
	}
}

func (m *Machine) capturedValues(sc *models.SessionContext) map[models.FieldName]string {
	out := make(map[models.FieldName]string)
	for _, f := range models.FieldOrder {
		if slot := sc.Slots.Get(f); slot.HasValue() {
			out[f] = slot.Value
		}
	}
	return out
}

func (m *Machine) firstMissing(sc *models.SessionContext) models.FieldName {
	missing := sc.Slots.Missing()
	if len(missing) == 0 {
		return models.FieldReason
	}
	return missing[0]
}

func (m *Machine) finish(sc *models.SessionContext, res *models.TurnResult, p Prompt) *models.TurnResult {
	reply := m.Renderer.Render(p, sc.Slots)
	sc.LastPrompt = reply
	res.Reply = reply
	res.State = sc.State
	res.Ended = sc.State.Terminal()
	return res
}

func (m *Machine) location() *time.Location {
	if m.Policy.Location != nil {
		return m.Policy.Location
	}
	return time.UTC
}

func (m *Machine) resolverTimeout() time.Duration {
	if m.Policy.ResolverTimeout > 0 {
		return m.Policy.ResolverTimeout
	}
	return 8 * time.Second
}

// correctionKeywordRegexps are precompiled so concurrent turns can
// share them; a Machine serves all sessions at once.
var correctionKeywordRegexps = map[string]*regexp.Regexp{
	"email":  regexp.MustCompile(`\bemail\b`),
	"date":   regexp.MustCompile(`\bdate\b`),
	"time":   regexp.MustCompile(`\btime\b`),
	"day":    regexp.MustCompile(`\bday\b`),
	"name":   regexp.MustCompile(`\bname\b`),
	"reason": regexp.MustCompile(`\breason\b`),
}

func containsWord(text, word string) bool {
	return correctionKeywordRegexps[word].MatchString(text)
}

// BuildBookingIntent freezes the confirmed slots into the immutable
// booking intent. It refuses to produce one unless every slot is
// confirmed — the system's core correctness guarantee.
func BuildBookingIntent(slots *models.SlotStore, loc *time.Location, duration time.Duration) (models.BookingIntent, error) {
	if !slots.AllConfirmed() {
		return models.BookingIntent{}, fmt.Errorf("booking intent requires all slots confirmed")
	}
	dt := slots.Get(models.FieldDateTime)
	start, err := time.ParseInLocation("2006-01-02 15:04", dt.Date+" "+dt.Clock, loc)
	if err != nil {
		return models.BookingIntent{}, fmt.Errorf("invalid confirmed datetime %q %q: %w", dt.Date, dt.Clock, err)
	}
	return models.BookingIntent{
		CallerName: slots.Get(models.FieldCallerName).Value,
		Email:      slots.Get(models.FieldEmail).Value,
		Start:      start,
		End:        start.Add(duration),
		Reason:     slots.Get(models.FieldReason).Value,
	}, nil
}
