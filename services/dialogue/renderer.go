package dialogue

import (
	"fmt"
	"strings"
	"time"

	"frontdesk/models"
)

// PromptIntent is the abstract next-prompt chosen by the state machine;
// the renderer turns it into literal spoken text.
type PromptIntent string

const (
	PromptGreeting        PromptIntent = "greeting"
	PromptAskName         PromptIntent = "ask_name"
	PromptAskEmail        PromptIntent = "ask_email"
	PromptAskDateTime     PromptIntent = "ask_datetime"
	PromptAskDate         PromptIntent = "ask_date"
	PromptAskTime         PromptIntent = "ask_time"
	PromptAskReason       PromptIntent = "ask_reason"
	PromptConfirmEmail    PromptIntent = "confirm_email"
	PromptConfirmDateTime PromptIntent = "confirm_datetime"
	PromptConfirmAll      PromptIntent = "confirm_all"
	PromptWhichField      PromptIntent = "which_field"
	PromptBooked          PromptIntent = "booked"
	PromptBookingFailed   PromptIntent = "booking_failed"
	PromptConflict        PromptIntent = "conflict"
	PromptFailureGoodbye  PromptIntent = "failure_goodbye"
)

// Prompt pairs an intent with whether this is a retry after a missed
// extraction, which gets an apologetic lead-in.
type Prompt struct {
	Intent PromptIntent
	Retry  bool
}

// Renderer formats prompts. Pure: same prompt and slots, same text.
type Renderer struct {
	KnownDomains map[string]bool
	Location     *time.Location
	Now          func() time.Time
}

func (r *Renderer) loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

func (r *Renderer) Render(p Prompt, slots *models.SlotStore) string {
	var sb strings.Builder
	if p.Retry {
		sb.WriteString("Sorry, I didn't catch that. ")
	}

	switch p.Intent {
	case PromptGreeting:
		sb.WriteString("Hello! I can help you book an appointment. Could I take your full name, please?")
	case PromptAskName:
		sb.WriteString("Could I take your full name, please?")
	case PromptAskEmail:
		sb.WriteString("Thanks. What is your email address?")
	case PromptAskDateTime:
		sb.WriteString("Great. What date and time would you like? You can say ")
		sb.WriteString(r.dateExamples())
		sb.WriteString(".")
	case PromptAskDate:
		slot := slots.Get(models.FieldDateTime)
		sb.WriteString(fmt.Sprintf("Got it, %s. And what date would you like?", speakableClock(slot.Clock)))
	case PromptAskTime:
		slot := slots.Get(models.FieldDateTime)
		sb.WriteString(fmt.Sprintf("What time on %s would you prefer? You can say '2 pm' or '14:30'.", r.friendlyDate(slot.Date)))
	case PromptAskReason:
		sb.WriteString("Finally, what is the reason for your visit?")
	case PromptConfirmEmail:
		slot := slots.Get(models.FieldEmail)
		sb.WriteString(fmt.Sprintf("I heard %s. Is that correct?", SpeakableEmail(slot.Value, r.KnownDomains)))
	case PromptConfirmDateTime:
		slot := slots.Get(models.FieldDateTime)
		sb.WriteString(fmt.Sprintf("I heard %s. Is that correct?", r.friendlyDateTime(slot.Date, slot.Clock)))
	case PromptConfirmAll:
		name := slots.Get(models.FieldCallerName).Value
		email := slots.Get(models.FieldEmail).Value
		dt := slots.Get(models.FieldDateTime)
		reason := slots.Get(models.FieldReason).Value
		sb.WriteString(fmt.Sprintf(
			"Perfect. I've got %s with email %s, on %s for %s. Shall I book this now?",
			name, SpeakableEmail(email, r.KnownDomains), r.friendlyDateTime(dt.Date, dt.Clock), reason,
		))
	case PromptWhichField:
		sb.WriteString("No problem. Which detail should I change: your name, email, the date and time, or the reason?")
	case PromptBooked:
		sb.WriteString("Your appointment is booked. You'll receive a confirmation by email shortly. Have a great day!")
	case PromptBookingFailed:
		sb.WriteString("I'm sorry, I couldn't complete the booking just now. Please try again a little later.")
	case PromptConflict:
		sb.WriteString("I'm sorry, that time is already taken. What other date and time would work for you?")
	case PromptFailureGoodbye:
		sb.WriteString("I'm sorry, I'm having trouble understanding. Please call back and we can try again. Goodbye.")
	}

	return sb.String()
}

// SpeakableEmail renders an address for TTS: the local part is spelled
// character by character (punctuation as words), while a recognized
// provider domain is spoken as a whole word. Unrecognized domains are
// spelled out too, since an arbitrary domain read naturally is as easy
// to mishear as an arbitrary local part.
func SpeakableEmail(email string, knownDomains map[string]bool) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]

	var tokens []string
	for _, ch := range local {
		tokens = append(tokens, spellChar(ch))
	}
	tokens = append(tokens, "at")

	labels := strings.Split(domain, ".")
	provider := labels[0]
	if knownDomains[strings.ToLower(provider)] {
		tokens = append(tokens, strings.ToLower(provider))
	} else {
		for _, ch := range provider {
			tokens = append(tokens, spellChar(ch))
		}
	}
	for _, tld := range labels[1:] {
		tokens = append(tokens, "dot", strings.ToLower(tld))
	}

	return strings.Join(tokens, ",  ")
}

func spellChar(ch rune) string {
	switch ch {
	case '.':
		return "dot"
	case '-':
		return "dash"
	case '_':
		return "underscore"
	case '+':
		return "plus"
	default:
		return string(ch)
	}
}

// friendlyDateTime phrases "2026-09-15" + "14:30" as
// "Tuesday 15 September at 2:30 pm".
func (r *Renderer) friendlyDateTime(date, clock string) string {
	if clock == "" {
		return r.friendlyDate(date)
	}
	return r.friendlyDate(date) + " at " + speakableClock(clock)
}

func (r *Renderer) friendlyDate(date string) string {
	d, err := time.ParseInLocation("2006-01-02", date, r.loc())
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d %s", d.Weekday(), d.Day(), d.Month())
}

func speakableClock(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	h, m := t.Hour(), t.Minute()
	ampm := "am"
	if h >= 12 {
		ampm = "pm"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	if m == 0 {
		return fmt.Sprintf("%d %s", h12, ampm)
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, ampm)
}

// dateExamples builds live examples ("this Friday", "next Monday",
// "29 September") from the current date so the prompt never suggests
// the past.
func (r *Renderer) dateExamples() string {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	now = now.In(r.loc())

	friday := nextWeekday(now, time.Friday, true)
	fridayLabel := "this Friday"
	if friday.Equal(startOfDay(now)) || friday.Format("2006-01-02") == now.Format("2006-01-02") {
		fridayLabel = "today"
	}
	abs := now.AddDate(0, 0, 14)
	return fmt.Sprintf("'%s', 'next Monday', or '%d %s'", fridayLabel, abs.Day(), abs.Month())
}
