package models

// FieldName identifies one required field of the booking.
type FieldName string

const (
	FieldCallerName FieldName = "caller_name"
	FieldEmail      FieldName = "email"
	FieldDateTime   FieldName = "datetime"
	FieldReason     FieldName = "reason"
)

// FieldOrder is the fixed priority in which missing fields are collected.
var FieldOrder = []FieldName{FieldCallerName, FieldEmail, FieldDateTime, FieldReason}

// DialogueState is the closed set of states the conversation can be in.
type DialogueState string

const (
	StateGreet           DialogueState = "greet"
	StateAskName         DialogueState = "ask_name"
	StateAskEmail        DialogueState = "ask_email"
	StateAskDateTime     DialogueState = "ask_datetime"
	StateAskReason       DialogueState = "ask_reason"
	StateConfirmEmail    DialogueState = "confirm_email"
	StateConfirmDateTime DialogueState = "confirm_datetime"
	StateConfirmAll      DialogueState = "confirm_all"
	StateBooking         DialogueState = "booking"
	StateEndedSuccess    DialogueState = "ended_success"
	StateEndedFailure    DialogueState = "ended_failure"
)

// Terminal reports whether no further turns are processed in this state.
func (s DialogueState) Terminal() bool {
	return s == StateEndedSuccess || s == StateEndedFailure
}

// AskState returns the ask_* state that collects the given field.
func AskState(f FieldName) DialogueState {
	switch f {
	case FieldCallerName:
		return StateAskName
	case FieldEmail:
		return StateAskEmail
	case FieldDateTime:
		return StateAskDateTime
	default:
		return StateAskReason
	}
}

// NeedsSpokenConfirmation reports whether a field is read back to the
// caller before being committed. Names and free-text reasons are taken
// as heard; emails and date-times are error-prone over voice.
func NeedsSpokenConfirmation(f FieldName) bool {
	return f == FieldEmail || f == FieldDateTime
}
