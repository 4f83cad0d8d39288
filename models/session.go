package models

import "time"

// SessionContext is the per-conversation state persisted between turns.
// It exclusively owns its SlotStore and DialogueState; the session
// service serializes turns so no two goroutines mutate it at once.
type SessionContext struct {
	SessionID  string            `json:"sessionId"`
	State      DialogueState     `json:"state"`
	Slots      *SlotStore        `json:"slots"`
	Retries    map[FieldName]int `json:"retries"`
	TurnCount  int               `json:"turnCount"`
	LastPrompt string            `json:"lastPrompt,omitempty"`
	Intent     *BookingIntent    `json:"intent,omitempty"`
	// Confirmation carries calendar metadata once booking succeeds,
	// for the archive step.
	Confirmation *BookingConfirmation `json:"confirmation,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func NewSessionContext(sessionID string, now time.Time) *SessionContext {
	return &SessionContext{
		SessionID: sessionID,
		State:     StateGreet,
		Slots:     NewSlotStore(),
		Retries:   make(map[FieldName]int),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
