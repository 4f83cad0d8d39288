package models

// TurnResult is what one processed turn hands back to the transport
// boundary: the agent's reply, the resulting state and, once the
// dialogue completes, the frozen booking intent. CalendarError is a
// diagnostic side channel and is never spoken aloud.
type TurnResult struct {
	SessionID     string         `json:"sessionId"`
	Transcript    string         `json:"transcript"`
	Reply         string         `json:"reply"`
	State         DialogueState  `json:"state"`
	Ended         bool           `json:"ended"`
	CalendarError string         `json:"calendarError,omitempty"`
	Booking       *BookingIntent `json:"booking,omitempty"`
}

// TextTurnRequest is the JSON body of the text-mode turn endpoint.
type TextTurnRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Text      string `json:"text"`
	Init      bool   `json:"init"`
}
