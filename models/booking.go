package models

import "time"

// BookingIntent is the terminal output of a successful dialogue:
// every slot confirmed, start/end resolved in the configured timezone.
// Produced exactly once per session and immutable afterwards.
type BookingIntent struct {
	CallerName string    `json:"callerName"`
	Email      string    `json:"email"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Reason     string    `json:"reason"`
}

// BookingConfirmation carries scheduling metadata returned by the
// calendar collaborator on success.
type BookingConfirmation struct {
	EventID   string `json:"eventId"`
	EventLink string `json:"eventLink,omitempty"`
	Message   string `json:"message,omitempty"`
}

// BookingRecord is the archived form of a completed booking.
type BookingRecord struct {
	ID         string    `bson:"id" json:"id"`
	SessionID  string    `bson:"sessionId" json:"sessionId"`
	CallerName string    `bson:"callerName" json:"callerName"`
	Email      string    `bson:"email" json:"email"`
	Start      time.Time `bson:"start" json:"start"`
	End        time.Time `bson:"end" json:"end"`
	Reason     string    `bson:"reason" json:"reason"`
	EventID    string    `bson:"eventId,omitempty" json:"eventId,omitempty"`
	EventLink  string    `bson:"eventLink,omitempty" json:"eventLink,omitempty"`
	Reminded   bool      `bson:"reminded" json:"reminded"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ReminderPayload is the asynq task payload for appointment reminders.
type ReminderPayload struct {
	BookingID  string    `json:"bookingId"`
	CallerName string    `json:"callerName"`
	Email      string    `json:"email"`
	Start      time.Time `json:"start"`
	Summary    string    `json:"summary"`
}
